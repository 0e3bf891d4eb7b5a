// Package model defines the core domain types shared across the pipeline.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction is a single purchase from the retail transaction log.
type Transaction struct {
	OrderDate  time.Time
	ID         string
	CustomerID string
	Hash       string
	Price      float64
}

// GenerateHash creates a content hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f",
		t.CustomerID,
		t.OrderDate.Format("2006-01-02"),
		t.Price)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
