// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/cohortlab/ltvcast/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// StartDate is inclusive and EndDate exclusive, matching the aggregation
// window semantics.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CustomerID string
	Limit      int
}

// DateSpan describes the observed extent of the stored transaction log.
type DateSpan struct {
	First time.Time
	Last  time.Time
	Count int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionSpan(ctx context.Context) (*DateSpan, error)

	// Snapshot operations
	SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	ListSnapshots(ctx context.Context) ([]model.Snapshot, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
