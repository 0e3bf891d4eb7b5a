// Package storage provides the data persistence layer for ltvcast.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cohortlab/ltvcast/internal/model"
	"github.com/cohortlab/ltvcast/internal/service"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidFilter      = errors.New("invalid transaction filter")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidSnapshot    = errors.New("invalid snapshot")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.CustomerID == "" {
		return fmt.Errorf("%w: missing customer ID", ErrInvalidTransaction)
	}
	if txn.OrderDate.IsZero() {
		return fmt.Errorf("%w: missing order date", ErrInvalidTransaction)
	}
	if txn.Price < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidTransaction)
	}
	return nil
}

// validateSnapshot validates a snapshot before persistence.
func validateSnapshot(snapshot *model.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if snapshot.ReferenceDate.IsZero() {
		return fmt.Errorf("%w: missing reference date", ErrInvalidSnapshot)
	}
	if strings.TrimSpace(snapshot.Policy) == "" {
		return fmt.Errorf("%w: missing policy", ErrInvalidSnapshot)
	}
	for i, c := range snapshot.Customers {
		if c.Features.CustomerID == "" {
			return fmt.Errorf("%w: customer at index %d has no ID", ErrInvalidSnapshot, i)
		}
		if !c.Segment.Valid() {
			return fmt.Errorf("%w: customer %s has unknown segment %q", ErrInvalidSnapshot, c.Features.CustomerID, c.Segment)
		}
	}
	return nil
}

// validateFilter validates a transaction filter.
func validateFilter(filter service.TransactionFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && !filter.StartDate.Before(*filter.EndDate) {
		return fmt.Errorf("%w: start date %s is not before end date %s",
			ErrInvalidFilter, filter.StartDate.Format("2006-01-02"), filter.EndDate.Format("2006-01-02"))
	}
	if filter.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidFilter)
	}
	return nil
}
