package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
	"github.com/cohortlab/ltvcast/internal/service"
)

// SaveTransactions appends transactions to the log. Rows whose content hash
// already exists are skipped, so re-importing the same file is a no-op. It
// returns the number of rows actually inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, customer_id, order_date, price
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		// Generate hash if not already set
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		result, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.CustomerID,
			txn.OrderDate,
			txn.Price,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rows)
	}

	return inserted, nil
}

// GetTransactions retrieves transactions matching the filter, ordered by
// order date then customer id.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	var conditions []string
	var args []any

	if filter.CustomerID != "" {
		conditions = append(conditions, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "order_date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "order_date < ?")
		args = append(args, *filter.EndDate)
	}

	query := `
		SELECT id, hash, customer_id, order_date, price
		FROM transactions
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY order_date ASC, customer_id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		if err := rows.Scan(
			&txn.ID,
			&txn.Hash,
			&txn.CustomerID,
			&txn.OrderDate,
			&txn.Price,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.OrderDate = txn.OrderDate.UTC()
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// GetTransactionSpan reports the first and last order dates in the log plus
// the row count. An empty log yields ErrNoTransactions.
func (s *SQLiteStorage) GetTransactionSpan(ctx context.Context) (*service.DateSpan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	if count == 0 {
		return nil, common.ErrNoTransactions
	}

	// MIN/MAX expressions lose the column decltype, so the driver would hand
	// back raw strings. Select the column directly instead.
	var first, last time.Time
	err = s.db.QueryRowContext(ctx, `
		SELECT order_date FROM transactions ORDER BY order_date ASC LIMIT 1
	`).Scan(&first)
	if err != nil {
		return nil, fmt.Errorf("failed to query first order date: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT order_date FROM transactions ORDER BY order_date DESC LIMIT 1
	`).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last order date: %w", err)
	}

	return &service.DateSpan{
		First: first.UTC(),
		Last:  last.UTC(),
		Count: count,
	}, nil
}
