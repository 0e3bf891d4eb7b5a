package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// SaveSnapshot persists a segmented snapshot and its customer rows. A missing
// ID is assigned and written back to the snapshot.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, reference_date, window_from, window_to, policy, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		snapshot.ID,
		snapshot.ReferenceDate,
		nullableTime(snapshot.WindowFrom),
		nullableTime(snapshot.WindowTo),
		snapshot.Policy,
		snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snapshot.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_customers (
			snapshot_id, customer_id, recency, first_purchase,
			frequency, avg_purchase, max_purchase, segment
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range snapshot.Customers {
		_, err := stmt.ExecContext(ctx,
			snapshot.ID,
			c.Features.CustomerID,
			c.Features.Recency,
			c.Features.FirstPurchase,
			c.Features.Frequency,
			c.Features.AvgPurchase,
			c.Features.MaxPurchase,
			string(c.Segment),
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot customer %s: %w", c.Features.CustomerID, err)
		}
	}

	return tx.Commit()
}

// GetSnapshot loads a snapshot with all its customer rows.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var snapshot model.Snapshot
	var windowFrom, windowTo sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, reference_date, window_from, window_to, policy, created_at
		FROM snapshots
		WHERE id = ?
	`, id).Scan(
		&snapshot.ID,
		&snapshot.ReferenceDate,
		&windowFrom,
		&windowTo,
		&snapshot.Policy,
		&snapshot.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snapshot.ReferenceDate = snapshot.ReferenceDate.UTC()
	snapshot.CreatedAt = snapshot.CreatedAt.UTC()
	snapshot.WindowFrom = timePtr(windowFrom)
	snapshot.WindowTo = timePtr(windowTo)

	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, recency, first_purchase, frequency,
		       avg_purchase, max_purchase, segment
		FROM snapshot_customers
		WHERE snapshot_id = ?
		ORDER BY customer_id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var c model.SegmentedCustomer
		var segment string
		if err := rows.Scan(
			&c.Features.CustomerID,
			&c.Features.Recency,
			&c.Features.FirstPurchase,
			&c.Features.Frequency,
			&c.Features.AvgPurchase,
			&c.Features.MaxPurchase,
			&segment,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot customer: %w", err)
		}
		c.Segment = model.Segment(segment)
		snapshot.Customers = append(snapshot.Customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot customers: %w", err)
	}

	return &snapshot, nil
}

// ListSnapshots returns snapshot metadata ordered by reference date. Customer
// rows are not loaded; use GetSnapshot for the full view.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference_date, window_from, window_to, policy, created_at
		FROM snapshots
		ORDER BY reference_date ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []model.Snapshot
	for rows.Next() {
		var snapshot model.Snapshot
		var windowFrom, windowTo sql.NullTime
		if err := rows.Scan(
			&snapshot.ID,
			&snapshot.ReferenceDate,
			&windowFrom,
			&windowTo,
			&snapshot.Policy,
			&snapshot.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshot.ReferenceDate = snapshot.ReferenceDate.UTC()
		snapshot.CreatedAt = snapshot.CreatedAt.UTC()
		snapshot.WindowFrom = timePtr(windowFrom)
		snapshot.WindowTo = timePtr(windowTo)
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// nullableTime converts an optional window bound into a driver value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// timePtr converts a nullable time column back to the model representation.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
