// Package ingest parses retail transaction logs into typed records.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// Options configures the CSV reader. Column names are matched against
// the header case-insensitively.
type Options struct {
	CustomerColumn string
	DateColumn     string
	PriceColumn    string
	DateLayouts    []string
	Delimiter      rune
	// SkipIncomplete drops rows with an empty customer id or price
	// instead of rejecting the batch. Malformed values always reject.
	SkipIncomplete bool
}

// DefaultOptions returns the reader configuration for the standard
// purchases export.
func DefaultOptions() Options {
	return Options{
		CustomerColumn: "customer_id",
		DateColumn:     "order_date",
		PriceColumn:    "price",
		DateLayouts:    []string{"2006-01-02", "2006-01-02 15:04:05", "01/02/2006"},
		Delimiter:      ',',
	}
}

// Result summarizes one parse run.
type Result struct {
	Transactions      []model.Transaction
	RowsRead          int
	SkippedIncomplete int
}

// Reader parses transaction-log CSV files.
type Reader struct {
	opts Options
}

// NewReader creates a reader, filling unset options from the defaults.
func NewReader(opts Options) *Reader {
	defaults := DefaultOptions()
	if opts.CustomerColumn == "" {
		opts.CustomerColumn = defaults.CustomerColumn
	}
	if opts.DateColumn == "" {
		opts.DateColumn = defaults.DateColumn
	}
	if opts.PriceColumn == "" {
		opts.PriceColumn = defaults.PriceColumn
	}
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = defaults.DateLayouts
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = defaults.Delimiter
	}
	return &Reader{opts: opts}
}

// ParseFile reads a whole transaction log and returns typed records.
// Incomplete rows are skipped or reject the batch depending on
// SkipIncomplete; malformed rows always reject the batch, so a partial
// import can never happen.
func (r *Reader) ParseFile(ctx context.Context, reader io.Reader) (*Result, error) {
	cr := csv.NewReader(reader)
	cr.Comma = r.opts.Delimiter
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file has no header row", common.ErrBadRecord)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	customerCol, err := columnIndex(header, r.opts.CustomerColumn)
	if err != nil {
		return nil, err
	}
	dateCol, err := columnIndex(header, r.opts.DateColumn)
	if err != nil {
		return nil, err
	}
	priceCol, err := columnIndex(header, r.opts.PriceColumn)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	occurrences := make(map[string]int)
	row := 1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", common.ErrBadRecord, row+1, err)
		}
		row++
		result.RowsRead++

		customer := strings.TrimSpace(record[customerCol])
		rawDate := strings.TrimSpace(record[dateCol])
		rawPrice := strings.TrimSpace(record[priceCol])

		if customer == "" || rawPrice == "" {
			if r.opts.SkipIncomplete {
				result.SkippedIncomplete++
				continue
			}
			return nil, fmt.Errorf("%w: row %d is missing customer id or price", common.ErrBadRecord, row)
		}

		orderDate, err := r.parseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", common.ErrBadRecord, row, err)
		}

		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: unparseable price %q", common.ErrBadRecord, row, rawPrice)
		}
		if price < 0 {
			return nil, fmt.Errorf("%w: row %d: negative price %v", common.ErrBadRecord, row, price)
		}

		tx := model.Transaction{
			ID:         uuid.NewString(),
			CustomerID: customer,
			OrderDate:  orderDate,
			Price:      price,
		}

		key := fmt.Sprintf("%s:%s:%.2f", tx.CustomerID, tx.OrderDate.Format("2006-01-02"), tx.Price)
		occurrences[key]++
		tx.Hash = hashFor(&tx, occurrences[key])

		result.Transactions = append(result.Transactions, tx)
	}

	slog.Info("Parsed transaction log",
		"rows_read", result.RowsRead,
		"transactions", len(result.Transactions),
		"skipped_incomplete", result.SkippedIncomplete)

	return result, nil
}

// parseDate tries the configured layouts in order.
func (r *Reader) parseDate(raw string) (time.Time, error) {
	for _, layout := range r.opts.DateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// columnIndex locates a named column in the header.
func columnIndex(header []string, name string) (int, error) {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: column %q not found in header %v", common.ErrBadRecord, name, header)
}

// hashFor derives the dedupe hash for a row. Identical rows within one
// file are real repeat purchases, so the occurrence ordinal joins the
// hash input from the second copy on; re-importing the same file maps
// every row back to the same hash.
func hashFor(tx *model.Transaction, occurrence int) string {
	if occurrence <= 1 {
		return tx.GenerateHash()
	}
	data := fmt.Sprintf("%s:%s:%.2f:%d",
		tx.CustomerID,
		tx.OrderDate.Format("2006-01-02"),
		tx.Price,
		occurrence)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}
