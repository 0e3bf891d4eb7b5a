package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
	"github.com/cohortlab/ltvcast/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to create test transactions with deterministic content.
func createTestTransactions(count int) []model.Transaction {
	txns := make([]model.Transaction, count)
	baseDate := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		txns[i] = model.Transaction{
			ID:         fmt.Sprintf("txn-%03d", i+1),
			CustomerID: fmt.Sprintf("cust-%d", (i%3)+1),
			OrderDate:  baseDate.AddDate(0, 0, i),
			Price:      float64(i+1) * 10.50,
		}
		txns[i].Hash = txns[i].GenerateHash()
	}
	return txns
}

func TestSQLiteStorage_SaveTransactions(t *testing.T) {
	tests := []struct {
		setup        func(*SQLiteStorage, context.Context)
		name         string
		transactions []model.Transaction
		wantInserted int
		wantErr      bool
	}{
		{
			name:         "save new transactions",
			transactions: createTestTransactions(3),
			wantInserted: 3,
		},
		{
			name:         "duplicate rows are ignored",
			transactions: createTestTransactions(2),
			setup: func(s *SQLiteStorage, ctx context.Context) {
				_, _ = s.SaveTransactions(ctx, createTestTransactions(2))
			},
			wantInserted: 0,
		},
		{
			name:         "partial overlap inserts only new rows",
			transactions: createTestTransactions(4),
			setup: func(s *SQLiteStorage, ctx context.Context) {
				_, _ = s.SaveTransactions(ctx, createTestTransactions(2))
			},
			wantInserted: 2,
		},
		{
			name:         "save empty list",
			transactions: []model.Transaction{},
			wantErr:      true,
		},
		{
			name: "reject transaction without customer",
			transactions: []model.Transaction{
				{
					ID:        "txn-bad",
					OrderDate: time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
					Price:     10,
				},
			},
			wantErr: true,
		},
		{
			name: "reject negative price",
			transactions: []model.Transaction{
				{
					ID:         "txn-neg",
					CustomerID: "cust-1",
					OrderDate:  time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
					Price:      -5,
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			if tt.setup != nil {
				tt.setup(store, ctx)
			}

			inserted, err := store.SaveTransactions(ctx, tt.transactions)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if inserted != tt.wantInserted {
				t.Errorf("SaveTransactions() inserted = %d, want %d", inserted, tt.wantInserted)
			}
		})
	}
}

func TestSQLiteStorage_SaveTransactionsGeneratesHash(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txn := model.Transaction{
		ID:         "txn-nohash",
		CustomerID: "cust-1",
		OrderDate:  time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC),
		Price:      42,
	}

	inserted, err := store.SaveTransactions(ctx, []model.Transaction{txn})
	if err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}
	if inserted != 1 {
		t.Fatalf("SaveTransactions() inserted = %d, want 1", inserted)
	}

	got, err := store.GetTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(got))
	}
	if got[0].Hash != txn.GenerateHash() {
		t.Errorf("Stored hash = %q, want generated %q", got[0].Hash, txn.GenerateHash())
	}
}

func TestSQLiteStorage_GetTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	// cust-1: Mar 1, Mar 4; cust-2: Mar 2, Mar 5; cust-3: Mar 3
	seed := createTestTransactions(5)
	if _, err := store.SaveTransactions(ctx, seed); err != nil {
		t.Fatalf("Failed to seed transactions: %v", err)
	}

	date := func(day int) time.Time {
		return time.Date(2015, 3, day, 0, 0, 0, 0, time.UTC)
	}
	datePtr := func(day int) *time.Time {
		d := date(day)
		return &d
	}

	tests := []struct {
		name      string
		filter    service.TransactionFilter
		wantIDs   []string
		wantErr   bool
		wantCount int
	}{
		{
			name:      "no filter returns all ordered by date",
			filter:    service.TransactionFilter{},
			wantCount: 5,
			wantIDs:   []string{"txn-001", "txn-002", "txn-003", "txn-004", "txn-005"},
		},
		{
			name:      "filter by customer",
			filter:    service.TransactionFilter{CustomerID: "cust-2"},
			wantCount: 2,
			wantIDs:   []string{"txn-002", "txn-005"},
		},
		{
			name:      "start date is inclusive",
			filter:    service.TransactionFilter{StartDate: datePtr(3)},
			wantCount: 3,
			wantIDs:   []string{"txn-003", "txn-004", "txn-005"},
		},
		{
			name:      "end date is exclusive",
			filter:    service.TransactionFilter{EndDate: datePtr(3)},
			wantCount: 2,
			wantIDs:   []string{"txn-001", "txn-002"},
		},
		{
			name: "start and end bound a window",
			filter: service.TransactionFilter{
				StartDate: datePtr(2),
				EndDate:   datePtr(5),
			},
			wantCount: 3,
			wantIDs:   []string{"txn-002", "txn-003", "txn-004"},
		},
		{
			name:      "limit truncates results",
			filter:    service.TransactionFilter{Limit: 2},
			wantCount: 2,
			wantIDs:   []string{"txn-001", "txn-002"},
		},
		{
			name: "inverted date range is rejected",
			filter: service.TransactionFilter{
				StartDate: datePtr(5),
				EndDate:   datePtr(2),
			},
			wantErr: true,
		},
		{
			name:      "unknown customer yields no rows",
			filter:    service.TransactionFilter{CustomerID: "cust-99"},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetTransactions(ctx, tt.filter)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != tt.wantCount {
				t.Fatalf("GetTransactions() returned %d rows, want %d", len(got), tt.wantCount)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("Row %d: ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSQLiteStorage_GetTransactionsRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	want := model.Transaction{
		ID:         "txn-rt",
		CustomerID: "cust-7",
		OrderDate:  time.Date(2014, 12, 31, 0, 0, 0, 0, time.UTC),
		Price:      123.45,
	}
	want.Hash = want.GenerateHash()

	if _, err := store.SaveTransactions(ctx, []model.Transaction{want}); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}

	got, err := store.GetTransactions(ctx, service.TransactionFilter{CustomerID: "cust-7"})
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(got))
	}
	if got[0].ID != want.ID || got[0].CustomerID != want.CustomerID || got[0].Hash != want.Hash {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got[0], want)
	}
	if !got[0].OrderDate.Equal(want.OrderDate) {
		t.Errorf("OrderDate = %v, want %v", got[0].OrderDate, want.OrderDate)
	}
	if got[0].Price != want.Price {
		t.Errorf("Price = %v, want %v", got[0].Price, want.Price)
	}
}

func TestSQLiteStorage_GetTransactionSpan(t *testing.T) {
	t.Run("empty log", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()

		_, err := store.GetTransactionSpan(context.Background())
		if !errors.Is(err, common.ErrNoTransactions) {
			t.Fatalf("GetTransactionSpan() error = %v, want ErrNoTransactions", err)
		}
	})

	t.Run("populated log", func(t *testing.T) {
		store, cleanup := createTestStorage(t)
		defer cleanup()
		ctx := context.Background()

		if _, err := store.SaveTransactions(ctx, createTestTransactions(5)); err != nil {
			t.Fatalf("Failed to seed transactions: %v", err)
		}

		span, err := store.GetTransactionSpan(ctx)
		if err != nil {
			t.Fatalf("GetTransactionSpan() error = %v", err)
		}
		wantFirst := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
		wantLast := time.Date(2015, 3, 5, 0, 0, 0, 0, time.UTC)
		if !span.First.Equal(wantFirst) {
			t.Errorf("First = %v, want %v", span.First, wantFirst)
		}
		if !span.Last.Equal(wantLast) {
			t.Errorf("Last = %v, want %v", span.Last, wantLast)
		}
		if span.Count != 5 {
			t.Errorf("Count = %d, want 5", span.Count)
		}
	})
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	if err == nil {
		t.Fatal("NewSQLiteStorage() with blank path should fail")
	}
}
