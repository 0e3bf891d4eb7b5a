package storage

import (
	"testing"
	"time"

	"github.com/cohortlab/ltvcast/internal/model"
	"github.com/cohortlab/ltvcast/internal/service"
)

func TestValidateTransaction(t *testing.T) {
	valid := model.Transaction{
		ID:         "txn-1",
		CustomerID: "cust-1",
		OrderDate:  time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC),
		Price:      42.50,
	}

	tests := []struct {
		mutate  func(*model.Transaction)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.Transaction) {}},
		{name: "zero price is fine", mutate: func(tx *model.Transaction) { tx.Price = 0 }},
		{name: "missing id", mutate: func(tx *model.Transaction) { tx.ID = "" }, wantErr: true},
		{name: "missing customer", mutate: func(tx *model.Transaction) { tx.CustomerID = "" }, wantErr: true},
		{name: "zero date", mutate: func(tx *model.Transaction) { tx.OrderDate = time.Time{} }, wantErr: true},
		{name: "negative price", mutate: func(tx *model.Transaction) { tx.Price = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := validateTransaction(&tx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSnapshot(t *testing.T) {
	ref := time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC)
	valid := func() *model.Snapshot {
		return &model.Snapshot{
			ReferenceDate: ref,
			Policy:        "recency(365/730)",
			Customers: []model.SegmentedCustomer{
				{Features: model.CustomerFeatures{CustomerID: "cust-1", Recency: 10}, Segment: model.SegmentActive},
			},
		}
	}

	tests := []struct {
		mutate  func(*model.Snapshot)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.Snapshot) {}},
		{name: "missing reference date", mutate: func(s *model.Snapshot) { s.ReferenceDate = time.Time{} }, wantErr: true},
		{name: "missing policy", mutate: func(s *model.Snapshot) { s.Policy = "  " }, wantErr: true},
		{name: "customer without id", mutate: func(s *model.Snapshot) { s.Customers[0].Features.CustomerID = "" }, wantErr: true},
		{name: "unknown segment", mutate: func(s *model.Snapshot) { s.Customers[0].Segment = "lukewarm" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := valid()
			tt.mutate(snapshot)
			err := validateSnapshot(snapshot)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := validateSnapshot(nil); err == nil {
		t.Error("validateSnapshot(nil) should fail")
	}
}

func TestValidateFilter(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC)

	if err := validateFilter(service.TransactionFilter{StartDate: &start, EndDate: &end}); err != nil {
		t.Errorf("valid filter rejected: %v", err)
	}
	if err := validateFilter(service.TransactionFilter{StartDate: &end, EndDate: &start}); err == nil {
		t.Error("inverted date range should be rejected")
	}
	if err := validateFilter(service.TransactionFilter{Limit: -1}); err == nil {
		t.Error("negative limit should be rejected")
	}
}
