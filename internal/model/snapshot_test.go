package model

import (
	"testing"
	"time"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		ReferenceDate: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		Customers: []SegmentedCustomer{
			{Features: CustomerFeatures{CustomerID: "10", Recency: 30}, Segment: SegmentActive},
			{Features: CustomerFeatures{CustomerID: "20", Recency: 400}, Segment: SegmentCold},
			{Features: CustomerFeatures{CustomerID: "30", Recency: 900}, Segment: SegmentInactive},
			{Features: CustomerFeatures{CustomerID: "40", Recency: 12}, Segment: SegmentActive},
		},
	}
}

func TestSnapshotSegmentCounts(t *testing.T) {
	s := testSnapshot()

	counts := s.SegmentCounts()
	want := []int{1, 1, 2} // inactive, cold, active
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("SegmentCounts()[%d] = %d, want %d", i, counts[i], want[i])
		}
	}

	vector := s.PopulationVector()
	for i := range want {
		if vector[i] != float64(want[i]) {
			t.Errorf("PopulationVector()[%d] = %v, want %v", i, vector[i], float64(want[i]))
		}
	}
}

func TestSnapshotByCustomer(t *testing.T) {
	s := testSnapshot()

	index := s.ByCustomer()
	if len(index) != len(s.Customers) {
		t.Fatalf("ByCustomer() has %d entries, want %d", len(index), len(s.Customers))
	}

	row, ok := index["20"]
	if !ok {
		t.Fatal("customer 20 missing from index")
	}
	if row.Segment != SegmentCold {
		t.Errorf("customer 20 segment = %v, want cold", row.Segment)
	}

	if _, ok := index["99"]; ok {
		t.Error("unknown customer should not be in index")
	}
}
