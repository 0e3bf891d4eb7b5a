package model

import "time"

// SegmentedCustomer pairs a customer's features with the segment assigned
// at the snapshot's reference date.
type SegmentedCustomer struct {
	Features CustomerFeatures
	Segment  Segment
}

// Snapshot is a segmented view of the customer base at one reference date.
// A customer carries exactly one segment per snapshot; the same customer
// may carry a different segment in a snapshot at another reference date.
// Snapshots are immutable once built.
type Snapshot struct {
	ReferenceDate time.Time
	CreatedAt     time.Time
	WindowFrom    *time.Time
	WindowTo      *time.Time
	ID            string
	Policy        string
	Customers     []SegmentedCustomer
}

// ByCustomer indexes the snapshot rows by customer id.
func (s *Snapshot) ByCustomer() map[string]SegmentedCustomer {
	index := make(map[string]SegmentedCustomer, len(s.Customers))
	for _, c := range s.Customers {
		index[c.Features.CustomerID] = c
	}
	return index
}

// SegmentCounts returns the number of customers per segment in SegmentOrder.
func (s *Snapshot) SegmentCounts() []int {
	counts := make([]int, len(SegmentOrder))
	for _, c := range s.Customers {
		if i := c.Segment.Index(); i >= 0 {
			counts[i]++
		}
	}
	return counts
}

// PopulationVector returns SegmentCounts as float64 for projection.
func (s *Snapshot) PopulationVector() []float64 {
	counts := s.SegmentCounts()
	vector := make([]float64, len(counts))
	for i, n := range counts {
		vector[i] = float64(n)
	}
	return vector
}
