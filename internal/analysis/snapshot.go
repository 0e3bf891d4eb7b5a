package analysis

import (
	"time"

	"github.com/cohortlab/ltvcast/internal/model"
)

// BuildSnapshot aggregates features at referenceDate and segments every
// customer with policy. The returned snapshot carries no ID until it is
// saved. Callers that aggregate over a dataset extending past the
// reference date must bound the window at the reference date themselves;
// the aggregator treats in-window transactions at or after it as an
// error.
func BuildSnapshot(transactions []model.Transaction, referenceDate time.Time, window Window, policy Policy) (*model.Snapshot, error) {
	rows, err := AggregateFeatures(transactions, referenceDate, window)
	if err != nil {
		return nil, err
	}

	customers := make([]model.SegmentedCustomer, len(rows))
	for i, row := range rows {
		customers[i] = model.SegmentedCustomer{
			Features: row,
			Segment:  policy.Classify(row.Recency),
		}
	}

	return &model.Snapshot{
		ReferenceDate: midnight(referenceDate),
		WindowFrom:    normalizeBound(window.From),
		WindowTo:      normalizeBound(window.To),
		Policy:        policy.Name(),
		Customers:     customers,
	}, nil
}

func normalizeBound(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	day := midnight(*t)
	return &day
}
