package analysis

import (
	"github.com/cohortlab/ltvcast/internal/model"
)

// SegmentAvgSpend derives the per-segment revenue vector used to price
// projected populations: every snapshot customer's total spend inside
// the window (zero when they did not purchase) contributes to their
// segment's mean. The vector is laid out in SegmentOrder; a segment with
// no customers gets zero. The window is normally the final observed
// period, ending at the snapshot's reference date.
func SegmentAvgSpend(snapshot *model.Snapshot, transactions []model.Transaction, window Window) []float64 {
	spend := make(map[string]float64)
	for _, tx := range transactions {
		if window.Contains(tx.OrderDate) {
			spend[tx.CustomerID] += tx.Price
		}
	}

	totals := make([]float64, len(model.SegmentOrder))
	counts := make([]int, len(model.SegmentOrder))
	for _, c := range snapshot.Customers {
		i := c.Segment.Index()
		if i < 0 {
			continue
		}
		totals[i] += spend[c.Features.CustomerID]
		counts[i]++
	}

	avg := make([]float64, len(model.SegmentOrder))
	for i := range avg {
		if counts[i] > 0 {
			avg[i] = totals[i] / float64(counts[i])
		}
	}
	return avg
}
