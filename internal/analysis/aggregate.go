// Package analysis implements the core pipeline: feature aggregation,
// recency segmentation, transition estimation, and the Markov revenue
// forecast. Every function here is a pure function of its inputs; I/O
// stays in the surrounding layers.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// Window bounds the transactions an aggregation considers. From is
// inclusive, To exclusive. A nil bound leaves that side open.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether date falls inside the window.
func (w Window) Contains(date time.Time) bool {
	day := midnight(date)
	if w.From != nil && day.Before(midnight(*w.From)) {
		return false
	}
	if w.To != nil && !day.Before(midnight(*w.To)) {
		return false
	}
	return true
}

// midnight normalizes a timestamp to UTC midnight so day arithmetic
// ignores clock time and zone.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole days from then back to ref. Both ends are
// normalized to UTC midnight, so the difference is always an exact
// number of days.
func daysBetween(ref, then time.Time) int {
	return int(midnight(ref).Sub(midnight(then)).Hours() / 24)
}

// AggregateFeatures reduces transactions to one CustomerFeatures row per
// distinct customer among transactions inside the window, with day
// offsets measured from referenceDate. Every qualifying transaction must
// strictly precede the reference date; one dated on or after it is a
// caller error, never clamped. Output is sorted by customer id so
// identical inputs produce identical output.
func AggregateFeatures(transactions []model.Transaction, referenceDate time.Time, window Window) ([]model.CustomerFeatures, error) {
	type accumulator struct {
		earliest time.Time
		latest   time.Time
		total    float64
		max      float64
		count    int
	}

	ref := midnight(referenceDate)
	byCustomer := make(map[string]*accumulator)

	for _, tx := range transactions {
		if !window.Contains(tx.OrderDate) {
			continue
		}
		day := midnight(tx.OrderDate)
		if !day.Before(ref) {
			return nil, fmt.Errorf("%w: transaction for customer %s dated %s does not precede reference date %s",
				common.ErrInvalidConfig, tx.CustomerID,
				day.Format("2006-01-02"), ref.Format("2006-01-02"))
		}

		acc, ok := byCustomer[tx.CustomerID]
		if !ok {
			acc = &accumulator{earliest: day, latest: day, max: tx.Price}
			byCustomer[tx.CustomerID] = acc
		} else {
			if day.Before(acc.earliest) {
				acc.earliest = day
			}
			if day.After(acc.latest) {
				acc.latest = day
			}
			if tx.Price > acc.max {
				acc.max = tx.Price
			}
		}
		acc.count++
		acc.total += tx.Price
	}

	rows := make([]model.CustomerFeatures, 0, len(byCustomer))
	for id, acc := range byCustomer {
		rows = append(rows, model.CustomerFeatures{
			CustomerID:    id,
			Recency:       daysBetween(ref, acc.latest),
			FirstPurchase: daysBetween(ref, acc.earliest),
			Frequency:     acc.count,
			AvgPurchase:   acc.total / float64(acc.count),
			MaxPurchase:   acc.max,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })

	return rows, nil
}
