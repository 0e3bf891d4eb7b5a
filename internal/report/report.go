// Package report assembles pipeline results into a document that can be
// rendered on the terminal or exported to CSV, JSON, and Google Sheets.
package report

import (
	"time"

	"github.com/cohortlab/ltvcast/internal/analysis"
	"github.com/cohortlab/ltvcast/internal/model"
)

// Report is the export shape of one full forecast run. Every section is
// plain data so the renderers and exporters stay dumb.
type Report struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	OriginDate   time.Time          `json:"origin_date"`
	AsOf         time.Time          `json:"as_of"`
	Spend        *SpendSection      `json:"spend_model,omitempty"`
	Segments     []model.Segment    `json:"segments"`
	Origin       SnapshotSummary    `json:"origin"`
	Dest         SnapshotSummary    `json:"destination"`
	Customers    []CustomerRow      `json:"customers"`
	Transitions  TransitionSection  `json:"transitions"`
	Forecast     ForecastSection    `json:"forecast"`
	Warnings     []string           `json:"warnings,omitempty"`
	StepDays     int                `json:"step_days"`
	Horizon      int                `json:"horizon"`
	DiscountRate float64            `json:"discount_rate"`
}

// SegmentSummary aggregates one segment of a snapshot.
type SegmentSummary struct {
	Segment         model.Segment `json:"segment"`
	Customers       int           `json:"customers"`
	MeanRecency     float64       `json:"mean_recency"`
	MeanFrequency   float64       `json:"mean_frequency"`
	MeanAvgPurchase float64       `json:"mean_avg_purchase"`
}

// SnapshotSummary describes one snapshot at the segment level.
type SnapshotSummary struct {
	ReferenceDate time.Time        `json:"reference_date"`
	Policy        string           `json:"policy"`
	Segments      []SegmentSummary `json:"segments"`
	Total         int              `json:"total"`
}

// CustomerRow is one customer of the destination snapshot.
type CustomerRow struct {
	CustomerID    string        `json:"customer_id"`
	Segment       model.Segment `json:"segment"`
	Recency       int           `json:"recency"`
	FirstPurchase int           `json:"first_purchase"`
	Frequency     int           `json:"frequency"`
	AvgPurchase   float64       `json:"avg_purchase"`
	MaxPurchase   float64       `json:"max_purchase"`
}

// TransitionSection carries the estimated matrices.
type TransitionSection struct {
	Counts     [][]int         `json:"counts"`
	Probs      [][]float64     `json:"probabilities"`
	Degenerate []model.Segment `json:"degenerate_rows,omitempty"`
	Smoothing  float64         `json:"smoothing"`
	Observed   int             `json:"observed"`
}

// ForecastSection carries the projected populations and priced trajectory.
type ForecastSection struct {
	Populations     [][]float64 `json:"populations"`
	AvgSpend        []float64   `json:"avg_spend"`
	Gross           []float64   `json:"gross_revenue"`
	Discounts       []float64   `json:"discount_factors"`
	Discounted      []float64   `json:"discounted_revenue"`
	TotalDiscounted float64     `json:"total_discounted"`
}

// SpendSection summarizes the fitted spend model.
type SpendSection struct {
	Intercept        float64 `json:"intercept"`
	AvgPurchaseCoef  float64 `json:"avg_purchase_coef"`
	MaxPurchaseCoef  float64 `json:"max_purchase_coef"`
	R2               float64 `json:"r_squared"`
	ResidualStdErr   float64 `json:"residual_std_err"`
	N                int     `json:"n"`
	RepurchasersOnly bool    `json:"repurchasers_only"`
}

// Build assembles the report document from a pipeline result.
func Build(result *analysis.Result) *Report {
	r := &Report{
		GeneratedAt:  time.Now().UTC(),
		OriginDate:   result.Origin.ReferenceDate,
		AsOf:         result.Dest.ReferenceDate,
		StepDays:     result.Config.StepDays,
		Horizon:      result.Config.Horizon,
		DiscountRate: result.Config.DiscountRate,
		Segments:     append([]model.Segment(nil), model.SegmentOrder...),
		Origin:       Summarize(result.Origin),
		Dest:         Summarize(result.Dest),
		Customers:    customerRows(result.Dest),
		Transitions: TransitionSection{
			Counts:     result.Counts.Counts,
			Probs:      result.Probs.Probs,
			Degenerate: result.Probs.DegenerateRows(),
			Smoothing:  result.Probs.Alpha,
			Observed:   result.Counts.Total(),
		},
		Forecast: ForecastSection{
			Populations:     result.Trajectory.Populations,
			AvgSpend:        result.AvgSpend,
			Gross:           result.Revenue.Gross,
			Discounts:       result.Revenue.Discounts,
			Discounted:      result.Revenue.Discounted,
			TotalDiscounted: result.Revenue.Total,
		},
		Warnings: result.Warnings,
	}

	if result.Spend != nil {
		r.Spend = &SpendSection{
			Intercept:        result.Spend.Intercept,
			AvgPurchaseCoef:  result.Spend.AvgPurchaseCoef,
			MaxPurchaseCoef:  result.Spend.MaxPurchaseCoef,
			R2:               result.Spend.R2,
			ResidualStdErr:   result.Spend.ResidualStdErr,
			N:                result.Spend.N,
			RepurchasersOnly: result.Spend.RepurchasersOnly,
		}
	}

	return r
}

// Summarize reduces a snapshot to its per-segment summary.
func Summarize(snapshot *model.Snapshot) SnapshotSummary {
	summary := SnapshotSummary{
		ReferenceDate: snapshot.ReferenceDate,
		Policy:        snapshot.Policy,
		Total:         len(snapshot.Customers),
		Segments:      make([]SegmentSummary, len(model.SegmentOrder)),
	}

	for i, seg := range model.SegmentOrder {
		summary.Segments[i] = SegmentSummary{Segment: seg}
	}

	for _, c := range snapshot.Customers {
		i := c.Segment.Index()
		if i < 0 {
			continue
		}
		s := &summary.Segments[i]
		s.Customers++
		s.MeanRecency += float64(c.Features.Recency)
		s.MeanFrequency += float64(c.Features.Frequency)
		s.MeanAvgPurchase += c.Features.AvgPurchase
	}

	for i := range summary.Segments {
		s := &summary.Segments[i]
		if s.Customers == 0 {
			continue
		}
		n := float64(s.Customers)
		s.MeanRecency /= n
		s.MeanFrequency /= n
		s.MeanAvgPurchase /= n
	}

	return summary
}

func customerRows(snapshot *model.Snapshot) []CustomerRow {
	rows := make([]CustomerRow, 0, len(snapshot.Customers))
	for _, c := range snapshot.Customers {
		rows = append(rows, CustomerRow{
			CustomerID:    c.Features.CustomerID,
			Segment:       c.Segment,
			Recency:       c.Features.Recency,
			FirstPurchase: c.Features.FirstPurchase,
			Frequency:     c.Features.Frequency,
			AvgPurchase:   c.Features.AvgPurchase,
			MaxPurchase:   c.Features.MaxPurchase,
		})
	}
	return rows
}
