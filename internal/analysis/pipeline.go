package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// Pipeline defaults.
const (
	DefaultStepDays     = 365
	DefaultHorizon      = 10
	DefaultDiscountRate = 0.10
)

// PipelineConfig carries the knobs for one full forecast run.
type PipelineConfig struct {
	// AsOf is the destination reference date; the origin snapshot sits
	// StepDays earlier.
	AsOf     time.Time
	Policy   Policy
	StepDays int
	Horizon  int
	// DiscountRate discounts projected revenue per period.
	DiscountRate float64
	// Smoothing is the Laplace alpha applied before normalizing the
	// transition matrix. Zero leaves the empirical rates untouched.
	Smoothing float64
	// AvgSpend overrides the derived per-segment spend vector when set.
	// Must be laid out in SegmentOrder.
	AvgSpend         []float64
	RepurchasersOnly bool
}

// Result bundles everything one pipeline run produces.
type Result struct {
	Config     PipelineConfig
	Origin     *model.Snapshot
	Dest       *model.Snapshot
	Counts     *model.TransitionMatrix
	Probs      *model.StochasticMatrix
	Trajectory *model.Trajectory
	Revenue    *model.RevenueForecast
	Spend      *model.SpendModel
	AvgSpend   []float64
	Warnings   []string
}

// Run executes the full pipeline over a static transaction set: builds
// the origin and destination snapshots one step apart, estimates the
// transition matrices between them, projects the destination population
// forward, prices the trajectory, and fits the spend model. Degenerate
// matrix rows and a skipped spend model surface as warnings, not errors.
func Run(transactions []model.Transaction, cfg PipelineConfig) (*Result, error) {
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.StepDays <= 0 {
		cfg.StepDays = DefaultStepDays
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	if cfg.AsOf.IsZero() {
		return nil, fmt.Errorf("%w: reference date is required", common.ErrInvalidConfig)
	}
	if cfg.Smoothing < 0 {
		return nil, fmt.Errorf("%w: smoothing alpha must be >= 0, got %v", common.ErrInvalidConfig, cfg.Smoothing)
	}
	if len(transactions) == 0 {
		return nil, common.ErrNoTransactions
	}

	destRef := midnight(cfg.AsOf)
	originRef := destRef.AddDate(0, 0, -cfg.StepDays)

	origin, err := BuildSnapshot(transactions, originRef, Window{To: &originRef}, cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to build origin snapshot: %w", err)
	}
	if len(origin.Customers) == 0 {
		return nil, fmt.Errorf("%w: no transactions before %s; transition estimation needs one full step of history",
			common.ErrInsufficientData, originRef.Format("2006-01-02"))
	}

	dest, err := BuildSnapshot(transactions, destRef, Window{To: &destRef}, cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to build destination snapshot: %w", err)
	}

	counts, err := EstimateTransitions(origin, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate transitions: %w", err)
	}
	probs := counts.Normalize(cfg.Smoothing)

	result := &Result{
		Config: cfg,
		Origin: origin,
		Dest:   dest,
		Counts: counts,
		Probs:  probs,
	}
	for _, seg := range probs.DegenerateRows() {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no observed transitions out of segment %q; its matrix row is zero", seg))
	}

	period := Window{From: &originRef, To: &destRef}
	avgSpend := cfg.AvgSpend
	if avgSpend == nil {
		avgSpend = SegmentAvgSpend(dest, transactions, period)
	} else if len(avgSpend) != len(model.SegmentOrder) {
		return nil, fmt.Errorf("%w: avg spend override has %d entries, want %d",
			common.ErrInvalidConfig, len(avgSpend), len(model.SegmentOrder))
	}
	result.AvgSpend = avgSpend

	trajectory, err := Project(dest.PopulationVector(), probs, cfg.Horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to project populations: %w", err)
	}
	result.Trajectory = trajectory

	revenue, err := ForecastRevenue(trajectory, avgSpend, cfg.DiscountRate)
	if err != nil {
		return nil, fmt.Errorf("failed to forecast revenue: %w", err)
	}
	result.Revenue = revenue

	observations := CalibrationSet(origin, transactions, period, cfg.RepurchasersOnly)
	spendModel, err := FitSpendModel(observations, cfg.RepurchasersOnly)
	switch {
	case err == nil:
		result.Spend = spendModel
	case errors.Is(err, common.ErrInsufficientData):
		result.Warnings = append(result.Warnings, fmt.Sprintf("spend model skipped: %v", err))
	default:
		return nil, err
	}

	return result, nil
}
