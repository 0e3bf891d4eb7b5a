package analysis

import (
	"fmt"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// Project applies the transition operator to v0 for horizon periods and
// returns the full trajectory [v0 ... v_horizon], not just the terminal
// vector. Each step computes v_k[j] = sum_i v_{k-1}[i] * P[i][j], the
// left multiplication of a row vector by a row-stochastic matrix. The
// matrices here are three by three; plain nested loops beat pulling in a
// linear-algebra dependency for this step.
func Project(v0 []float64, p *model.StochasticMatrix, horizon int) (*model.Trajectory, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: transition matrix is required", common.ErrInvalidConfig)
	}
	n := len(p.Segments)
	if len(v0) != n {
		return nil, fmt.Errorf("%w: population vector has %d entries, matrix expects %d",
			common.ErrInvalidConfig, len(v0), n)
	}
	for i := range p.Probs {
		if len(p.Probs[i]) != n {
			return nil, fmt.Errorf("%w: matrix row %d has %d columns, want %d",
				common.ErrInvalidConfig, i, len(p.Probs[i]), n)
		}
	}
	if horizon < 0 {
		return nil, fmt.Errorf("%w: horizon must be >= 0, got %d", common.ErrInvalidConfig, horizon)
	}

	populations := make([][]float64, horizon+1)
	populations[0] = append([]float64(nil), v0...)

	for k := 1; k <= horizon; k++ {
		prev := populations[k-1]
		next := make([]float64, n)
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				next[j] += prev[i] * p.Probs[i][j]
			}
		}
		populations[k] = next
	}

	return &model.Trajectory{Segments: p.Segments, Populations: populations}, nil
}

// RevenueSchedule converts a population trajectory to gross revenue per
// period using a per-segment average-spend vector in the trajectory's
// segment order.
func RevenueSchedule(trajectory *model.Trajectory, avgSpend []float64) ([]float64, error) {
	if trajectory == nil {
		return nil, fmt.Errorf("%w: trajectory is required", common.ErrInvalidConfig)
	}
	if len(avgSpend) != len(trajectory.Segments) {
		return nil, fmt.Errorf("%w: avg spend vector has %d entries, trajectory has %d segments",
			common.ErrInvalidConfig, len(avgSpend), len(trajectory.Segments))
	}

	schedule := make([]float64, len(trajectory.Populations))
	for k, population := range trajectory.Populations {
		for s, count := range population {
			schedule[k] += count * avgSpend[s]
		}
	}
	return schedule, nil
}

// DiscountFactors returns the schedule d_k = 1/(1+rate)^k for periods
// 0..horizon. d_0 is always 1: the base period is never discounted.
func DiscountFactors(rate float64, horizon int) []float64 {
	factors := make([]float64, horizon+1)
	factors[0] = 1
	for k := 1; k <= horizon; k++ {
		factors[k] = factors[k-1] / (1 + rate)
	}
	return factors
}

// PresentValue multiplies a revenue schedule by its period-aligned
// discount factors and returns the per-period discounted revenue plus
// the cumulative total. The schedules must be the same length.
func PresentValue(revenue, discounts []float64) ([]float64, float64, error) {
	if len(revenue) != len(discounts) {
		return nil, 0, fmt.Errorf("%w: revenue has %d periods, discount schedule has %d",
			common.ErrInvalidConfig, len(revenue), len(discounts))
	}

	discounted := make([]float64, len(revenue))
	total := 0.0
	for k := range revenue {
		discounted[k] = revenue[k] * discounts[k]
		total += discounted[k]
	}
	return discounted, total, nil
}

// ForecastRevenue prices a trajectory end to end: gross revenue per
// period, the discount schedule at rate, discounted revenue, and the
// cumulative total.
func ForecastRevenue(trajectory *model.Trajectory, avgSpend []float64, rate float64) (*model.RevenueForecast, error) {
	if rate <= -1 {
		return nil, fmt.Errorf("%w: discount rate must be greater than -1, got %v", common.ErrInvalidConfig, rate)
	}

	gross, err := RevenueSchedule(trajectory, avgSpend)
	if err != nil {
		return nil, err
	}

	discounts := DiscountFactors(rate, trajectory.Horizon())
	discounted, total, err := PresentValue(gross, discounts)
	if err != nil {
		return nil, err
	}

	return &model.RevenueForecast{
		AvgSpend:   append([]float64(nil), avgSpend...),
		Gross:      gross,
		Discounts:  discounts,
		Discounted: discounted,
		Rate:       rate,
		Total:      total,
	}, nil
}
