package model

// Trajectory is the projected segment-population path. Populations[0] is
// the observed base period; Populations[k] is the population vector after
// k applications of the transition operator. Vectors are laid out in the
// order of Segments. Read-only downstream of the projector.
type Trajectory struct {
	Segments    []Segment
	Populations [][]float64
}

// Horizon returns the number of projected future periods.
func (t *Trajectory) Horizon() int {
	if len(t.Populations) == 0 {
		return 0
	}
	return len(t.Populations) - 1
}

// Final returns the population vector of the last projected period.
func (t *Trajectory) Final() []float64 {
	if len(t.Populations) == 0 {
		return nil
	}
	return t.Populations[len(t.Populations)-1]
}

// RevenueForecast prices a trajectory: gross revenue per period from a
// per-segment average-spend vector, the discount schedule applied to it,
// and the cumulative discounted total. All slices are period-aligned with
// the trajectory that produced them.
type RevenueForecast struct {
	AvgSpend   []float64
	Gross      []float64
	Discounts  []float64
	Discounted []float64
	Rate       float64
	Total      float64
}
