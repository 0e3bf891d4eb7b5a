package model

// TransitionMatrix counts customers moving between segments across two
// snapshots of the same population. Rows are origin segments, columns
// destination segments, both in the order of Segments.
type TransitionMatrix struct {
	Segments []Segment
	Counts   [][]int
}

// NewTransitionMatrix returns a zeroed count matrix over segments.
func NewTransitionMatrix(segments []Segment) *TransitionMatrix {
	counts := make([][]int, len(segments))
	for i := range counts {
		counts[i] = make([]int, len(segments))
	}
	return &TransitionMatrix{Segments: segments, Counts: counts}
}

// indexOf returns the axis position of seg, or -1 when seg is not on the
// matrix axes.
func (m *TransitionMatrix) indexOf(seg Segment) int {
	for i, s := range m.Segments {
		if s == seg {
			return i
		}
	}
	return -1
}

// Add records one customer observed moving from origin to dest. It reports
// false when either segment is not on the matrix axes.
func (m *TransitionMatrix) Add(origin, dest Segment) bool {
	i, j := m.indexOf(origin), m.indexOf(dest)
	if i < 0 || j < 0 {
		return false
	}
	m.Counts[i][j]++
	return true
}

// RowSum returns the number of origin customers in row i.
func (m *TransitionMatrix) RowSum(i int) int {
	sum := 0
	for _, n := range m.Counts[i] {
		sum += n
	}
	return sum
}

// Total returns the number of customers counted in the matrix.
func (m *TransitionMatrix) Total() int {
	total := 0
	for i := range m.Counts {
		total += m.RowSum(i)
	}
	return total
}

// Normalize divides each row by its row sum to produce the one-step
// transition operator. When alpha > 0 Laplace smoothing adds alpha to
// every cell before normalizing, flooring sparse rows. A row whose count
// sum is zero (and alpha is zero) becomes an all-zero probability row so
// downstream multiplication stays well-formed; such rows are listed in
// the result's Degenerate slice.
func (m *TransitionMatrix) Normalize(alpha float64) *StochasticMatrix {
	n := len(m.Segments)
	probs := make([][]float64, n)
	var degenerate []Segment

	for i := 0; i < n; i++ {
		probs[i] = make([]float64, n)
		rowSum := float64(m.RowSum(i)) + alpha*float64(n)
		if rowSum == 0 {
			degenerate = append(degenerate, m.Segments[i])
			continue
		}
		for j := 0; j < n; j++ {
			probs[i][j] = (float64(m.Counts[i][j]) + alpha) / rowSum
		}
	}

	return &StochasticMatrix{
		Segments:   m.Segments,
		Probs:      probs,
		Degenerate: degenerate,
		Alpha:      alpha,
	}
}

// StochasticMatrix is the row-normalized transition operator derived from
// a TransitionMatrix. Every row sums to 1 except rows listed in Degenerate,
// which are all zero.
type StochasticMatrix struct {
	Segments   []Segment
	Probs      [][]float64
	Degenerate []Segment
	Alpha      float64
}

// RowSum returns the probability mass in row i.
func (m *StochasticMatrix) RowSum(i int) float64 {
	sum := 0.0
	for _, p := range m.Probs[i] {
		sum += p
	}
	return sum
}

// DegenerateRows returns the origin segments that had no observations.
func (m *StochasticMatrix) DegenerateRows() []Segment {
	return m.Degenerate
}
