package model

import (
	"math"
	"testing"
)

func TestTransitionMatrixAdd(t *testing.T) {
	m := NewTransitionMatrix(SegmentOrder)

	if !m.Add(SegmentActive, SegmentActive) {
		t.Fatal("Add with known segments should succeed")
	}
	if !m.Add(SegmentActive, SegmentCold) {
		t.Fatal("Add with known segments should succeed")
	}
	if m.Add(Segment("lukewarm"), SegmentActive) {
		t.Error("Add with unknown origin should report false")
	}
	if m.Add(SegmentActive, Segment("lukewarm")) {
		t.Error("Add with unknown destination should report false")
	}

	activeRow := SegmentActive.Index()
	if got := m.RowSum(activeRow); got != 2 {
		t.Errorf("RowSum(active) = %d, want 2", got)
	}
	if got := m.Total(); got != 2 {
		t.Errorf("Total() = %d, want 2", got)
	}
	if got := m.Counts[activeRow][SegmentCold.Index()]; got != 1 {
		t.Errorf("active->cold count = %d, want 1", got)
	}
}

func TestNormalizeRowStochastic(t *testing.T) {
	m := NewTransitionMatrix(SegmentOrder)
	// Uneven counts so no row normalizes to trivially round numbers.
	for range [7]struct{}{} {
		m.Add(SegmentInactive, SegmentInactive)
	}
	m.Add(SegmentInactive, SegmentActive)
	for range [3]struct{}{} {
		m.Add(SegmentCold, SegmentInactive)
	}
	m.Add(SegmentCold, SegmentCold)
	m.Add(SegmentCold, SegmentActive)
	m.Add(SegmentActive, SegmentCold)
	m.Add(SegmentActive, SegmentActive)

	p := m.Normalize(0)

	if len(p.Degenerate) != 0 {
		t.Fatalf("expected no degenerate rows, got %v", p.Degenerate)
	}
	for i := range p.Probs {
		if diff := math.Abs(p.RowSum(i) - 1.0); diff > 1e-9 {
			t.Errorf("row %d sums to %.12f, want 1.0", i, p.RowSum(i))
		}
	}

	wantInactiveSelf := 7.0 / 8.0
	if got := p.Probs[SegmentInactive.Index()][SegmentInactive.Index()]; math.Abs(got-wantInactiveSelf) > 1e-12 {
		t.Errorf("inactive->inactive = %v, want %v", got, wantInactiveSelf)
	}
}

func TestNormalizeZeroRow(t *testing.T) {
	m := NewTransitionMatrix(SegmentOrder)
	m.Add(SegmentActive, SegmentActive)
	m.Add(SegmentCold, SegmentActive)

	p := m.Normalize(0)

	inactiveRow := SegmentInactive.Index()
	for j, prob := range p.Probs[inactiveRow] {
		if prob != 0 {
			t.Errorf("zero-count row should stay zero, got Probs[%d][%d]=%v", inactiveRow, j, prob)
		}
	}
	if len(p.DegenerateRows()) != 1 || p.DegenerateRows()[0] != SegmentInactive {
		t.Errorf("DegenerateRows() = %v, want [inactive]", p.DegenerateRows())
	}
}

func TestNormalizeLaplaceSmoothing(t *testing.T) {
	m := NewTransitionMatrix(SegmentOrder)
	m.Add(SegmentActive, SegmentActive)

	p := m.Normalize(1)

	// Smoothing floors every cell, including rows with no observations.
	if len(p.Degenerate) != 0 {
		t.Fatalf("smoothed matrix should have no degenerate rows, got %v", p.Degenerate)
	}
	for i := range p.Probs {
		if diff := math.Abs(p.RowSum(i) - 1.0); diff > 1e-9 {
			t.Errorf("row %d sums to %.12f, want 1.0", i, p.RowSum(i))
		}
		for j, prob := range p.Probs[i] {
			if prob <= 0 {
				t.Errorf("smoothed Probs[%d][%d] = %v, want > 0", i, j, prob)
			}
		}
	}

	// One observation plus alpha=1: the observed cell gets (1+1)/(1+3).
	activeRow := SegmentActive.Index()
	if got, want := p.Probs[activeRow][activeRow], 0.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("active->active = %v, want %v", got, want)
	}
}
