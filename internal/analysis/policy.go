package analysis

import (
	"fmt"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// Default recency thresholds, in days.
const (
	DefaultColdAfterDays     = 365
	DefaultInactiveAfterDays = 730
)

// Policy assigns a segment from a customer's recency. Implementations
// must be total over recency >= 0 and assign exactly one segment per
// value.
type Policy interface {
	Classify(recencyDays int) model.Segment
	Name() string
}

// RecencyPolicy is the rule-based default policy. Two thresholds split
// recency into three half-open intervals; a recency exactly on a
// threshold belongs to the less engaged bucket.
type RecencyPolicy struct {
	ColdAfterDays     int
	InactiveAfterDays int
}

// NewRecencyPolicy validates that the thresholds are positive and
// strictly increasing.
func NewRecencyPolicy(coldAfterDays, inactiveAfterDays int) (RecencyPolicy, error) {
	if coldAfterDays <= 0 || inactiveAfterDays <= coldAfterDays {
		return RecencyPolicy{}, fmt.Errorf("%w: recency thresholds must satisfy 0 < cold (%d) < inactive (%d)",
			common.ErrInvalidConfig, coldAfterDays, inactiveAfterDays)
	}
	return RecencyPolicy{ColdAfterDays: coldAfterDays, InactiveAfterDays: inactiveAfterDays}, nil
}

// DefaultPolicy returns the standard 365/730 day policy.
func DefaultPolicy() RecencyPolicy {
	return RecencyPolicy{
		ColdAfterDays:     DefaultColdAfterDays,
		InactiveAfterDays: DefaultInactiveAfterDays,
	}
}

// Classify implements Policy.
func (p RecencyPolicy) Classify(recencyDays int) model.Segment {
	switch {
	case recencyDays >= p.InactiveAfterDays:
		return model.SegmentInactive
	case recencyDays >= p.ColdAfterDays:
		return model.SegmentCold
	default:
		return model.SegmentActive
	}
}

// Name identifies the policy in snapshot metadata.
func (p RecencyPolicy) Name() string {
	return fmt.Sprintf("recency:%d/%d", p.ColdAfterDays, p.InactiveAfterDays)
}
