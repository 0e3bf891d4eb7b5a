package model

import "fmt"

// Segment is a recency-based engagement bucket.
type Segment string

// Segment values, ordered least to most engaged.
const (
	SegmentInactive Segment = "inactive"
	SegmentCold     Segment = "cold"
	SegmentActive   Segment = "active"
)

// SegmentOrder is the fixed axis order shared by every transition matrix
// and population vector in the pipeline. Position 0 is the least engaged
// bucket.
var SegmentOrder = []Segment{SegmentInactive, SegmentCold, SegmentActive}

// Index returns the segment's position in SegmentOrder, or -1 when the
// value is not a known segment.
func (s Segment) Index() int {
	for i, seg := range SegmentOrder {
		if s == seg {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known segment values.
func (s Segment) Valid() bool {
	return s.Index() >= 0
}

// Less orders segments from least to most engaged.
func (s Segment) Less(other Segment) bool {
	return s.Index() < other.Index()
}

// ParseSegment maps a stored label to its Segment value.
func ParseSegment(raw string) (Segment, error) {
	s := Segment(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown segment %q", raw)
	}
	return s, nil
}
