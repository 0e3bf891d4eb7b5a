package model

import "testing"

func TestSegmentOrder(t *testing.T) {
	if len(SegmentOrder) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(SegmentOrder))
	}

	tests := []struct {
		segment Segment
		index   int
	}{
		{SegmentInactive, 0},
		{SegmentCold, 1},
		{SegmentActive, 2},
	}

	for _, tt := range tests {
		if got := tt.segment.Index(); got != tt.index {
			t.Errorf("%s.Index() = %d, want %d", tt.segment, got, tt.index)
		}
	}

	if !SegmentInactive.Less(SegmentCold) || !SegmentCold.Less(SegmentActive) {
		t.Error("segments must order inactive < cold < active")
	}
	if SegmentActive.Less(SegmentInactive) {
		t.Error("active must not order below inactive")
	}
}

func TestParseSegment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Segment
		wantErr bool
	}{
		{name: "inactive", input: "inactive", want: SegmentInactive},
		{name: "cold", input: "cold", want: SegmentCold},
		{name: "active", input: "active", want: SegmentActive},
		{name: "unknown label", input: "dormant", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Active", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSegment(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSegment(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSegment(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSegment(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSegmentValid(t *testing.T) {
	if !SegmentCold.Valid() {
		t.Error("cold should be valid")
	}
	if Segment("lukewarm").Valid() {
		t.Error("unknown segment should be invalid")
	}
}
