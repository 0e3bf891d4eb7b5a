package analysis

import (
	"fmt"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// EstimateTransitions joins two snapshots of the same population by
// customer id and counts segment moves. The join is a left join on the
// origin snapshot: every origin customer lands in the matrix exactly
// once, including customers who made no purchase between the two
// reference dates. An inner join would bias the matrix toward customers
// who purchased again.
//
// The destination snapshot must be computed from the full transaction
// history at the later reference date, so it covers every origin
// customer; an origin customer missing from it means the snapshots are
// inconsistent and no partial result is returned.
func EstimateTransitions(origin, dest *model.Snapshot) (*model.TransitionMatrix, error) {
	if origin == nil || dest == nil {
		return nil, fmt.Errorf("%w: both snapshots are required", common.ErrInvalidConfig)
	}
	if !origin.ReferenceDate.Before(dest.ReferenceDate) {
		return nil, fmt.Errorf("%w: origin reference date %s must precede destination reference date %s",
			common.ErrInvalidConfig,
			origin.ReferenceDate.Format("2006-01-02"),
			dest.ReferenceDate.Format("2006-01-02"))
	}

	destIndex := dest.ByCustomer()
	matrix := model.NewTransitionMatrix(model.SegmentOrder)

	for _, from := range origin.Customers {
		to, ok := destIndex[from.Features.CustomerID]
		if !ok {
			return nil, fmt.Errorf("%w: customer %s present at %s is missing from the %s snapshot",
				common.ErrInvalidConfig,
				from.Features.CustomerID,
				origin.ReferenceDate.Format("2006-01-02"),
				dest.ReferenceDate.Format("2006-01-02"))
		}
		if !matrix.Add(from.Segment, to.Segment) {
			return nil, fmt.Errorf("%w: segment %q is not on the matrix axes",
				common.ErrInvalidConfig, from.Segment)
		}
	}

	return matrix, nil
}
