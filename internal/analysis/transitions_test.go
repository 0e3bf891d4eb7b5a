package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

// transitionFixture covers every segment move a one-year step permits,
// including the rare inactive -> active reactivation.
func transitionFixture() []model.Transaction {
	return []model.Transaction{
		// A: active at origin, purchases again -> active at dest.
		testTx("A", "2014-03-01", 10),
		testTx("A", "2014-06-01", 30),
		testTx("A", "2015-07-01", 35),
		// B: active at origin, goes quiet -> cold at dest.
		testTx("B", "2014-02-01", 50),
		// C: cold at origin, reactivates -> active at dest.
		testTx("C", "2013-06-01", 20),
		testTx("C", "2015-12-01", 25),
		// D: cold at origin, stays quiet -> inactive at dest.
		testTx("D", "2012-10-01", 80),
		testTx("D", "2013-03-01", 40),
		// E: inactive at origin, stays quiet -> inactive at dest.
		testTx("E", "2011-01-01", 60),
		// F: inactive at origin, reactivates -> active at dest.
		testTx("F", "2012-01-01", 15),
		testTx("F", "2015-06-15", 90),
		// G: first purchase during 2015; present only in dest.
		testTx("G", "2015-03-01", 70),
	}
}

func buildFixtureSnapshots(t *testing.T) (*model.Snapshot, *model.Snapshot) {
	t.Helper()

	transactions := transitionFixture()
	originRef := testDate("2015-01-01")
	destRef := testDate("2016-01-01")

	origin, err := BuildSnapshot(transactions, originRef, Window{To: &originRef}, DefaultPolicy())
	require.NoError(t, err)
	dest, err := BuildSnapshot(transactions, destRef, Window{To: &destRef}, DefaultPolicy())
	require.NoError(t, err)

	return origin, dest
}

func TestEstimateTransitions(t *testing.T) {
	origin, dest := buildFixtureSnapshots(t)
	require.Len(t, origin.Customers, 6)
	require.Len(t, dest.Customers, 7) // G joins the population in 2015

	counts, err := EstimateTransitions(origin, dest)
	require.NoError(t, err)

	inactive := model.SegmentInactive.Index()
	cold := model.SegmentCold.Index()
	active := model.SegmentActive.Index()

	assert.Equal(t, 1, counts.Counts[active][active], "A stays active")
	assert.Equal(t, 1, counts.Counts[active][cold], "B cools off")
	assert.Equal(t, 1, counts.Counts[cold][active], "C reactivates")
	assert.Equal(t, 1, counts.Counts[cold][inactive], "D lapses")
	assert.Equal(t, 1, counts.Counts[inactive][inactive], "E stays inactive")
	assert.Equal(t, 1, counts.Counts[inactive][active], "F reactivates")

	assert.Equal(t, 0, counts.Counts[active][inactive], "active cannot lapse to inactive in one year")
	assert.Equal(t, 0, counts.Counts[cold][cold])
	assert.Equal(t, 0, counts.Counts[inactive][cold])

	// Left-join completeness: every origin customer appears exactly once.
	assert.Equal(t, len(origin.Customers), counts.Total())
}

func TestEstimateTransitionsOrderIndependent(t *testing.T) {
	origin, dest := buildFixtureSnapshots(t)

	baseline, err := EstimateTransitions(origin, dest)
	require.NoError(t, err)

	reversed := &model.Snapshot{
		ReferenceDate: origin.ReferenceDate,
		Customers:     make([]model.SegmentedCustomer, len(origin.Customers)),
	}
	for i, c := range origin.Customers {
		reversed.Customers[len(origin.Customers)-1-i] = c
	}

	shuffled, err := EstimateTransitions(reversed, dest)
	require.NoError(t, err)
	assert.Equal(t, baseline.Counts, shuffled.Counts)
}

func TestEstimateTransitionsMissingCustomer(t *testing.T) {
	origin := &model.Snapshot{
		ReferenceDate: testDate("2015-01-01"),
		Customers: []model.SegmentedCustomer{
			{Features: model.CustomerFeatures{CustomerID: "1", Recency: 100}, Segment: model.SegmentActive},
			{Features: model.CustomerFeatures{CustomerID: "2", Recency: 400}, Segment: model.SegmentCold},
		},
	}
	dest := &model.Snapshot{
		ReferenceDate: testDate("2016-01-01"),
		Customers: []model.SegmentedCustomer{
			{Features: model.CustomerFeatures{CustomerID: "1", Recency: 465}, Segment: model.SegmentCold},
		},
	}

	_, err := EstimateTransitions(origin, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "customer 2")
}

func TestEstimateTransitionsValidation(t *testing.T) {
	snapshot := &model.Snapshot{ReferenceDate: testDate("2015-01-01")}

	_, err := EstimateTransitions(nil, snapshot)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = EstimateTransitions(snapshot, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	// Origin must strictly precede destination.
	same := &model.Snapshot{ReferenceDate: testDate("2015-01-01")}
	_, err = EstimateTransitions(snapshot, same)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestNoActiveToInactiveInOneAnnualStep(t *testing.T) {
	// Customers active at the origin with recencies spread over the whole
	// active range; roughly half purchase again during the year.
	var transactions []model.Transaction
	originRef := testDate("2015-01-01")
	destRef := testDate("2016-01-01")

	for r := 1; r < 365; r += 7 {
		id := fmt.Sprintf("c%03d", r)
		transactions = append(transactions, model.Transaction{
			CustomerID: id,
			OrderDate:  originRef.AddDate(0, 0, -r),
			Price:      10,
		})
		if r%2 == 0 {
			transactions = append(transactions, model.Transaction{
				CustomerID: id,
				OrderDate:  originRef.AddDate(0, 0, 180),
				Price:      20,
			})
		}
	}

	origin, err := BuildSnapshot(transactions, originRef, Window{To: &originRef}, DefaultPolicy())
	require.NoError(t, err)
	dest, err := BuildSnapshot(transactions, destRef, Window{To: &destRef}, DefaultPolicy())
	require.NoError(t, err)

	for _, c := range origin.Customers {
		require.Equal(t, model.SegmentActive, c.Segment)
	}

	counts, err := EstimateTransitions(origin, dest)
	require.NoError(t, err)

	active := model.SegmentActive.Index()
	inactive := model.SegmentInactive.Index()
	assert.Equal(t, 0, counts.Counts[active][inactive],
		"recency grows at most ~365 days per year, so active cannot reach inactive in one step")
	assert.Equal(t, len(origin.Customers), counts.Total())
}

func TestEstimateTransitionsNormalizeIntegration(t *testing.T) {
	origin, dest := buildFixtureSnapshots(t)

	counts, err := EstimateTransitions(origin, dest)
	require.NoError(t, err)

	probs := counts.Normalize(0)
	require.Empty(t, probs.DegenerateRows())
	for i := range probs.Probs {
		assert.InDelta(t, 1.0, probs.RowSum(i), 1e-9, "row %d", i)
	}

	active := model.SegmentActive.Index()
	cold := model.SegmentCold.Index()
	assert.InDelta(t, 0.5, probs.Probs[active][active], 1e-9)
	assert.InDelta(t, 0.5, probs.Probs[active][cold], 1e-9)
}
