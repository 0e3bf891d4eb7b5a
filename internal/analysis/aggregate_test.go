package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/ltvcast/internal/common"
	"github.com/cohortlab/ltvcast/internal/model"
)

func testDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func testTx(customer, date string, price float64) model.Transaction {
	return model.Transaction{
		CustomerID: customer,
		OrderDate:  testDate(date),
		Price:      price,
	}
}

func datePtr(s string) *time.Time {
	d := testDate(s)
	return &d
}

func TestAggregateFeatures(t *testing.T) {
	transactions := []model.Transaction{
		testTx("1", "2020-01-01", 100),
		testTx("1", "2021-06-01", 200),
		testTx("2", "2019-01-01", 50),
	}
	referenceDate := testDate("2022-01-01")

	rows, err := AggregateFeatures(transactions, referenceDate, Window{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Sorted by customer id.
	one, two := rows[0], rows[1]
	require.Equal(t, "1", one.CustomerID)
	require.Equal(t, "2", two.CustomerID)

	assert.Equal(t, 214, one.Recency)
	assert.Equal(t, 731, one.FirstPurchase) // 2020 is a leap year
	assert.Equal(t, 2, one.Frequency)
	assert.InDelta(t, 150.0, one.AvgPurchase, 1e-9)
	assert.InDelta(t, 200.0, one.MaxPurchase, 1e-9)

	assert.Equal(t, 1096, two.Recency)
	assert.Equal(t, 1096, two.FirstPurchase)
	assert.Equal(t, 1, two.Frequency)
	assert.InDelta(t, 50.0, two.AvgPurchase, 1e-9)
	assert.InDelta(t, 50.0, two.MaxPurchase, 1e-9)
}

func TestAggregateFeaturesRecencyOrdering(t *testing.T) {
	transactions := []model.Transaction{
		testTx("1", "2014-03-10", 30),
		testTx("1", "2015-08-01", 45),
		testTx("2", "2013-01-15", 20),
		testTx("2", "2013-01-15", 20),
		testTx("3", "2015-12-30", 100),
	}

	rows, err := AggregateFeatures(transactions, testDate("2016-01-01"), Window{})
	require.NoError(t, err)

	for _, row := range rows {
		assert.LessOrEqual(t, row.Recency, row.FirstPurchase,
			"customer %s: recency must never exceed first purchase", row.CustomerID)
	}
}

func TestAggregateFeaturesSingleTransaction(t *testing.T) {
	rows, err := AggregateFeatures([]model.Transaction{
		testTx("42", "2015-06-15", 75),
	}, testDate("2016-01-01"), Window{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, row.Recency, row.FirstPurchase)
	assert.Equal(t, 1, row.Frequency)
	assert.InDelta(t, 75.0, row.AvgPurchase, 1e-9)
	assert.InDelta(t, 75.0, row.MaxPurchase, 1e-9)
}

func TestAggregateFeaturesWindowBounds(t *testing.T) {
	transactions := []model.Transaction{
		testTx("1", "2014-12-31", 10),
		testTx("2", "2015-01-01", 20),
		testTx("3", "2015-06-15", 30),
		testTx("4", "2015-12-31", 40),
		testTx("5", "2016-01-01", 50),
	}

	// Lower bound inclusive, upper bound exclusive.
	rows, err := AggregateFeatures(transactions, testDate("2017-01-01"), Window{
		From: datePtr("2015-01-01"),
		To:   datePtr("2016-01-01"),
	})
	require.NoError(t, err)

	got := make([]string, len(rows))
	for i, row := range rows {
		got[i] = row.CustomerID
	}
	assert.Equal(t, []string{"2", "3", "4"}, got)
}

func TestAggregateFeaturesReferenceDateViolation(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		window    Window
		wantErr   bool
	}{
		{
			name:      "transaction after reference date",
			reference: "2015-06-01",
			wantErr:   true,
		},
		{
			name:      "transaction on reference date",
			reference: "2015-12-30",
			wantErr:   true,
		},
		{
			name:      "violating transaction excluded by window",
			reference: "2015-06-01",
			window:    Window{To: datePtr("2015-06-01")},
			wantErr:   false,
		},
	}

	transactions := []model.Transaction{
		testTx("1", "2015-01-10", 10),
		testTx("1", "2015-12-30", 10),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AggregateFeatures(transactions, testDate(tt.reference), tt.window)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAggregateFeaturesIdempotent(t *testing.T) {
	transactions := []model.Transaction{
		testTx("30", "2013-04-09", 25),
		testTx("10", "2014-11-02", 80),
		testTx("20", "2012-07-21", 15),
		testTx("10", "2012-02-14", 40),
		testTx("30", "2015-09-30", 60),
	}
	referenceDate := testDate("2016-01-01")

	first, err := AggregateFeatures(transactions, referenceDate, Window{})
	require.NoError(t, err)
	second, err := AggregateFeatures(transactions, referenceDate, Window{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Input order must not matter either.
	reversed := make([]model.Transaction, len(transactions))
	for i, tx := range transactions {
		reversed[len(transactions)-1-i] = tx
	}
	third, err := AggregateFeatures(reversed, referenceDate, Window{})
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestAggregateFeaturesEmptyInput(t *testing.T) {
	rows, err := AggregateFeatures(nil, testDate("2016-01-01"), Window{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWindowContains(t *testing.T) {
	window := Window{From: datePtr("2015-01-01"), To: datePtr("2016-01-01")}

	tests := []struct {
		date string
		want bool
	}{
		{"2014-12-31", false},
		{"2015-01-01", true},
		{"2015-07-04", true},
		{"2015-12-31", true},
		{"2016-01-01", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, window.Contains(testDate(tt.date)), "date %s", tt.date)
	}

	open := Window{}
	assert.True(t, open.Contains(testDate("1990-01-01")))
	assert.True(t, open.Contains(testDate("2030-01-01")))
}
