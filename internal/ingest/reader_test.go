package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/ltvcast/internal/common"
)

func TestParseFile(t *testing.T) {
	input := `customer_id,order_date,price
760,2015-12-15,30.00
860,2014-06-01,45.50
1300,2009-11-13,22.10
`

	result, err := NewReader(Options{}).ParseFile(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, result.RowsRead)
	assert.Equal(t, 0, result.SkippedIncomplete)
	require.Len(t, result.Transactions, 3)

	tx := result.Transactions[0]
	assert.Equal(t, "760", tx.CustomerID)
	assert.Equal(t, time.Date(2015, 12, 15, 0, 0, 0, 0, time.UTC), tx.OrderDate)
	assert.InDelta(t, 30.0, tx.Price, 1e-9)
	assert.NotEmpty(t, tx.ID)
	assert.NotEmpty(t, tx.Hash)

	// Hashes are unique across distinct rows.
	seen := make(map[string]bool)
	for _, tx := range result.Transactions {
		assert.False(t, seen[tx.Hash], "hash collision for %s", tx.CustomerID)
		seen[tx.Hash] = true
	}
}

func TestParseFileRepeatedRows(t *testing.T) {
	// Two identical rows are two real purchases, not duplicates.
	input := `customer_id,order_date,price
760,2015-12-15,30.00
760,2015-12-15,30.00
`

	first, err := NewReader(Options{}).ParseFile(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	assert.NotEqual(t, first.Transactions[0].Hash, first.Transactions[1].Hash)

	// Re-parsing the same file maps rows to the same hashes, so a
	// re-import stays idempotent.
	second, err := NewReader(Options{}).ParseFile(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, first.Transactions[0].Hash, second.Transactions[0].Hash)
	assert.Equal(t, first.Transactions[1].Hash, second.Transactions[1].Hash)
}

func TestParseFileIncompleteRows(t *testing.T) {
	input := `customer_id,order_date,price
760,2015-12-15,30.00
,2015-12-16,12.00
860,2015-12-17,
990,2015-12-18,55.00
`

	t.Run("skip mode drops and counts", func(t *testing.T) {
		result, err := NewReader(Options{SkipIncomplete: true}).ParseFile(context.Background(), strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 4, result.RowsRead)
		assert.Equal(t, 2, result.SkippedIncomplete)
		require.Len(t, result.Transactions, 2)
		assert.Equal(t, "760", result.Transactions[0].CustomerID)
		assert.Equal(t, "990", result.Transactions[1].CustomerID)
	})

	t.Run("strict mode rejects the batch", func(t *testing.T) {
		_, err := NewReader(Options{}).ParseFile(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrBadRecord)
		assert.Contains(t, err.Error(), "row 3")
	})
}

func TestParseFileMalformedRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name: "unparseable date",
			input: `customer_id,order_date,price
760,not-a-date,30.00
`,
		},
		{
			name: "unparseable price",
			input: `customer_id,order_date,price
760,2015-12-15,lots
`,
		},
		{
			name: "negative price",
			input: `customer_id,order_date,price
760,2015-12-15,-5.00
`,
		},
		{
			name: "ragged row",
			input: `customer_id,order_date,price
760,2015-12-15
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Malformed rows reject the batch even in skip mode.
			_, err := NewReader(Options{SkipIncomplete: true}).ParseFile(context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrBadRecord)
		})
	}
}

func TestParseFileHeaderValidation(t *testing.T) {
	_, err := NewReader(Options{}).ParseFile(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRecord)

	_, err = NewReader(Options{}).ParseFile(context.Background(), strings.NewReader("customer_id,when,price\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"order_date"`)

	result, err := NewReader(Options{}).ParseFile(context.Background(), strings.NewReader("customer_id,order_date,price\n"))
	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
}

func TestParseFileCustomFormat(t *testing.T) {
	input := "id\twhen\tamount\n" +
		"42\t15/06/2015\t19.99\n"

	reader := NewReader(Options{
		CustomerColumn: "id",
		DateColumn:     "when",
		PriceColumn:    "amount",
		DateLayouts:    []string{"02/01/2006"},
		Delimiter:      '\t',
	})

	result, err := reader.ParseFile(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "42", result.Transactions[0].CustomerID)
	assert.Equal(t, time.Date(2015, 6, 15, 0, 0, 0, 0, time.UTC), result.Transactions[0].OrderDate)
}

func TestParseFileExtraColumnsIgnored(t *testing.T) {
	input := `region,customer_id,order_date,price,channel
EU,760,2015-12-15,30.00,web
`

	result, err := NewReader(Options{}).ParseFile(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "760", result.Transactions[0].CustomerID)
}

func TestParseFileContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(Options{}).ParseFile(ctx, strings.NewReader("customer_id,order_date,price\n1,2015-01-01,5\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
