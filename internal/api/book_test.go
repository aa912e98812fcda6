package api

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarroute/stellarroute/internal/storage/postgres"
)

func bookRow(amount string, n, d int32) postgres.BookOffer {
	return postgres.BookOffer{
		Amount: amount,
		PriceN: n,
		PriceD: d,
		Price:  fmt.Sprintf("%d/%d", n, d),
	}
}

func TestAggregateAskLevels(t *testing.T) {
	rows := []postgres.BookOffer{
		bookRow("100.0000000", 3, 2),
		bookRow("50.0000000", 3, 2),
		bookRow("10.0000000", 2, 1),
	}

	levels := renderLevels(aggregateLevels(rows, false, bookDepth))
	require.Len(t, levels, 2)

	assert.Equal(t, "1.5000000", levels[0].Price)
	assert.Equal(t, "150.0000000", levels[0].Amount)
	assert.Equal(t, "150.0000000", levels[0].Total)

	assert.Equal(t, "2.0000000", levels[1].Price)
	assert.Equal(t, "10.0000000", levels[1].Amount)
	assert.Equal(t, "160.0000000", levels[1].Total)
}

func TestAggregateBidLevelsInverts(t *testing.T) {
	// A bid-side row sells the counter asset: its stored price is base
	// per counter. Display price is the inverse; the amount converts
	// into base units through the same ratio.
	rows := []postgres.BookOffer{bookRow("30.0000000", 3, 2)}

	levels := renderLevels(aggregateLevels(rows, true, bookDepth))
	require.Len(t, levels, 1)

	assert.Equal(t, "0.6666667", levels[0].Price)
	assert.Equal(t, "45.0000000", levels[0].Amount)
	assert.Equal(t, "45.0000000", levels[0].Total)
}

func TestAggregateLevelsDepthCap(t *testing.T) {
	var rows []postgres.BookOffer
	for i := int32(1); i <= 30; i++ {
		rows = append(rows, bookRow("1.0000000", i, 1))
	}

	levels := aggregateLevels(rows, false, bookDepth)
	assert.Len(t, levels, bookDepth)
}

func TestAggregateLevelsDropsGarbageRows(t *testing.T) {
	rows := []postgres.BookOffer{
		bookRow("100.0000000", 0, 1),  // zero price
		bookRow("100.0000000", 3, 0),  // zero denominator
		bookRow("not-a-number", 3, 2), // unparseable amount
		bookRow("0.0000000", 3, 2),    // zero amount
		bookRow("25.0000000", 3, 2),
	}

	levels := renderLevels(aggregateLevels(rows, false, bookDepth))
	require.Len(t, levels, 1)
	assert.Equal(t, "25.0000000", levels[0].Amount)
}

func TestRenderLevelsEmptySideEncodesAsEmptySlice(t *testing.T) {
	levels := renderLevels(nil)
	require.NotNil(t, levels)
	assert.Empty(t, levels)
}

func TestQuoteAsksWalksCheapestFirst(t *testing.T) {
	rows := []postgres.BookOffer{
		bookRow("100.0000000", 1, 1),
		bookRow("100.0000000", 2, 1),
	}

	// 100 at price 1 plus 50 at price 2.
	cost, ok := quoteAsks(rows, big.NewRat(150, 1))
	require.True(t, ok)
	assert.Equal(t, "200.0000000", cost.FloatString(7))
}

func TestQuoteAsksExactDepth(t *testing.T) {
	rows := []postgres.BookOffer{
		bookRow("100.0000000", 1, 1),
		bookRow("100.0000000", 2, 1),
	}

	cost, ok := quoteAsks(rows, big.NewRat(200, 1))
	require.True(t, ok)
	assert.Equal(t, "300.0000000", cost.FloatString(7))
}

func TestQuoteAsksInsufficientDepth(t *testing.T) {
	rows := []postgres.BookOffer{bookRow("100.0000000", 1, 1)}

	_, ok := quoteAsks(rows, big.NewRat(101, 1))
	assert.False(t, ok)
}

func TestQuoteAsksPartialFirstLevel(t *testing.T) {
	rows := []postgres.BookOffer{bookRow("100.0000000", 3, 2)}

	cost, ok := quoteAsks(rows, big.NewRat(10, 1))
	require.True(t, ok)
	assert.Equal(t, "15.0000000", cost.FloatString(7))
}

func TestParsePositiveDecimal(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"100", true},
		{"100.5", true},
		{"0.0000001", true},
		{"0", false},
		{"0.0", false},
		{"-5", false},
		{"+5", false},
		{"1e5", false},
		{"1/2", false},
		{".5", false},
		{"5.", false},
		{"abc", false},
		{"", false},
		{"100 ", false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r, err := parsePositiveDecimal(tc.in)
			if tc.ok {
				require.NoError(t, err)
				assert.Positive(t, r.Sign())
			} else {
				assert.Error(t, err)
			}
		})
	}
}
