package api

import (
	"fmt"
	"math/big"
	"regexp"

	"github.com/stellarroute/stellarroute/internal/storage/postgres"
)

// bookDepth is the maximum number of price levels per side.
const bookDepth = 20

// pricePrecision is the decimal scale of every rendered amount and
// price, matching the ledger's 7-decimal asset precision.
const pricePrecision = 7

// bookLevel is one aggregated price level. Amounts are in base units;
// Total accumulates from the top of the side.
type bookLevel struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
	Total  string `json:"total"`
}

// ratLevel is a level before rendering.
type ratLevel struct {
	price  *big.Rat
	amount *big.Rat
}

// aggregateLevels folds raw offer rows into at most depth price levels,
// merging rows that share a price. Ask rows are priced counter-per-base
// already; bid rows arrive priced base-per-counter and are inverted for
// display, with their amounts converted into base units. Rows with a
// non-positive price or an unparseable amount are dropped.
func aggregateLevels(rows []postgres.BookOffer, invert bool, depth int) []ratLevel {
	var levels []ratLevel
	for _, row := range rows {
		if row.PriceN <= 0 || row.PriceD <= 0 {
			continue
		}
		amount, ok := new(big.Rat).SetString(row.Amount)
		if !ok || amount.Sign() <= 0 {
			continue
		}

		price := big.NewRat(int64(row.PriceN), int64(row.PriceD))
		if invert {
			amount.Mul(amount, price)
			price = new(big.Rat).Inv(price)
		}

		if n := len(levels); n > 0 && levels[n-1].price.Cmp(price) == 0 {
			levels[n-1].amount.Add(levels[n-1].amount, amount)
			continue
		}
		if len(levels) == depth {
			break
		}
		levels = append(levels, ratLevel{price: price, amount: amount})
	}
	return levels
}

// renderLevels formats levels with cumulative totals. It always returns
// a non-nil slice so empty sides encode as [].
func renderLevels(levels []ratLevel) []bookLevel {
	out := make([]bookLevel, 0, len(levels))
	total := new(big.Rat)
	for _, lv := range levels {
		total.Add(total, lv.amount)
		out = append(out, bookLevel{
			Price:  lv.price.FloatString(pricePrecision),
			Amount: lv.amount.FloatString(pricePrecision),
			Total:  total.FloatString(pricePrecision),
		})
	}
	return out
}

// quoteAsks walks ask rows cheapest-first until want base units are
// covered and returns the counter cost. ok is false when the side is
// too shallow to fill the amount.
func quoteAsks(rows []postgres.BookOffer, want *big.Rat) (*big.Rat, bool) {
	remaining := new(big.Rat).Set(want)
	cost := new(big.Rat)

	for _, row := range rows {
		if row.PriceN <= 0 || row.PriceD <= 0 {
			continue
		}
		amount, ok := new(big.Rat).SetString(row.Amount)
		if !ok || amount.Sign() <= 0 {
			continue
		}
		price := big.NewRat(int64(row.PriceN), int64(row.PriceD))

		take := amount
		if remaining.Cmp(amount) < 0 {
			take = remaining
		}
		cost.Add(cost, new(big.Rat).Mul(take, price))
		remaining.Sub(remaining, take)

		if remaining.Sign() <= 0 {
			return cost, true
		}
	}
	return cost, false
}

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// parsePositiveDecimal accepts plain positive decimal strings such as
// "100" or "100.5". Signs, exponents, and fractions are rejected.
func parsePositiveDecimal(s string) (*big.Rat, error) {
	if !decimalPattern.MatchString(s) {
		return nil, fmt.Errorf("%q is not a plain decimal number", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%q is not a plain decimal number", s)
	}
	if r.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	return r, nil
}
