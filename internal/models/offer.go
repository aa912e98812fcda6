package models

import (
	"strconv"
	"strings"
	"time"
)

// Offer is the canonical representation of an open SDEX offer. Amount and
// Price keep the decimal strings Horizon supplied; PriceN/PriceD carry the
// exact rational price with PriceD > 0.
type Offer struct {
	ID                 uint64
	Seller             string
	Selling            Asset
	Buying             Asset
	Amount             string
	Price              string
	PriceN             int32
	PriceD             int32
	LastModifiedLedger uint32
	LastModifiedTime   *time.Time
}

// ParseOffer converts a wire offer into an Offer, enforcing the model
// invariants. Any rejection is a *ParseError; the caller skips the record.
func ParseOffer(h HorizonOffer) (Offer, error) {
	id, err := strconv.ParseUint(h.ID, 10, 64)
	if err != nil {
		return Offer{}, newParseError("id", "not an unsigned integer: "+h.ID, err)
	}

	selling, err := h.Selling.ToAsset()
	if err != nil {
		return Offer{}, newParseError("selling", "invalid asset", err)
	}
	buying, err := h.Buying.ToAsset()
	if err != nil {
		return Offer{}, newParseError("buying", "invalid asset", err)
	}
	if selling == buying {
		return Offer{}, newParseError("buying", "selling and buying assets are identical", nil)
	}

	priceN, priceD, err := resolvePrice(h.PriceR, h.Price)
	if err != nil {
		return Offer{}, err
	}

	return Offer{
		ID:                 id,
		Seller:             h.Seller,
		Selling:            selling,
		Buying:             buying,
		Amount:             h.Amount,
		Price:              h.Price,
		PriceN:             priceN,
		PriceD:             priceD,
		LastModifiedLedger: h.LastModifiedLedger,
		LastModifiedTime:   h.LastModifiedTime,
	}, nil
}

// resolvePrice yields the rational price. price_r wins when present;
// otherwise the price string is reconstructed as "N/D" or a bare integer
// numerator over 1. Decimal price strings without price_r are rejected
// rather than approximated.
func resolvePrice(r *PriceRatio, price string) (int32, int32, error) {
	var n, d int32
	switch {
	case r != nil:
		n, d = r.N, r.D
	case strings.Contains(price, "/"):
		parts := strings.SplitN(price, "/", 2)
		pn, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			return 0, 0, newParseError("price", "bad numerator in "+price, err)
		}
		pd, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return 0, 0, newParseError("price", "bad denominator in "+price, err)
		}
		n, d = int32(pn), int32(pd)
	default:
		pn, err := strconv.ParseInt(strings.TrimSpace(price), 10, 32)
		if err != nil {
			return 0, 0, newParseError("price", "no price_r and price is not integral: "+price, err)
		}
		n, d = int32(pn), 1
	}

	if d <= 0 {
		return 0, 0, newParseError("price_r", "denominator must be positive, got "+strconv.Itoa(int(d)), nil)
	}
	if n < 0 {
		return 0, 0, newParseError("price_r", "numerator must be non-negative, got "+strconv.Itoa(int(n)), nil)
	}
	return n, d, nil
}
