package api

import (
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/stellarroute/stellarroute/internal/cache"
	"github.com/stellarroute/stellarroute/internal/models"
)

// Component states rendered by the health endpoint.
const (
	componentConnected = "connected"
	componentDisabled  = "disabled"
	componentError     = "error"
)

type healthComponents struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

type healthResponse struct {
	Status     string           `json:"status"`
	Version    string           `json:"version"`
	Timestamp  string           `json:"timestamp"`
	Components healthComponents `json:"components"`
}

// handleHealth reports process liveness and component reachability. A
// database failure degrades the status; Redis being absent does not,
// because the API is designed to run without it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := healthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Components: healthComponents{
			Database: componentConnected,
			Redis:    componentDisabled,
		},
	}

	if err := s.store.HealthCheck(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components.Database = componentError
	}

	if s.cache.Enabled() {
		if s.cache.IsHealthy(ctx) {
			resp.Components.Redis = componentConnected
		} else {
			resp.Status = "degraded"
			resp.Components.Redis = componentError
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type pairEntry struct {
	Base         string     `json:"base"`
	Counter      string     `json:"counter"`
	BaseAsset    string     `json:"base_asset"`
	CounterAsset string     `json:"counter_asset"`
	OfferCount   int64      `json:"offer_count"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
}

type pairsResponse struct {
	Pairs []pairEntry `json:"pairs"`
	Total int         `json:"total"`
}

// handlePairs lists the actively quoted trading pairs, busiest first.
func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cached pairsResponse
	if s.cache.GetJSON(ctx, cache.PairsKey(), &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	rows, err := s.store.TradingPairs(ctx)
	if err != nil {
		s.writeError(w, r, Database(err))
		return
	}

	resp := pairsResponse{Pairs: make([]pairEntry, 0, len(rows)), Total: len(rows)}
	for _, row := range rows {
		resp.Pairs = append(resp.Pairs, pairEntry{
			Base:         row.Selling.DisplayName(),
			Counter:      row.Buying.DisplayName(),
			BaseAsset:    row.Selling.Canonical(),
			CounterAsset: row.Buying.Canonical(),
			OfferCount:   row.OfferCount,
			LastUpdated:  row.LastUpdated,
		})
	}

	s.cache.SetJSON(ctx, cache.PairsKey(), resp, cache.PairsTTL)
	writeJSON(w, http.StatusOK, resp)
}

type orderbookResponse struct {
	Base      string      `json:"base"`
	Counter   string      `json:"counter"`
	Bids      []bookLevel `json:"bids"`
	Asks      []bookLevel `json:"asks"`
	Timestamp string      `json:"timestamp"`
}

// pairParams parses the {base}/{counter} path pair.
func pairParams(r *http.Request) (base, counter models.Asset, apiErr *Error) {
	vars := mux.Vars(r)

	base, err := models.ParseCanonicalAsset(vars["base"])
	if err != nil {
		return models.Asset{}, models.Asset{}, InvalidAsset("base", err)
	}
	counter, err = models.ParseCanonicalAsset(vars["counter"])
	if err != nil {
		return models.Asset{}, models.Asset{}, InvalidAsset("counter", err)
	}
	if base == counter {
		return models.Asset{}, models.Asset{}, ValidationError("base and counter must be different assets")
	}
	return base, counter, nil
}

// handleOrderbook renders both sides of one pair's book, aggregated
// into price levels.
func (s *Server) handleOrderbook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	base, counter, apiErr := pairParams(r)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}

	key := cache.OrderbookKey(base.Canonical(), counter.Canonical())
	var cached orderbookResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	// Asks sell the base asset; bids sell the counter asset and are
	// inverted into base terms by the aggregation.
	askRows, err := s.store.OrderbookOffers(ctx, base, counter)
	if err != nil {
		s.writeError(w, r, Database(err))
		return
	}
	bidRows, err := s.store.OrderbookOffers(ctx, counter, base)
	if err != nil {
		s.writeError(w, r, Database(err))
		return
	}

	if len(askRows) == 0 && len(bidRows) == 0 {
		s.writeError(w, r, NoRoute("no offers exist for this pair"))
		return
	}

	resp := orderbookResponse{
		Base:      base.DisplayName(),
		Counter:   counter.DisplayName(),
		Asks:      renderLevels(aggregateLevels(askRows, false, bookDepth)),
		Bids:      renderLevels(aggregateLevels(bidRows, true, bookDepth)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	s.cache.SetJSON(ctx, key, resp, cache.OrderbookTTL)
	writeJSON(w, http.StatusOK, resp)
}

type pathHop struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Price  string `json:"price"`
	Source string `json:"source"`
}

type quoteResponse struct {
	Base      string    `json:"base"`
	Counter   string    `json:"counter"`
	Amount    string    `json:"amount"`
	Price     string    `json:"price"`
	Total     string    `json:"total"`
	QuoteType string    `json:"quote_type"`
	Path      []pathHop `json:"path"`
	Timestamp string    `json:"timestamp"`
}

// handleQuote prices a market buy of the requested base amount against
// the ask side of the book.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	base, counter, apiErr := pairParams(r)
	if apiErr != nil {
		s.writeError(w, r, apiErr)
		return
	}

	amountStr := r.URL.Query().Get("amount")
	if amountStr == "" {
		s.writeError(w, r, ValidationError("amount query parameter is required"))
		return
	}
	want, err := parsePositiveDecimal(amountStr)
	if err != nil {
		s.writeError(w, r, ValidationError("amount must be a positive decimal: "+err.Error()))
		return
	}

	key := cache.QuoteKey(base.Canonical(), counter.Canonical(), amountStr)
	var cached quoteResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	askRows, err := s.store.OrderbookOffers(ctx, base, counter)
	if err != nil {
		s.writeError(w, r, Database(err))
		return
	}

	cost, filled := quoteAsks(askRows, want)
	if !filled {
		s.writeError(w, r, NoRoute("not enough depth to fill the requested amount"))
		return
	}

	avg := new(big.Rat).Quo(cost, want)
	price := avg.FloatString(pricePrecision)

	resp := quoteResponse{
		Base:      base.DisplayName(),
		Counter:   counter.DisplayName(),
		Amount:    amountStr,
		Price:     price,
		Total:     cost.FloatString(pricePrecision),
		QuoteType: "market",
		Path: []pathHop{{
			From:   base.DisplayName(),
			To:     counter.DisplayName(),
			Price:  price,
			Source: "sdex",
		}},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	s.cache.SetJSON(ctx, key, resp, cache.QuoteTTL)
	writeJSON(w, http.StatusOK, resp)
}
