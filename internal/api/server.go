// Package api serves the public StellarRoute HTTP surface: health,
// trading pairs, orderbooks, and quotes, with per-client rate limiting
// and best-effort Redis caching in front of Postgres.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stellarroute/stellarroute/internal/cache"
	"github.com/stellarroute/stellarroute/internal/models"
	"github.com/stellarroute/stellarroute/internal/ratelimit"
	"github.com/stellarroute/stellarroute/internal/storage/postgres"
)

const (
	readTimeout   = 15 * time.Second
	writeTimeout  = 30 * time.Second
	idleTimeout   = 60 * time.Second
	shutdownGrace = 30 * time.Second
)

// Store is the read-only database surface the API consumes.
type Store interface {
	HealthCheck(ctx context.Context) error
	TradingPairs(ctx context.Context) ([]postgres.PairRow, error)
	OrderbookOffers(ctx context.Context, selling, buying models.Asset) ([]postgres.BookOffer, error)
}

// Server glues the router, handlers, and middleware together.
type Server struct {
	store   Store
	cache   *cache.Client
	limiter *ratelimit.Limiter
	logger  *zap.Logger
	version string
}

// NewServer wires the API's dependencies. A nil logger is replaced with
// a no-op one.
func NewServer(store Store, cacheClient *cache.Client, limiter *ratelimit.Limiter, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:   store,
		cache:   cacheClient,
		limiter: limiter,
		logger:  logger,
		version: version,
	}
}

// Handler assembles the routes behind the middleware chain. The chain
// wraps the router itself so unknown paths are also logged, CORS-tagged,
// and rate limited.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/v1/pairs", s.handlePairs).Methods("GET")
	router.HandleFunc("/api/v1/orderbook/{base}/{counter}", s.handleOrderbook).Methods("GET")
	router.HandleFunc("/api/v1/quote/{base}/{counter}", s.handleQuote).Methods("GET")
	router.HandleFunc("/api-docs/openapi.json", s.handleOpenAPI).Methods("GET")
	router.HandleFunc("/swagger-ui", s.handleSwaggerUI).Methods("GET")
	router.HandleFunc("/swagger-ui/", s.handleSwaggerUI).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, NotFound("resource not found"))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{
			Error:   TagBadRequest,
			Message: "method not allowed",
		})
	})

	var h http.Handler = router
	h = s.rateLimitMiddleware(h)
	h = corsMiddleware(h)
	h = s.loggingMiddleware(h)
	return h
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests within the shutdown grace period. A bind failure returns
// immediately.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("api shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
