// Package http serves the JSON API: transaction CRUD, bulk import,
// analytics queries, settings and currency changes. Reads go through
// short-lived LRU caches; every mutation drops them.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// Server wraps http.Server with the API's dependencies and read caches.
type Server struct {
	http.Server

	store        storage.Store
	transactions *services.TransactionService
	currency     *services.CurrencyService
	logger       *log.Logger

	// transactionsCache holds the full snapshot under "all" and month
	// listings under "YYYY-MM" keys.
	transactionsCache *cache.LRUCache[[]core.Transaction]
	settingsCache     *cache.LRUCache[core.Settings]
	cacheManager      *cache.Manager

	rateLimiter *rateLimiter
	security    securityMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes, caches and middleware, returning a server ready
// for ListenAndServe.
func NewServer(addr string, store storage.Store, transactions *services.TransactionService, currency *services.CurrencyService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(slog.LevelInfo, log.ComponentHTTP)
	} else {
		logger = logger.WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		store:             store,
		transactions:      transactions,
		currency:          currency,
		logger:            logger,
		transactionsCache: cache.NewLRUCache[[]core.Transaction](128, 5*time.Minute),
		settingsCache:     cache.NewLRUCache[core.Settings](1, 5*time.Minute),
		cacheManager:      cache.NewManager(),
		rateLimiter:       newRateLimiter(requestsPerMinute),
	}

	s.cacheManager.Register(s.transactionsCache)
	s.cacheManager.Register(s.settingsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRequestContext)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.handleCreateTransaction)
			r.Get("/", s.handleListTransactions)
			r.Post("/import", s.handleImportTransactions)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Get("/categories", s.handleListCategories)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", s.handleAnalyticsSummary)
			r.Get("/comparison", s.handleAnalyticsComparison)
			r.Get("/trends", s.handleSpendingTrends)
			r.Get("/categories", s.handleCategoryComparison)
			r.Get("/health", s.handleHealthScore)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Put("/", s.handleUpdateSettings)
			r.Post("/currency", s.handleChangeCurrency)
		})

		r.Route("/recurring", func(r chi.Router) {
			r.Post("/", s.handleCreateRecurring)
			r.Get("/", s.handleListRecurring)
			r.Delete("/{id}", s.handleDeleteRecurring)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeData(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready only when the store answers a cheap read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.store.GetSettings(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed",
			log.FieldError, err,
			"error_type", log.ErrorTypeDatabase)
		s.writeError(ctx, w, http.StatusServiceUnavailable, fmt.Errorf("storage unavailable: %w", err))
		return
	}
	s.writeData(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

const allTransactionsKey = "all"

func monthKey(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// allTransactions returns the full snapshot, serving repeated analytics
// calls from cache between mutations.
func (s *Server) allTransactions(ctx context.Context) ([]core.Transaction, error) {
	if txs, ok := s.transactionsCache.Get(allTransactionsKey); ok {
		return txs, nil
	}
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	s.transactionsCache.Set(allTransactionsKey, txs)
	return txs, nil
}

func (s *Server) monthTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	key := monthKey(year, month)
	if txs, ok := s.transactionsCache.Get(key); ok {
		return txs, nil
	}
	txs, err := s.store.ListTransactionsByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	s.transactionsCache.Set(key, txs)
	return txs, nil
}

func (s *Server) cachedSettings(ctx context.Context) (core.Settings, error) {
	if settings, ok := s.settingsCache.Get("settings"); ok {
		return settings, nil
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	s.settingsCache.Set("settings", settings)
	return settings, nil
}

// invalidateCaches drops every cached read after a mutation.
func (s *Server) invalidateCaches() {
	s.transactionsCache.Clear()
	s.settingsCache.Clear()
}

// Shutdown stops the cache and rate-limiter housekeeping goroutines and
// drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
