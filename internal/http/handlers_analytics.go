package http

import (
	"net/http"
	"strings"

	"bilancio/internal/analytics"
	"bilancio/internal/log"
)

// periodParam reads the period query parameter, defaulting to monthly.
func periodParam(r *http.Request) (analytics.Period, error) {
	v := strings.TrimSpace(r.URL.Query().Get("period"))
	if v == "" {
		return analytics.PeriodMonthly, nil
	}
	return analytics.ParsePeriod(v)
}

// analyticsEngine builds a fresh engine over the cached snapshot. The
// engine itself is cheap; the snapshot load is what the cache saves.
func (s *Server) analyticsEngine(r *http.Request) (*analytics.Engine, error) {
	txs, err := s.allTransactions(r.Context())
	if err != nil {
		return nil, err
	}
	return analytics.New(txs), nil
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period, err := periodParam(r)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	engine, err := s.analyticsEngine(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load analytics snapshot",
			log.FieldError, err,
			log.FieldOperation, log.OpSummary)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	s.writeData(ctx, w, http.StatusOK, engine.Summary(period))
}

func (s *Server) handleAnalyticsComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period, err := periodParam(r)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	engine, err := s.analyticsEngine(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load analytics snapshot",
			log.FieldError, err,
			log.FieldOperation, log.OpComparison)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	s.writeData(ctx, w, http.StatusOK, engine.Comparison(period))
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	engine, err := s.analyticsEngine(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load analytics snapshot",
			log.FieldError, err,
			log.FieldOperation, log.OpTrends)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	s.writeData(ctx, w, http.StatusOK, engine.SpendingTrends())
}

func (s *Server) handleCategoryComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	engine, err := s.analyticsEngine(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load analytics snapshot",
			log.FieldError, err,
			log.FieldOperation, log.OpComparison)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	deltas := engine.CategoryComparison()
	if deltas == nil {
		deltas = []analytics.CategoryDelta{}
	}
	s.writeData(ctx, w, http.StatusOK, deltas)
}

func (s *Server) handleHealthScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	engine, err := s.analyticsEngine(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load analytics snapshot",
			log.FieldError, err,
			log.FieldOperation, log.OpHealth)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	s.writeData(ctx, w, http.StatusOK, engine.HealthScore())
}
