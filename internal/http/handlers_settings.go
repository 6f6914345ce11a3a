package http

import (
	"net/http"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.cachedSettings(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load settings",
			log.FieldError, err,
			log.FieldOperation, log.OpRead)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	s.writeData(ctx, w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var settings core.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	settings.Currency = strings.ToUpper(strings.TrimSpace(settings.Currency))

	if err := settings.Validate(); err != nil {
		s.writeError(ctx, w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := s.store.UpdateSettings(ctx, settings); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update settings",
			log.FieldError, err,
			log.FieldOperation, log.OpUpdate)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	s.invalidateCaches()
	s.logger.InfoContext(ctx, "Settings updated", log.FieldCurrency, settings.Currency)
	s.writeData(ctx, w, http.StatusOK, settings)
}

// handleChangeCurrency rescales every stored amount to the target
// currency at the current exchange rate.
func (s *Server) handleChangeCurrency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Currency string `json:"currency"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	result, err := s.currency.ChangeCurrency(ctx, req.Currency)
	if err != nil {
		if statusFromError(err) == http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "Currency change failed",
				log.FieldError, err,
				log.FieldCurrency, req.Currency,
				log.FieldOperation, log.OpConvert)
		}
		s.writeError(ctx, w, statusFromError(err), err)
		return
	}

	s.invalidateCaches()
	s.logger.InfoContext(ctx, "Currency changed",
		log.FieldCurrency, result.Settings.Currency,
		"rate", result.Rate,
		log.FieldCount, result.Converted)
	s.writeData(ctx, w, http.StatusOK, result)
}
