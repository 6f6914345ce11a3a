package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// recurringItem is a recurring rule plus its posting state. LastPosted is
// the zero date for rules that have never produced a transaction.
type recurringItem struct {
	core.RecurringTransaction
	LastPosted core.Date `json:"last_posted"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rule core.RecurringTransaction
	if err := decodeJSON(w, r, &rule); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	rule.Description = sanitizeInput(rule.Description)
	rule.Category = sanitizeInput(rule.Category)

	if err := rule.Validate(); err != nil {
		s.writeError(ctx, w, http.StatusUnprocessableEntity, err)
		return
	}

	id, err := s.store.CreateRecurring(ctx, rule)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create recurring rule",
			log.FieldError, err,
			log.FieldDescription, rule.Description,
			log.FieldOperation, log.OpCreate)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	rule.ID = id

	s.logger.InfoContext(ctx, "Recurring rule created",
		"rule_id", id,
		log.FieldDescription, rule.Description,
		"frequency", string(rule.Every))
	s.writeData(ctx, w, http.StatusCreated, rule)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	states, err := s.store.ListRecurring(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list recurring rules",
			log.FieldError, err,
			log.FieldOperation, log.OpList)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	items := make([]recurringItem, 0, len(states))
	for _, st := range states {
		items = append(items, recurringItem{
			RecurringTransaction: st.Rule,
			LastPosted:           st.LastPosted,
		})
	}
	s.writeData(ctx, w, http.StatusOK, items)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid recurring rule id"))
		return
	}

	if err := s.store.DeleteRecurring(ctx, id); err != nil {
		if statusFromError(err) == http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "Failed to delete recurring rule",
				log.FieldError, err,
				"rule_id", id,
				log.FieldOperation, log.OpDelete)
		}
		s.writeError(ctx, w, statusFromError(err), err)
		return
	}

	s.logger.InfoContext(ctx, "Recurring rule deleted", "rule_id", id)
	s.writeData(ctx, w, http.StatusOK, map[string]int64{"deleted": id})
}
