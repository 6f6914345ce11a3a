package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	tx.Description = sanitizeInput(tx.Description)
	tx.Category = sanitizeInput(tx.Category)

	if err := tx.Validate(); err != nil {
		s.writeError(ctx, w, http.StatusUnprocessableEntity, err)
		return
	}

	created, err := s.transactions.CreateTransaction(ctx, tx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create transaction",
			log.FieldError, err,
			log.FieldDescription, tx.Description,
			log.FieldAmountCents, tx.Amount.Cents,
			log.FieldOperation, log.OpCreate)
		s.writeError(ctx, w, statusFromError(err), err)
		return
	}

	s.invalidateCaches()
	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransaction, created.ID,
		log.FieldDescription, created.Description,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldCategory, created.Category,
		log.FieldType, string(created.Type))
	s.writeData(ctx, w, http.StatusCreated, created)
}

// handleListTransactions lists one month when year or month is given
// (missing half defaults to the current date) and everything otherwise.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yearStr := strings.TrimSpace(r.URL.Query().Get("year"))
	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))

	var (
		txs []core.Transaction
		err error
	)
	if yearStr == "" && monthStr == "" {
		txs, err = s.allTransactions(ctx)
	} else {
		now := time.Now()
		year, month := now.Year(), int(now.Month())
		if yearStr != "" {
			year, err = strconv.Atoi(yearStr)
			if err != nil {
				s.writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid year %q", yearStr))
				return
			}
		}
		if monthStr != "" {
			month, err = strconv.Atoi(monthStr)
			if err != nil || month < 1 || month > 12 {
				s.writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("invalid month %q", monthStr))
				return
			}
		}
		txs, err = s.monthTransactions(ctx, year, month)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list transactions",
			log.FieldError, err,
			log.FieldOperation, log.OpList)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	if txs == nil {
		txs = []core.Transaction{}
	}
	s.writeData(ctx, w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		s.writeError(ctx, w, statusFromError(err), err)
		return
	}
	s.writeData(ctx, w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	tx.ID = chi.URLParam(r, "id")
	tx.Description = sanitizeInput(tx.Description)
	tx.Category = sanitizeInput(tx.Category)

	if err := tx.Validate(); err != nil {
		s.writeError(ctx, w, http.StatusUnprocessableEntity, err)
		return
	}

	updated, err := s.transactions.UpdateTransaction(ctx, tx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update transaction",
			log.FieldError, err,
			log.FieldTransaction, tx.ID,
			log.FieldOperation, log.OpUpdate)
		s.writeError(ctx, w, statusFromError(err), err)
		return
	}

	s.invalidateCaches()
	s.logger.InfoContext(ctx, "Transaction updated", log.FieldTransaction, updated.ID)
	s.writeData(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := s.transactions.DeleteTransaction(ctx, id); err != nil {
		if statusFromError(err) == http.StatusInternalServerError {
			s.logger.ErrorContext(ctx, "Failed to delete transaction",
				log.FieldError, err,
				log.FieldTransaction, id,
				log.FieldOperation, log.OpDelete)
		}
		s.writeError(ctx, w, statusFromError(err), err)
		return
	}

	s.invalidateCaches()
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransaction, id)
	s.writeData(ctx, w, http.StatusOK, map[string]string{"deleted": id})
}

// handleImportTransactions accepts a JSON array and stores it
// all-or-nothing: one invalid entry rejects the batch.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var txs []core.Transaction
	if err := decodeJSON(w, r, &txs); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if len(txs) == 0 {
		s.writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("empty import payload"))
		return
	}

	for i := range txs {
		txs[i].Description = sanitizeInput(txs[i].Description)
		txs[i].Category = sanitizeInput(txs[i].Category)
		if err := txs[i].Validate(); err != nil {
			s.writeError(ctx, w, http.StatusUnprocessableEntity, fmt.Errorf("transaction %d: %w", i+1, err))
			return
		}
	}

	imported, err := s.transactions.ImportTransactions(ctx, txs)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to import transactions",
			log.FieldError, err,
			log.FieldCount, len(txs),
			log.FieldOperation, log.OpImport)
		s.writeError(ctx, w, statusFromError(err), err)
		return
	}

	s.invalidateCaches()
	s.logger.InfoContext(ctx, "Transactions imported", log.FieldCount, len(imported))
	s.writeData(ctx, w, http.StatusCreated, map[string]any{
		"imported":     len(imported),
		"transactions": imported,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list categories",
			log.FieldError, err,
			log.FieldOperation, log.OpList)
		s.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	s.writeData(ctx, w, http.StatusOK, cats)
}
