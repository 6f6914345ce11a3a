package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// RecurringProcessor posts transactions from recurring rule templates.
type RecurringProcessor struct {
	store        storage.Store
	transactions *TransactionService
}

// NewRecurringProcessor creates a new recurring rule processor.
func NewRecurringProcessor(store storage.Store, transactions *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		store:        store,
		transactions: transactions,
	}
}

// ProcessDue posts a transaction for every active rule whose frequency
// says it is due at now. Posted rows flow through the transaction
// service, so they are validated and queued for export like any other
// write. Returns the number of transactions posted.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	asOf := core.NewDate(now.Year(), int(now.Month()), now.Day())

	active, err := p.store.ListActiveRecurring(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list active recurring rules: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring rules",
		"total_active", len(active),
		"processing_date", asOf.String())

	postedCount := 0

	for _, state := range active {
		rule := state.Rule

		checker, err := GetDuenessChecker(rule.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping rule with unknown frequency",
				"rule_id", rule.ID,
				"error", err)
			continue
		}

		if !checker.IsDue(state.LastPosted, now, rule.StartDate) {
			continue
		}

		tx := core.Transaction{
			Date:        asOf,
			Description: rule.Description,
			Amount:      rule.Amount,
			Category:    rule.Category,
			Type:        rule.Type,
		}

		created, err := p.transactions.CreateTransaction(ctx, tx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to post transaction from recurring rule",
				"rule_id", rule.ID,
				"description", rule.Description,
				"error", err)
			continue
		}

		if err := p.store.MarkRecurringPosted(ctx, rule.ID, asOf); err != nil {
			slog.ErrorContext(ctx, "Failed to record posting date",
				"rule_id", rule.ID,
				"error", err)
			// The transaction exists, so the rule looks due again next
			// run and may post twice.
		}

		postedCount++
		slog.InfoContext(ctx, "Posted transaction from recurring rule",
			"rule_id", rule.ID,
			"transaction_id", created.ID,
			"amount_cents", rule.Amount.Cents,
			"frequency", rule.Every)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"posted", postedCount,
		"total_checked", len(active))

	return postedCount, nil
}
