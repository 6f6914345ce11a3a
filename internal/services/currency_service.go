package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// RateFetcher returns how many units of the target currency one unit of
// the source currency buys.
type RateFetcher interface {
	GetRate(ctx context.Context, from, to string) (float64, error)
}

// ConversionResult describes a completed currency change.
type ConversionResult struct {
	Settings  core.Settings `json:"settings"`
	Rate      float64       `json:"rate"`
	Converted int64         `json:"converted_transactions"`
}

// CurrencyService changes the display currency by rescaling every stored
// amount with a fetched exchange rate.
type CurrencyService struct {
	store storage.Store
	rates RateFetcher
}

func NewCurrencyService(store storage.Store, rates RateFetcher) *CurrencyService {
	return &CurrencyService{
		store: store,
		rates: rates,
	}
}

// ChangeCurrency converts all stored amounts to the target currency.
// Changing to the currency already in use is a no-op.
func (s *CurrencyService) ChangeCurrency(ctx context.Context, target string) (ConversionResult, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if !core.ValidCurrency(target) {
		return ConversionResult{}, core.ErrInvalidCurrency
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("load settings: %w", err)
	}

	if settings.Currency == target {
		return ConversionResult{Settings: settings, Rate: 1}, nil
	}

	rate, err := s.rates.GetRate(ctx, settings.Currency, target)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("fetch rate %s to %s: %w", settings.Currency, target, err)
	}

	converted, err := s.store.ConvertCurrency(ctx, target, rate)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("convert amounts: %w", err)
	}

	updated, err := s.store.GetSettings(ctx)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("load settings after conversion: %w", err)
	}

	slog.InfoContext(ctx, "Currency changed",
		"from", settings.Currency,
		"to", target,
		"rate", rate,
		"converted_transactions", converted)

	return ConversionResult{Settings: updated, Rate: rate, Converted: converted}, nil
}
