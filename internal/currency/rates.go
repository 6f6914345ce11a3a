// Package currency fetches exchange rates from a Frankfurter-compatible API.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"bilancio/internal/log"
)

const requestTimeout = 10 * time.Second

// RatesClient fetches conversion rates over HTTP with retries on
// transient failures.
type RatesClient struct {
	baseURL string
	client  *retryablehttp.Client
	logger  *log.Logger
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// NewRatesClient creates a client against the given API base URL,
// e.g. "https://api.frankfurter.dev/v1".
func NewRatesClient(baseURL string, logger *log.Logger) *RatesClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = requestTimeout
	// Retry chatter lands at debug level through our handler.
	client.Logger = logger

	return &RatesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// GetRate returns how many units of the target currency one unit of the
// source currency buys.
func (c *RatesClient) GetRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}

	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		c.baseURL, url.QueryEscape(from), url.QueryEscape(to))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create rates request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rate %s to %s: %w", from, to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("rates API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode rates response: %w", err)
	}

	rate, ok := parsed.Rates[to]
	if !ok {
		return 0, fmt.Errorf("rates response has no rate for %s", to)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("rates response has invalid rate %v for %s", rate, to)
	}

	c.logger.DebugContext(ctx, "Fetched exchange rate",
		log.FieldCurrency, to,
		"base", from,
		"rate", rate,
	)

	return rate, nil
}
