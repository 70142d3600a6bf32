// Package marketfeed talks to the external market data source. The source
// is a black box: it returns untyped nested JSON in one of several
// mutually inconsistent shapes, or fails. Shape interpretation lives in
// the normalizer, not here.
package marketfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantlens/stockpulse/pkg/config"
	"github.com/quantlens/stockpulse/pkg/httputil"
	"github.com/quantlens/stockpulse/pkg/logger"
	"github.com/quantlens/stockpulse/pkg/redis"
)

// Payload is an untyped response from the source
type Payload map[string]interface{}

// Fetcher is the source boundary consumed by the normalizer
type Fetcher interface {
	// FetchSecurity returns the quote/valuation payload for a symbol
	FetchSecurity(ctx context.Context, symbol string) (Payload, error)
	// FetchShareholding returns the institutional shareholding payload
	FetchShareholding(ctx context.Context, symbol string) (Payload, error)
	// FetchShareholdingPage returns the raw HTML of the secondary
	// shareholding endpoint, used as a last-resort probe
	FetchShareholdingPage(ctx context.Context, symbol string) (string, error)
}

// Client is the HTTP implementation of Fetcher. It is constructed
// explicitly and injected; there is no package-level instance.
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	probeURL   string
}

// NewClient creates a new market feed client
func NewClient(cfg *config.Config, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.WithField("module", "marketfeed"),
		baseURL:    cfg.Source.BaseURL,
		probeURL:   cfg.Source.ProbeURL,
	}
}

// FetchSecurity fetches the quote/valuation payload for a symbol
func (c *Client) FetchSecurity(ctx context.Context, symbol string) (Payload, error) {
	return c.fetchJSON(ctx, fmt.Sprintf("%s/securities/%s", c.baseURL, symbol), "security:"+symbol)
}

// FetchShareholding fetches the institutional shareholding payload
func (c *Client) FetchShareholding(ctx context.Context, symbol string) (Payload, error) {
	return c.fetchJSON(ctx, fmt.Sprintf("%s/securities/%s/shareholding", c.baseURL, symbol), "shareholding:"+symbol)
}

// FetchShareholdingPage fetches the secondary HTML shareholding page
func (c *Client) FetchShareholdingPage(ctx context.Context, symbol string) (string, error) {
	if c.probeURL == "" {
		return "", fmt.Errorf("no probe URL configured")
	}

	url := fmt.Sprintf("%s?symbol=%s", c.probeURL, symbol)
	resp, err := c.httpClient.GetWithHeaders(ctx, url, map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// fetchJSON performs a cached GET decoding the body into a Payload.
// Payloads are cached per (endpoint, day) to spare the rate-limited
// source on re-runs.
func (c *Client) fetchJSON(ctx context.Context, url, cacheKey string) (Payload, error) {
	fullKey := fmt.Sprintf("%s:%s", cacheKey, time.Now().Format("2006-01-02"))

	if c.cache != nil {
		var cached Payload
		if found, err := c.cache.Get(ctx, fullKey, &cached); err == nil && found {
			c.logger.WithField("key", fullKey).Debug("Payload cache hit")
			return cached, nil
		}
	}

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, fullKey, payload, 6*time.Hour); err != nil {
			c.logger.WithError(err).Warn("Failed to cache payload")
		}
	}

	return payload, nil
}
