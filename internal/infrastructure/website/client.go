// Package website talks to the merchant storefront: page retrieval, live search and
// catalog extraction.
package website

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
)

// maxBodyBytes caps how much of a page is read into memory
const maxBodyBytes = 10 << 20

// noResultsPhrase marks a search results page with no hits (compared lower-cased)
const noResultsPhrase = "no results"

// ClientConfig holds settings for the storefront client
type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	FetchTimeout      time.Duration
	SearchTimeout     time.Duration
	RequestsPerSecond float64
	MaxRetries        int
}

// Client handles communication with the merchant website
type Client struct {
	httpClient    *http.Client
	baseURL       string
	userAgent     string
	fetchTimeout  time.Duration
	searchTimeout time.Duration
	maxRetries    int
	backoffBase   time.Duration
	rateLimiter   *rate.Limiter
	logger        *zap.Logger
}

// NewClient creates a new storefront client
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = 10 * time.Second
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "TimepieceBot/1.0"
	}

	return &Client{
		// Per-call deadlines come from the context; this only guards against a stuck transport
		httpClient:    &http.Client{Timeout: 2 * fetchTimeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:     userAgent,
		fetchTimeout:  fetchTimeout,
		searchTimeout: searchTimeout,
		maxRetries:    cfg.MaxRetries,
		backoffBase:   500 * time.Millisecond,
		rateLimiter:   rate.NewLimiter(rate.Limit(rps), burst),
		logger:        logger.OrNop(log).Named("website"),
	}
}

// BaseURL returns the storefront root URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrFetchFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	return resp, nil
}

// Fetch retrieves a raw page, retrying transient failures within the fetch timeout
func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v (last error: %v)", domain.ErrFetchFailure, ctx.Err(), lastErr)
			case <-time.After(c.backoff(attempt - 1)):
			}
		}

		body, retry, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			c.logger.Debug("fetched page", zap.String("url", pageURL), zap.Int("bytes", len(body)), zap.Int("attempt", attempt))
			return body, nil
		}

		c.logger.Warn("page fetch failed", zap.String("url", pageURL), zap.Int("attempt", attempt), zap.Error(err))
		lastErr = err
		if !retry {
			break
		}
	}

	return nil, lastErr
}

// fetchOnce performs one attempt and reports whether a failure is worth retrying
func (c *Client) fetchOnce(ctx context.Context, pageURL string) ([]byte, bool, error) {
	resp, err := c.doRequest(ctx, pageURL)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, fmt.Errorf("%w: status %d", domain.ErrFetchFailure, resp.StatusCode)
	}

	return body, false, nil
}

// backoff returns the delay before retry number n (1-based), doubling each time
func (c *Client) backoff(n int) time.Duration {
	return c.backoffBase << (n - 1)
}

// Search runs a live storefront search for brand and model.
// A 200 response whose text does not say "no results" yields a product pointing at the
// search page itself; anything else is domain.ErrNoMatch or domain.ErrFetchFailure.
func (c *Client) Search(ctx context.Context, brand, model string) (*domain.Product, error) {
	query := brand + " " + model
	searchURL := domain.SearchURL(c.baseURL, query)

	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	resp, err := c.doRequest(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search status %d", domain.ErrNoMatch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read search body: %v", domain.ErrFetchFailure, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	if strings.Contains(strings.ToLower(doc.Text()), noResultsPhrase) {
		c.logger.Debug("search returned no results", zap.String("query", query))
		return nil, domain.ErrNoMatch
	}

	return &domain.Product{
		Title:   query,
		URL:     searchURL,
		Brand:   brand,
		Model:   model,
		InStock: true,
	}, nil
}
