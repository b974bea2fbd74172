// Package alphavantage provides a market-data client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/newthinker/kachi/internal/cache"
	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
)

const (
	DefaultBaseURL           = "https://www.alphavantage.co/query"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 75
	DefaultMaxRetries        = 5
	DefaultCacheTTL          = 15 * time.Minute

	// Name is the provider name used in the collector registry.
	Name = "alphavantage"
)

// payload is a cached upstream response body.
type payload struct {
	body []byte
	csv  bool
}

// Client implements collector.MarketData against Alpha Vantage
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	cacheTTL   time.Duration
	cache      *cache.TTL[string, payload]
	logger     *zap.Logger
	observer   collector.RequestObserver
	sleep      func(ctx context.Context, d time.Duration) error
}

var _ collector.MarketData = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestsPerMinute sets the request pacing; zero or less disables pacing
func WithRequestsPerMinute(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets how many times a 429 response is retried
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithCacheTTL sets the response cache lifetime
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithObserver reports every upstream request, e.g. to metrics
func WithObserver(o collector.RequestObserver) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a client. apiKey is the default used when a call passes no key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/DefaultRequestsPerMinute), 1),
		maxRetries: DefaultMaxRetries,
		cacheTTL:   DefaultCacheTTL,
		logger:     zap.NewNop(),
		sleep:      sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}
	c.cache = cache.New[string, payload](c.cacheTTL)

	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	return Name
}

// ClearCache drops every cached response
func (c *Client) ClearCache() {
	c.cache.Clear()
}

// get performs a paced, cached GET with 429 retry. Responses are cached per full URL,
// so different keys never share entries.
func (c *Client) get(ctx context.Context, apiKey, function string, params url.Values) (payload, error) {
	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return payload{}, core.WrapError(core.ErrConfigMissing, fmt.Errorf("alpha vantage api key"))
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("function", function)
	q.Set("apikey", key)
	reqURL := c.baseURL + "?" + q.Encode()

	if cached, ok := c.cache.Get(reqURL); ok {
		return cached, nil
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return payload{}, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return payload{}, fmt.Errorf("failed to create request: %w", redact(err))
		}

		c.logger.Debug("alpha vantage request",
			zap.String("function", function),
			zap.String("symbol", params.Get("symbol")),
			zap.Int("attempt", attempt))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.observe(function, "error")
			return payload{}, core.WrapError(core.ErrFetchFailed, fmt.Errorf("%s: %w", function, redact(err)))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryDelay(resp.Header.Get("Retry-After"), attempt)
			resp.Body.Close()
			c.observe(function, "rate_limited")
			if attempt >= c.maxRetries {
				return payload{}, core.WrapError(core.ErrRateLimited, fmt.Errorf("%s: gave up after %d retries", function, attempt))
			}
			c.logger.Warn("alpha vantage rate limited, backing off",
				zap.String("function", function),
				zap.Duration("delay", delay),
				zap.Int("attempt", attempt))
			if err := c.sleep(ctx, delay); err != nil {
				return payload{}, err
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			c.observe(function, "error")
			return payload{}, core.WrapError(core.ErrFetchFailed, fmt.Errorf("%s: reading body: %w", function, err))
		}

		if resp.StatusCode != http.StatusOK {
			c.observe(function, "error")
			return payload{}, core.WrapError(core.ErrFetchFailed,
				fmt.Errorf("%s: status %d: %s", function, resp.StatusCode, truncate(string(body), 200)))
		}

		if err := checkAPIError(body); err != nil {
			c.observe(function, "error")
			return payload{}, fmt.Errorf("%s: %w", function, err)
		}
		p := payload{
			body: body,
			csv:  strings.Contains(resp.Header.Get("Content-Type"), "csv") || !looksJSON(body),
		}

		c.observe(function, "ok")
		c.cache.Set(reqURL, p)
		return p, nil
	}
}

// redact masks the api key in URLs carried by transport errors.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: redactURL(uerr.URL), Err: uerr.Err}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		base, _, _ := strings.Cut(raw, "?")
		return base
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) observe(function, status string) {
	if c.observer != nil {
		c.observer.RecordMarketDataRequest(function, status)
	}
}

// checkAPIError detects the error payloads Alpha Vantage returns with status 200.
func checkAPIError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "Thank you for using Alpha Vantage") {
		return core.WrapError(core.ErrRateLimited, fmt.Errorf("%s", truncate(trimmed, 200)))
	}
	if !looksJSON(body) {
		return nil
	}

	var probe struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return core.WrapError(core.ErrFetchFailed, fmt.Errorf("decoding response: %w", err))
	}
	switch {
	case probe.ErrorMessage != "":
		return core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s", probe.ErrorMessage))
	case probe.Note != "":
		return core.WrapError(core.ErrRateLimited, fmt.Errorf("%s", probe.Note))
	case probe.Information != "":
		return core.WrapError(core.ErrRateLimited, fmt.Errorf("%s", probe.Information))
	}
	return nil
}

func looksJSON(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// retryDelay honors a Retry-After header in seconds and otherwise backs off 2^attempt seconds.
func retryDelay(header string, attempt int) time.Duration {
	if secs, err := strconv.ParseFloat(strings.TrimSpace(header), 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
