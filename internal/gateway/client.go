// Package gateway is the only code that talks HTTP to the draw analysis
// service. Every method returns either a decoded value or a *Failure carrying
// a display-ready message.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yildizm/LottoView/internal/logger"
	"github.com/yildizm/LottoView/internal/lottery"
)

const (
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
)

// Recorder receives one observation per call. metrics.Collector satisfies it.
type Recorder interface {
	ObserveRequest(operation, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, time.Duration) {}

// Config selects the service endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is safe for concurrent use; it holds no mutable state.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	log      *logger.Logger
	recorder Recorder
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for request instrumentation.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New validates cfg and returns a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		log:      logger.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// LatestAnalysis fetches GET /api/latest-number.
func (c *Client) LatestAnalysis(ctx context.Context) (*lottery.LatestAnalysis, error) {
	var out lottery.LatestAnalysis
	body, err := c.do(ctx, OpLatestAnalysis, http.MethodGet, "/api/latest-number", nil)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, c.decodeErr(OpLatestAnalysis, err)
	}
	return &out, nil
}

// History fetches one page of GET /api/history.
func (c *Client) History(ctx context.Context, page, limit int) (*lottery.HistoryPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, OpHistory, http.MethodGet, "/api/history", query)
	if err != nil {
		return nil, err
	}
	out, err := lottery.DecodeHistory(body, page, limit)
	if err != nil {
		return nil, c.decodeErr(OpHistory, err)
	}
	return out, nil
}

// Update triggers POST /api/update. A negative business result is returned
// as an outcome, not an error.
func (c *Client) Update(ctx context.Context) (*lottery.UpdateOutcome, error) {
	var out lottery.UpdateOutcome
	body, err := c.do(ctx, OpUpdate, http.MethodPost, "/api/update", nil)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, c.decodeErr(OpUpdate, err)
	}
	return &out, nil
}

// Statistics fetches GET /api/statistics.
func (c *Client) Statistics(ctx context.Context) (*lottery.Statistics, error) {
	var out lottery.Statistics
	body, err := c.do(ctx, OpStatistics, http.MethodGet, "/api/statistics", nil)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, c.decodeErr(OpStatistics, err)
	}
	return &out, nil
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (*lottery.Health, error) {
	var out lottery.Health
	body, err := c.do(ctx, OpHealth, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, c.decodeErr(OpHealth, err)
	}
	return &out, nil
}

func (c *Client) decodeErr(op Operation, err error) error {
	c.log.WarnWithFields("response decode failed", []logger.Field{
		logger.F("operation", string(op)),
		logger.Error(err),
	})
	c.recorder.ObserveRequest(string(op), string(KindDecode), 0)
	return decodeFailure(op, err)
}

// do performs one round trip and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op Operation, method, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(path)
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	requestID := uuid.NewString()
	fields := []logger.Field{
		logger.F("method", method),
		logger.F("path", path),
		logger.F("request_id", requestID),
	}
	c.log.DebugWithFields("api request", fields)

	start := time.Now()
	body, status, err := c.roundTrip(ctx, method, endpoint.String(), requestID)
	elapsed := time.Since(start)

	fields = append(fields, logger.Duration(elapsed))
	if err != nil {
		c.log.WarnWithFields("api request failed", append(fields, logger.Error(err)))
		c.recorder.ObserveRequest(string(op), string(KindTransport), elapsed)
		return nil, transportFailure(op, err)
	}

	fields = append(fields, logger.F("status", status))
	if status < 200 || status > 299 {
		c.log.WarnWithFields("api response error", fields)
		c.recorder.ObserveRequest(string(op), string(KindStatus), elapsed)
		return nil, statusFailure(op, status, body)
	}

	c.log.DebugWithFields("api response", fields)
	c.recorder.ObserveRequest(string(op), "success", elapsed)
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, requestID string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}
