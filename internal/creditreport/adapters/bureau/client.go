// Package bureau is the HTTP adapter for the credit bureau gateway.
package bureau

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"creditgate/internal/creditreport/models"
	"creditgate/internal/creditreport/ports"
	"creditgate/pkg/domain"
	"creditgate/pkg/platform/circuit"
)

// maxResponseBytes caps how much of a bureau response is read.
const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the bureau client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	// FailureThreshold consecutive outages open the circuit for OpenTimeout.
	FailureThreshold int
	OpenTimeout      time.Duration
}

// Client retrieves reports over HTTP. Outages (transport errors, timeouts,
// 429 and 5xx) count against a circuit breaker; while the circuit is open,
// calls fail fast with ports.ErrBureauUnavailable.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
	breaker *circuit.Breaker
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*Client)

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreaker replaces the default breaker built from Config.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// New creates a bureau client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("bureau base URL not configured")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
		breaker: circuit.New("bureau",
			circuit.WithFailureThreshold(cfg.FailureThreshold),
			circuit.WithCooldown(cfg.OpenTimeout),
		),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type reportRequest struct {
	ConsumerID         string `json:"consumer_id"`
	PermissiblePurpose string `json:"permissible_purpose"`
	AuditReference     string `json:"audit_reference"`
}

// Retrieve posts the lookup to /v1/reports. The consumer ID travels only in
// the request body so transport errors, which echo the URL, never carry it.
func (c *Client) Retrieve(ctx context.Context, consumerID, purpose string, auditID domain.AuditID) (*models.Report, error) {
	if !c.breaker.Allow() {
		c.observe(resultCircuitOpen, 0)
		return nil, fmt.Errorf("%w: circuit %s open", ports.ErrBureauUnavailable, c.breaker.Name())
	}

	start := time.Now()
	report, err := c.retrieve(ctx, consumerID, purpose, auditID)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		c.observe(resultOK, elapsed)
		if c.breaker.Success() {
			c.logger.InfoContext(ctx, "circuit breaker closed", "circuit", c.breaker.Name())
		}
	case errors.Is(err, ports.ErrBureauUnavailable):
		c.observe(resultUnavailable, elapsed)
		if c.breaker.Failure() {
			c.logger.ErrorContext(ctx, "circuit breaker opened",
				"circuit", c.breaker.Name(),
				"error", err,
			)
		}
	default:
		// the bureau answered; not an outage
		c.observe(resultRejected, elapsed)
		c.breaker.Success()
	}
	return report, err
}

func (c *Client) retrieve(ctx context.Context, consumerID, purpose string, auditID domain.AuditID) (*models.Report, error) {
	body, err := json.Marshal(reportRequest{
		ConsumerID:         consumerID,
		PermissiblePurpose: purpose,
		AuditReference:     auditID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal bureau request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reports", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create bureau request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: request cancelled: %w", ports.ErrBureauUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", ports.ErrBureauUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ports.ErrBureauUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ports.ErrReportNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ports.ErrBureauUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ports.ErrBureauRejected, resp.StatusCode)
	}

	var report models.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("%w: decode report: %w", ports.ErrBureauRejected, err)
	}
	return &report, nil
}

// Name returns the check name for health reporting.
func (c *Client) Name() string { return "bureau" }

// Health fails while the circuit is open.
func (c *Client) Health(context.Context) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("%w: circuit open", ports.ErrBureauUnavailable)
	}
	return nil
}

func (c *Client) observe(result string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Requests.WithLabelValues(result).Inc()
	if elapsed > 0 {
		c.metrics.Latency.Observe(elapsed.Seconds())
	}
}
