package parts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/metrics"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/middleware"

	"go.uber.org/zap"
)

var (
	ErrPartNotFound = errors.New("part not found in Parts service")
	ErrUnavailable  = errors.New("parts service unavailable")
	ErrUpstream     = errors.New("unexpected response from Parts service")
)

// UpstreamError carries the unexpected status returned by the Parts service.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrUpstream, e.StatusCode)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Client fetches parts from the Parts service. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for baseURL whose requests give up after timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch returns the part body unmodified on 200.
func (c *Client) Fetch(ctx context.Context, partID int) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/api/parts/%d", c.baseURL, partID)
	start := time.Now()

	body, err := c.get(ctx, url)
	metrics.PartsRequestDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.PartsRequests.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrPartNotFound):
		metrics.PartsRequests.WithLabelValues("not_found").Inc()
	case errors.Is(err, ErrUnavailable):
		metrics.PartsRequests.WithLabelValues("unavailable").Inc()
		c.logger.Warn("parts service unreachable", zap.Int("part_id", partID), zap.Error(err))
	default:
		metrics.PartsRequests.WithLabelValues("upstream_error").Inc()
		c.logger.Warn("unexpected parts service response", zap.Int("part_id", partID), zap.Error(err))
	}
	return body, err
}

func (c *Client) get(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build parts request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrPartNotFound
	default:
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// the body stream timed out or was cut mid-read
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}
	return json.RawMessage(body), nil
}
