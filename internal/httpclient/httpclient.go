// Package httpclient is the shared outbound HTTP client for the geocoding,
// weather, attraction and AI collaborators. Every call gets a per-request
// timeout and runs through a circuit breaker so a failing upstream is cut off
// instead of tying up request handlers. There are no retries.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// ErrUnavailable is returned while the breaker is open or half-open and
// saturated.
var ErrUnavailable = errors.New("upstream temporarily unavailable")

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

// Config controls timeouts and breaker thresholds.
type Config struct {
	Name             string
	Timeout          time.Duration
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns the settings used for every collaborator in production.
func DefaultConfig(name string, timeout time.Duration) Config {
	return Config{
		Name:             name,
		Timeout:          timeout,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Client wraps an *http.Client with a breaker.
type Client struct {
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	name    string
}

// New constructs a Client. A nil base uses a fresh *http.Client.
func New(cfg Config, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// 4xx responses are the caller's fault, not the upstream's.
			var se *StatusError
			if errors.As(err, &se) && se.Status < 500 {
				return true
			}
			return err == nil
		},
	})
	return &Client{http: base, cb: cb, timeout: cfg.Timeout, name: cfg.Name}
}

// Do sends req and returns the response body. Non-2xx statuses become a
// *StatusError; an open breaker yields ErrUnavailable.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req = req.WithContext(ctx)

	out, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Status: resp.StatusCode, Body: truncate(string(body), 256)}
		}
		return body, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("httpclient.%s: %w", c.name, ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("httpclient.%s: %w", c.name, err)
	}
	return out.([]byte), nil
}

// GetJSON performs a GET and decodes the JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("httpclient.%s: %w", c.name, err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Accept", "application/json")

	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("httpclient.%s: decode: %w", c.name, err)
	}
	return nil
}

// PostJSON encodes payload as the request body and decodes the JSON response into dst.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, payload, dst any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("httpclient.%s: encode: %w", c.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("httpclient.%s: %w", c.name, err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("httpclient.%s: decode: %w", c.name, err)
	}
	return nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
