// Package transport is the HTTP client for the backend JSON API.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
	"github.com/jonuar/Donacrypto/internal/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// RequestIDHeader correlates a request with backend logs.
const RequestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements ports.Transport over net/http.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  ports.TokenSource
	log     zerolog.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

var _ ports.Transport = (*Client)(nil)

// New returns a Client that reads the bearer token from tokens on every call.
func New(cfg Config, tokens ports.TokenSource, log zerolog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		tokens:  tokens,
		log:     log,
	}
}

// OnUnauthorized registers the hook run on every 401, before Do returns.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

type errorBody struct {
	Error string `json:"error"`
}

// Do sends req and decodes a successful JSON response into out (if non-nil).
func (c *Client) Do(ctx context.Context, req ports.Request, out any) error {
	route := req.Route
	if route == "" {
		route = req.Path
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	log := c.log.With().
		Str("method", req.Method).
		Str("route", route).
		Str("request_id", httpReq.Header.Get(RequestIDHeader)).
		Logger()
	log.Debug().Str("url", httpReq.URL.String()).Msg("api request")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.BackendRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(route, "network").Inc()
		log.Warn().Err(err).Msg("api request failed without response")
		return &domain.APIError{Err: err}
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &domain.APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized {
			log.Info().Msg("api returned 401, tearing down session")
			c.unauthorized()
		} else {
			log.Debug().Int("status", resp.StatusCode).Str("error", apiErr.Message).Msg("api error response")
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.APIError{Status: resp.StatusCode, Err: fmt.Errorf("%w: empty body", domain.ErrMalformedResponse)}
		}
		return &domain.APIError{Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req ports.Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	url := c.baseURL + req.Path
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		return eb.Error
	}
	return ""
}
