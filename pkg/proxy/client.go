// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/config"
)

// maxUpstreamBody caps how much of an upstream response is buffered.
const maxUpstreamBody = 16 << 20

// ErrUpstreamBodyTooLarge reports an upstream response larger than the buffer cap.
var ErrUpstreamBodyTooLarge = errors.New("upstream response exceeds size limit")

// Recorder observes every upstream round trip.
type Recorder interface {
	RecordUpstream(upstream, outcome string, duration time.Duration)
}

// Client issues requests to the gateway's upstreams and returns buffered
// bodies so handlers can relay or decode them.
type Client struct {
	// http performs outbound HTTP requests with tuned transport settings.
	http *http.Client
	// recorder is optional and receives per-call outcomes.
	recorder Recorder
	// logger emits structured logs for observability.
	logger zerolog.Logger
	// maxBody bounds the buffered response size.
	maxBody int64
}

// NewHTTPClient builds the shared outbound http.Client with connection pooling
// defaults and the configured request timeout.
func NewHTTPClient(cfg config.Config) *http.Client {
	// Build a transport that honours system proxies and keeps connections warm.
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, // nolint:gosec -- opt-in for development scenarios
		},
	}

	return &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}
}

// New wraps an http.Client; recorder may be nil.
func New(client *http.Client, recorder Recorder) *Client {
	return &Client{
		http:     client,
		recorder: recorder,
		logger:   log.With().Str("component", "proxy").Logger(),
		maxBody:  maxUpstreamBody,
	}
}

// Get issues a GET to target and returns the 2xx body.
func (c *Client) Get(ctx context.Context, upstream, target string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	copyHeaders(req.Header, header)
	return c.Do(upstream, req)
}

// PostJSON encodes payload as JSON, POSTs it to target and returns the 2xx body.
func (c *Client) PostJSON(ctx context.Context, upstream, target string, payload any, header http.Header) ([]byte, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode upstream payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	copyHeaders(req.Header, header)
	req.Header.Set("Content-Type", "application/json")
	return c.Do(upstream, req)
}

// Do performs req and buffers the response. Non-2xx answers come back as
// *UpstreamError carrying the status and body.
func (c *Client) Do(upstream string, req *http.Request) ([]byte, error) {
	start := time.Now()
	event := c.logger.With().
		Str("upstream", upstream).
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Logger()

	body, err := c.roundTrip(req, event)
	duration := time.Since(start)

	outcome := "success"
	var upErr *UpstreamError
	switch {
	case errors.As(err, &upErr):
		outcome = fmt.Sprintf("status_%d", upErr.Status)
		event.Warn().
			Int("status", upErr.Status).
			Bytes("upstream_body", truncate(upErr.Body, 2048)).
			Dur("duration", duration).
			Msg("upstream returned error")
	case errors.Is(err, ErrUpstreamBodyTooLarge):
		outcome = "body_too_large"
		event.Error().Err(err).Dur("duration", duration).Msg("upstream response too large")
	case err != nil:
		outcome = "transport_error"
		if isTimeout(err) {
			outcome = "timeout"
		}
		event.Error().Err(err).Dur("duration", duration).Msg("upstream request failed")
	default:
		event.Debug().Dur("duration", duration).Msg("upstream request completed")
	}

	if c.recorder != nil {
		c.recorder.RecordUpstream(upstream, outcome, duration)
	}
	return body, err
}

func (c *Client) roundTrip(req *http.Request, event zerolog.Logger) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform upstream request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			event.Error().
				Err(closeErr).
				Msg("close upstream response body failed")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrUpstreamBodyTooLarge, c.maxBody)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}

// copyHeaders appends all headers from src into dst.
func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// UpstreamError wraps a non-2xx upstream answer.
type UpstreamError struct {
	Status int    // Status is the upstream HTTP status.
	Body   []byte // Body retains the upstream payload for logging and details.
}

// Error implements the error interface for UpstreamError.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Status)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Status
	}
	return 0
}
