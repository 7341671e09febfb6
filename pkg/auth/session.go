// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// SessionLifetime is how long a freshly issued access token is trusted.
const SessionLifetime = 15 * time.Minute

const refreshPath = "/refresh-access-token"

var (
	// ErrNoAccessToken reports a refresh response without an access-token cookie.
	ErrNoAccessToken = errors.New("no auth-access-token found in refresh response")
	// ErrRefreshRejected reports a non-2xx answer from the refresh endpoint.
	ErrRefreshRejected = errors.New("refresh endpoint rejected the session")
)

// Credential is the access/refresh token pair used against the trading upstream.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token must be refreshed at now.
func (c Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// RefreshRecorder observes refresh outcomes.
type RefreshRecorder interface {
	RecordRefresh(success bool)
}

// Guard owns the process-wide session credential and refreshes it against the
// upstream auth endpoint. Concurrent refreshes collapse into one upstream call.
type Guard struct {
	mu   sync.RWMutex
	cred Credential

	refreshURL string
	client     *http.Client
	group      singleflight.Group
	recorder   RefreshRecorder
	logger     zerolog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// GuardOption customises a Guard.
type GuardOption func(*Guard)

// WithClock sets the guard's clock before the initial expiry is computed.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.Now = now }
}

// NewGuard seeds a guard with the configured tokens, trusted for SessionLifetime.
func NewGuard(client *http.Client, authBaseURL, accessToken, refreshToken string, opts ...GuardOption) *Guard {
	g := &Guard{
		refreshURL: strings.TrimSuffix(authBaseURL, "/") + refreshPath,
		client:     client,
		logger:     log.With().Str("component", "auth").Logger(),
		Now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cred = Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    g.Now().Add(SessionLifetime),
	}
	return g
}

// SetRecorder attaches a refresh outcome observer.
func (g *Guard) SetRecorder(r RefreshRecorder) {
	g.recorder = r
}

// Credential returns a snapshot of the current credential.
func (g *Guard) Credential() Credential {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cred
}

// EnsureValid refreshes the credential only once it has expired.
func (g *Guard) EnsureValid(ctx context.Context) error {
	if !g.Credential().Expired(g.Now()) {
		return nil
	}
	g.logger.Info().Msg("access token expired, refreshing")
	return g.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new session. Callers arriving
// while a refresh is in flight share its result. On failure the previous
// credential is left untouched.
func (g *Guard) Refresh(ctx context.Context) error {
	ch := g.group.DoChan("refresh", func() (any, error) {
		// Shared by every waiter, so not bound to the first caller's lifetime.
		return nil, g.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Guard) refresh(ctx context.Context) (err error) {
	defer func() {
		if g.recorder != nil {
			g.recorder.RecordRefresh(err == nil)
		}
		if err != nil {
			g.logger.Error().Err(err).Msg("failed to refresh access token")
		}
	}()

	current := g.Credential()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.refreshURL, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	AttachBrowserHeaders(req.Header)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", CookieRefreshToken+"="+current.RefreshToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("perform refresh request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.logger.Error().Err(closeErr).Msg("close refresh response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrRefreshRejected, resp.StatusCode)
	}

	var access, refresh string
	for _, raw := range resp.Header.Values("Set-Cookie") {
		if v, ok := cookieValue(raw, CookieAccessToken); ok {
			access = v
		}
		if v, ok := cookieValue(raw, CookieRefreshToken); ok {
			refresh = v
		}
	}
	if access == "" {
		return ErrNoAccessToken
	}

	g.mu.Lock()
	g.cred.AccessToken = access
	if refresh != "" {
		g.cred.RefreshToken = refresh
	}
	g.cred.ExpiresAt = g.Now().Add(SessionLifetime)
	g.mu.Unlock()

	g.logger.Info().Bool("refresh_token_rotated", refresh != "").Msg("access token refreshed")
	return nil
}
