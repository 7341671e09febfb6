// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Refresher renews the session ahead of expiry on a cron schedule so request
// paths rarely pay for a refresh.
type Refresher struct {
	guard    *Guard
	schedule string
	leeway   time.Duration
	cron     *cron.Cron
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewRefresher builds a refresher; an empty schedule disables it.
func NewRefresher(guard *Guard, schedule string, leeway time.Duration) *Refresher {
	return &Refresher{
		guard:    guard,
		schedule: schedule,
		leeway:   leeway,
		cron:     cron.New(),
		logger:   log.With().Str("component", "auth.refresher").Logger(),
	}
}

// Start registers the refresh job and starts the scheduler. It stops on its
// own once ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Info().Msg("token refresh schedule not configured, skipping")
		return nil
	}

	if _, err := r.cron.AddFunc(r.schedule, func() { r.Tick(ctx) }); err != nil {
		return fmt.Errorf("invalid token refresh schedule %q: %w", r.schedule, err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info().
		Str("schedule", r.schedule).
		Dur("leeway", r.leeway).
		Msg("token refresher started")

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Tick refreshes the session when it expires within the leeway.
func (r *Refresher) Tick(ctx context.Context) {
	cred := r.guard.Credential()
	remaining := cred.ExpiresAt.Sub(r.guard.Now())
	if remaining > r.leeway {
		return
	}

	r.logger.Info().Dur("remaining", remaining).Msg("access token nearing expiry, refreshing")
	if err := r.guard.Refresh(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("scheduled token refresh failed")
	}
}

// Stop halts the scheduler and waits for a running job to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info().Msg("token refresher stopped")
	}
}
