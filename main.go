// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/auth"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/config"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/server"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	log.Logger = log.Level(level)

	gateway := server.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refresher := auth.NewRefresher(gateway.Guard(), cfg.RefreshSchedule, cfg.RefreshLeeway)
	if err := refresher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start token refresher")
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      gateway,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("listen_addr", cfg.ListenAddr).
			Strs("allowed_origins", cfg.AllowedOrigins).
			Uint64("required_token_amount", cfg.RequiredTokenAmount).
			Msg("starting wallet gate proxy")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	waitForShutdown(ctx, srv, cfg.GracefulShutdownTimeout)
	refresher.Stop()
}

func waitForShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	log.Info().Msg("shutting down wallet gate proxy")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed; forcing close")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("forced close failed")
		}
	}

	log.Info().Msg("server stopped")
}
