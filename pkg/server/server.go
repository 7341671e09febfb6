// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package server exposes the gateway's HTTP API: the token gate, the
// session-guarded trading proxies, the public relays and the signal feeds,
// all behind one CORS-restricted origin.
package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/auth"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/config"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/gate"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/metrics"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/proxy"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/signals"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/social"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/solana"
)

// Server wires every component behind a single http.Handler.
type Server struct {
	cfg      config.Config
	guard    *auth.Guard
	upstream *proxy.Client
	gate     *gate.Gate
	social   *social.Client
	metrics  *metrics.Collector

	discord   *signals.Feed
	sentiment *signals.Feed
	base      *signals.Feed

	mux     *http.ServeMux
	handler http.Handler
	logger  zerolog.Logger
	now     func() time.Time
}

type options struct {
	httpClient *http.Client
	collector  *metrics.Collector
	now        func() time.Time
}

// Option customises server construction.
type Option func(*options)

// WithHTTPClient replaces the outbound client (tests stub its transport).
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithCollector supplies the metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithClock replaces the wall clock used by the session guard and signal feeds.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the server from configuration.
func New(cfg config.Config, opts ...Option) *Server {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = proxy.NewHTTPClient(cfg)
	}
	if o.collector == nil {
		o.collector = metrics.NewCollector(nil)
	}

	upstream := proxy.New(o.httpClient, o.collector)

	guard := auth.NewGuard(o.httpClient, cfg.Upstreams.AxiomAuth.String(), cfg.AxiomAccessToken, cfg.AxiomRefreshToken, auth.WithClock(o.now))
	guard.SetRecorder(o.collector)

	s := &Server{
		cfg:       cfg,
		guard:     guard,
		upstream:  upstream,
		gate:      gate.New(solana.NewClient(upstream, cfg.Upstreams.RPC.String()), cfg.TokenMint, cfg.RequiredTokenAmount),
		social:    social.NewClient(upstream, cfg.Upstreams.XAPI, cfg.XBearerToken),
		metrics:   o.collector,
		discord:   signals.NewFeed(signals.Discord),
		sentiment: signals.NewFeed(signals.Sentiment),
		base:      signals.NewFeed(signals.Base),
		mux:       http.NewServeMux(),
		logger:    log.With().Str("component", "server").Logger(),
		now:       o.now,
	}
	s.routes()

	s.handler = withRequestID(withAccessLog(s.logger, withCORS(cfg.AllowedOrigins, s.mux)))
	return s
}

// Guard exposes the session guard for background refresh scheduling.
func (s *Server) Guard() *auth.Guard { return s.guard }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.handle("GET /api/get-axiom-token", s.handleAxiomToken)
	s.handle("POST /api/check-token-balance", s.handleTokenBalance)
	s.handle("POST /api/check-token-access", s.handleTokenAccess)
	s.handle("GET /api/user/{username}", s.handleUser)
	s.handle("GET /proxy/king-of-the-hill", s.handleKingOfTheHill)
	s.handle("GET /proxy/trades/latest", s.handleLatestTrades)
	s.handle("GET /api/tracked-wallets", s.handleTrackedWallets)
	s.handle("GET /api/proxy-axiom-portfolio", s.handlePortfolio)

	s.handleFeed("/api/discord-signals", s.discord)
	s.handleFeed("/api/token-sentimentx", s.sentiment)
	s.handleFeed("/api/base-signals", s.base)

	s.handle("POST /api/solana-chat", s.handleChat)
	s.handle("GET /api/solana-chat/echo", s.handleChatEcho)
	s.handle("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// handle registers h under pattern and records per-route metrics.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		h(rec, r)
		s.metrics.RecordHTTP(pattern, rec.code(), time.Since(start))
	})
}

func (s *Server) handleFeed(path string, feed *signals.Feed) {
	s.handle("POST "+path, s.pushSignal(feed))
	s.handle("GET "+path, s.listSignals(feed))
}

func (s *Server) handleChatEcho(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: "I had root access to existence"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK", Message: "Server is running"})
}
