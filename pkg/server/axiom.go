// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/auth"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/config"
	"github.com/go-core-stack/wallet-gate-proxy/pkg/proxy"
)

const (
	upstreamAxiomTrade     = "axiom_trade"
	upstreamAxiomPortfolio = "axiom_portfolio"
)

// trackedWalletTx is the placeholder shape served when tracked wallet
// transactions cannot be fetched.
type trackedWalletTx struct {
	TransactionCreatedAt string  `json:"transactionCreatedAt"`
	Type                 string  `json:"type"`
	PriceUSD             float64 `json:"priceUsd"`
	TokenImage           string  `json:"tokenImage"`
	TokenName            string  `json:"tokenName"`
	PairAddress          string  `json:"pairAddress"`
	TotalSol             float64 `json:"totalSol"`
	TotalUSD             float64 `json:"totalUsd"`
	Protocol             string  `json:"protocol"`
	TokenAddress         string  `json:"tokenAddress"`
}

func mockTrackedWallets(now time.Time) []trackedWalletTx {
	return []trackedWalletTx{{
		TransactionCreatedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Type:                 "buy",
		PriceUSD:             0.0001,
		TokenImage:           "https://example.com/token.png",
		TokenName:            "MockToken",
		PairAddress:          "mockPairAddress",
		TotalSol:             1.2345,
		TotalUSD:             123.45,
		Protocol:             "mockProtocol",
		TokenAddress:         "mockTokenAddress",
	}}
}

type mockPortfolio struct {
	WalletAddress string `json:"walletAddress"`
	Tokens        []any  `json:"tokens"`
	TotalSol      int    `json:"totalSol"`
	TotalUSD      int    `json:"totalUsd"`
	Mock          bool   `json:"mock"`
}

// guardedEndpoint describes one session-authenticated upstream call and how
// its persistent failures are answered.
type guardedEndpoint struct {
	name     string
	subject  string
	policy   config.FallbackPolicy
	fallback func() any
}

func (s *Server) handleAxiomToken(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if err := s.guard.EnsureValid(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to refresh Axiom access token", nil)
		return
	}

	cred := s.guard.Credential()
	if cred.AccessToken == "" {
		logger.Error().Msg("access token not available")
		writeError(w, http.StatusInternalServerError, "Axiom access token not available", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"axiomToken": cred.AccessToken})
}

func (s *Server) handleTrackedWallets(w http.ResponseWriter, r *http.Request) {
	target := s.cfg.Upstreams.AxiomTrade.JoinPath("tracked-wallet-transactions").String()

	ep := guardedEndpoint{
		name:    "tracked_wallets",
		subject: "tracked wallet transactions",
		policy:  s.cfg.TrackedWalletsFallback,
		fallback: func() any {
			return mockTrackedWallets(s.now())
		},
	}

	s.serveGuarded(w, r, ep, func(ctx context.Context, cred auth.Credential) ([]byte, error) {
		header := make(http.Header)
		auth.AttachBrowserHeaders(header)
		auth.AttachSessionCookies(header, cred)
		return s.upstream.Get(ctx, upstreamAxiomTrade, target, header)
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	walletAddress := strings.TrimSpace(query.Get("walletAddress"))
	if walletAddress == "" {
		writeError(w, http.StatusBadRequest, "Wallet address is required", nil)
		return
	}
	isOtherWallet := strings.TrimSpace(query.Get("isOtherWallet"))
	if isOtherWallet == "" {
		isOtherWallet = "true"
	}

	target := s.cfg.Upstreams.AxiomPortfolio.JoinPath("portfolio")
	target.RawQuery = url.Values{
		"walletAddress": {walletAddress},
		"isOtherWallet": {isOtherWallet},
	}.Encode()

	ep := guardedEndpoint{
		name:    "portfolio",
		subject: "portfolio data",
		policy:  s.cfg.PortfolioFallback,
		fallback: func() any {
			return mockPortfolio{WalletAddress: walletAddress, Tokens: []any{}, Mock: true}
		},
	}

	s.serveGuarded(w, r, ep, func(ctx context.Context, cred auth.Credential) ([]byte, error) {
		header := make(http.Header)
		auth.AttachBearer(header, cred.AccessToken)
		auth.AttachBrowserHeaders(header)
		auth.AttachSessionCookies(header, cred)
		return s.upstream.Get(ctx, upstreamAxiomPortfolio, target.String(), header)
	})
}

// serveGuarded runs call through the refresh-and-retry round and relays the
// upstream body, or answers per the endpoint's fallback policy.
func (s *Server) serveGuarded(w http.ResponseWriter, r *http.Request, ep guardedEndpoint, call proxy.SessionCall) {
	logger := zerolog.Ctx(r.Context()).With().Str("endpoint", ep.name).Logger()

	body, err := proxy.CallWithRefresh(r.Context(), s.guard, call)
	if err == nil {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	if ep.policy == config.FallbackMock && ep.fallback != nil {
		logger.Warn().Err(err).Msg("upstream failed, returning mock data as fallback")
		s.metrics.RecordFallback(ep.name)
		writeJSON(w, http.StatusOK, ep.fallback())
		return
	}

	logger.Error().Err(err).Msg("upstream failed")
	var retryErr *proxy.RetryError
	switch {
	case errors.Is(err, proxy.ErrRefreshFailed):
		writeError(w, http.StatusInternalServerError, "Failed to refresh Axiom access token", nil)
	case errors.As(err, &retryErr):
		writeError(w, http.StatusInternalServerError, "Failed to fetch "+ep.subject+" after token refresh", retryErr.Err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to fetch "+ep.subject, err)
	}
}
