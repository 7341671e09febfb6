// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/gate"
)

type balanceRequest struct {
	PublicKey string `json:"publicKey"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

// decodeBalanceRequest reads the wallet key; an empty body counts as a
// missing key rather than malformed input.
func decodeBalanceRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req balanceRequest
	if err := readJSONBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(w, err)
		return "", false
	}
	publicKey := strings.TrimSpace(req.PublicKey)
	if publicKey == "" {
		zerolog.Ctx(r.Context()).Warn().Msg("public key missing in request body")
		writeError(w, http.StatusBadRequest, "Public key is required", nil)
		return "", false
	}
	return publicKey, true
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	publicKey, ok := decodeBalanceRequest(w, r)
	if !ok {
		return
	}

	balance, err := s.gate.Balance(r.Context(), publicKey)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("public_key", publicKey).Msg("failed to fetch token accounts")
		writeError(w, http.StatusInternalServerError, "Failed to fetch token balance", err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("public_key", publicKey).Uint64("balance", balance).Msg("token balance fetched")
	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

func (s *Server) handleTokenAccess(w http.ResponseWriter, r *http.Request) {
	publicKey, ok := decodeBalanceRequest(w, r)
	if !ok {
		return
	}

	decision, err := s.gate.Check(r.Context(), publicKey)
	if errors.Is(err, gate.ErrMissingPublicKey) {
		writeError(w, http.StatusBadRequest, "Public key is required", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check token access", err)
		return
	}

	s.metrics.RecordGate(decision.Granted)
	writeJSON(w, http.StatusOK, decision)
}
