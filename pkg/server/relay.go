// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/social"
)

const (
	upstreamPumpFun = "pumpfun"
	upstreamChat    = "chat"
	pumpFunAgent    = "Mozilla/5.0"
)

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	logger := zerolog.Ctx(r.Context()).With().Str("username", username).Logger()
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required", nil)
		return
	}

	profile, err := s.social.Profile(r.Context(), username)
	if errors.Is(err, social.ErrInvalidUsername) {
		logger.Warn().Msg("rejected malformed username")
		writeError(w, http.StatusBadRequest, "Invalid username", nil)
		return
	}
	if errors.Is(err, social.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found", err)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch user data")
		writeError(w, http.StatusInternalServerError, "Failed to fetch user data", err)
		return
	}

	logger.Info().Int("posts", len(profile.Posts)).Msg("fetched user data")
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) pumpFunGet(ctx context.Context, path string, rawQuery string) ([]byte, error) {
	target := s.cfg.Upstreams.PumpFun.JoinPath(path)
	target.RawQuery = rawQuery
	header := http.Header{"User-Agent": []string{pumpFunAgent}}
	return s.upstream.Get(ctx, upstreamPumpFun, target.String(), header)
}

func (s *Server) handleKingOfTheHill(w http.ResponseWriter, r *http.Request) {
	body, err := s.pumpFunGet(r.Context(), "coins/king-of-the-hill", "includeNsfw=false")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch token data", err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleLatestTrades(w http.ResponseWriter, r *http.Request) {
	body, err := s.pumpFunGet(r.Context(), "trades/latest", "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch latest trades", err)
		return
	}
	writeRawJSON(w, http.StatusOK, asJSONArray(body))
}

// asJSONArray wraps a single JSON value into a one-element array; arrays pass
// through unchanged.
func asJSONArray(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed
	}
	if len(trimmed) == 0 {
		return []byte("[]")
	}
	out := make([]byte, 0, len(trimmed)+2)
	out = append(out, '[')
	out = append(out, trimmed...)
	return append(out, ']')
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSONBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		zerolog.Ctx(r.Context()).Warn().Msg("message missing in request body")
		writeError(w, http.StatusBadRequest, "Message is required", nil)
		return
	}

	ctx := r.Context()
	if s.cfg.ChatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ChatTimeout)
		defer cancel()
	}

	body, err := s.upstream.PostJSON(ctx, upstreamChat, s.cfg.Upstreams.Chat.String(), chatRequest{Message: req.Message}, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch chat response", err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}
