// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/signals"
)

func (s *Server) pushSignal(feed *signals.Feed) http.HandlerFunc {
	stored := feed.Stored
	if stored == "" {
		stored = capitalize(feed.Label) + " stored successfully"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := readLimitedRequestBody(r, maxRequestBody)
		if err != nil {
			writeBodyError(w, err)
			return
		}

		fields := map[string]any{}
		if len(strings.TrimSpace(string(raw))) > 0 {
			if fields, err = signals.DecodeObject(raw); err != nil {
				writeError(w, http.StatusBadRequest, "Failed to store "+feed.Label, err)
				return
			}
		}

		feed.Push(fields, s.now())
		s.metrics.RecordSignal(feed.Name)
		zerolog.Ctx(r.Context()).Info().Str("category", feed.Name).Msg("stored new signal")
		writeJSON(w, http.StatusOK, messageResponse{Message: stored})
	}
}

func (s *Server) listSignals(feed *signals.Feed) http.HandlerFunc {
	empty := "No " + feed.Label + "s available"

	return func(w http.ResponseWriter, r *http.Request) {
		items := feed.List(s.now())
		if len(items) == 0 {
			writeError(w, http.StatusNotFound, empty, nil)
			return
		}

		out := make([]map[string]any, len(items))
		for i, sig := range items {
			out[i] = sig.Fields
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
