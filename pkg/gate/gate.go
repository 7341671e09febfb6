// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package gate decides whether a wallet holds enough of the gating token to
// be let into the front-end.
package gate

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrMissingPublicKey reports a balance lookup without a wallet key.
var ErrMissingPublicKey = errors.New("public key is required")

// BalanceSource looks up a wallet's holdings of mint in its smallest unit.
type BalanceSource interface {
	TokenBalance(ctx context.Context, owner, mint string) (uint64, error)
}

// Decision is the outcome of a gate check.
type Decision struct {
	PublicKey string `json:"publicKey"`
	Balance   uint64 `json:"balance"`
	Required  uint64 `json:"required"`
	Granted   bool   `json:"granted"`
	// Degraded is set when the balance could not be read and 0 was assumed.
	Degraded bool `json:"degraded,omitempty"`
}

// Gate checks holdings of one mint against a fixed threshold.
type Gate struct {
	source   BalanceSource
	mint     string
	required uint64
	logger   zerolog.Logger
}

// New builds a gate for mint; required is in the mint's smallest unit.
func New(source BalanceSource, mint string, required uint64) *Gate {
	return &Gate{
		source:   source,
		mint:     mint,
		required: required,
		logger:   log.With().Str("component", "gate").Logger(),
	}
}

// Mint returns the gating token's mint address.
func (g *Gate) Mint() string { return g.mint }

// Required returns the threshold.
func (g *Gate) Required() uint64 { return g.required }

// Decide grants access iff balance >= required.
func (g *Gate) Decide(balance uint64) bool {
	return balance >= g.required
}

// Balance returns the raw holding for publicKey.
func (g *Gate) Balance(ctx context.Context, publicKey string) (uint64, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return 0, ErrMissingPublicKey
	}
	return g.source.TokenBalance(ctx, publicKey, g.mint)
}

// Check looks up publicKey and decides. A failed lookup degrades to a zero
// balance instead of failing the caller.
func (g *Gate) Check(ctx context.Context, publicKey string) (Decision, error) {
	balance, err := g.Balance(ctx, publicKey)
	if errors.Is(err, ErrMissingPublicKey) {
		return Decision{}, err
	}

	d := Decision{PublicKey: strings.TrimSpace(publicKey), Required: g.required}
	if err != nil {
		g.logger.Warn().Err(err).Str("public_key", d.PublicKey).Msg("balance lookup failed, assuming zero")
		d.Degraded = true
	} else {
		d.Balance = balance
	}
	d.Granted = g.Decide(d.Balance)

	g.logger.Info().
		Str("public_key", d.PublicKey).
		Uint64("balance", d.Balance).
		Uint64("required", d.Required).
		Bool("granted", d.Granted).
		Msg("gate decision")
	return d, nil
}
