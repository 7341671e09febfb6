// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package solana queries SPL token holdings through a Solana JSON-RPC provider.
package solana

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/proxy"
)

// TokenProgramID is the SPL token program that owns classic token accounts.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

const upstreamName = "solana_rpc"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tokenAccountsResponse struct {
	Result *struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string `json:"mint"`
							TokenAmount struct {
								Amount string `json:"amount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// RPCError is a JSON-RPC level failure reported by the provider.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client talks to one RPC endpoint.
type Client struct {
	upstream *proxy.Client
	endpoint string
}

// NewClient binds an RPC endpoint URL (API key included) to an upstream client.
func NewClient(upstream *proxy.Client, endpoint string) *Client {
	return &Client{upstream: upstream, endpoint: endpoint}
}

// TokenBalance sums, in the mint's smallest unit, every token account of
// owner holding mint.
func (c *Client) TokenBalance(ctx context.Context, owner, mint string) (uint64, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTokenAccountsByOwner",
		Params: []any{
			owner,
			map[string]string{"programId": TokenProgramID},
			map[string]string{"encoding": "jsonParsed"},
		},
	}

	body, err := c.upstream.PostJSON(ctx, upstreamName, c.endpoint, req, nil)
	if err != nil {
		return 0, err
	}

	var resp tokenAccountsResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode rpc response: %w", err)
	}
	if resp.Error != nil {
		return 0, &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if resp.Result == nil {
		return 0, nil
	}

	var total uint64
	for _, acc := range resp.Result.Value {
		info := acc.Account.Data.Parsed.Info
		if info.Mint != mint {
			continue
		}
		raw := strings.TrimSpace(info.TokenAmount.Amount)
		if raw == "" {
			continue
		}
		amount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse token amount %q: %w", raw, err)
		}
		total += amount
	}
	return total, nil
}
