// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package solana

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/proxy"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, status int, body string, captured *rpcRequest) *Client {
	t.Helper()
	httpClient := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if captured != nil {
			raw, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.NoError(t, sonic.Unmarshal(raw, captured))
		}
		return &http.Response{
			StatusCode: status,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	})}
	return NewClient(proxy.New(httpClient, nil), "https://rpc.example.com/?api-key=k")
}

func TestTokenBalanceSumsMatchingMint(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"result":{"value":[
		{"account":{"data":{"parsed":{"info":{"mint":"` + testMint + `","tokenAmount":{"amount":"1500000"}}}}}},
		{"account":{"data":{"parsed":{"info":{"mint":"OtherMint","tokenAmount":{"amount":"999"}}}}}},
		{"account":{"data":{"parsed":{"info":{"mint":"` + testMint + `","tokenAmount":{"amount":"250"}}}}}}
	]}}`

	var captured rpcRequest
	c := newTestClient(t, http.StatusOK, body, &captured)

	balance, err := c.TokenBalance(context.Background(), "OwnerKey", testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_250), balance)

	assert.Equal(t, "getTokenAccountsByOwner", captured.Method)
	require.Len(t, captured.Params, 3)
	assert.Equal(t, "OwnerKey", captured.Params[0])
	assert.Equal(t, map[string]any{"programId": TokenProgramID}, captured.Params[1])
	assert.Equal(t, map[string]any{"encoding": "jsonParsed"}, captured.Params[2])
}

func TestTokenBalanceWithoutAccounts(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":{"value":[]}}`, nil)

	balance, err := c.TokenBalance(context.Background(), "OwnerKey", testMint)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestTokenBalanceRPCError(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param: WrongSize"}}`, nil)

	_, err := c.TokenBalance(context.Background(), "bad", testMint)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestTokenBalanceUpstreamFailure(t *testing.T) {
	c := newTestClient(t, http.StatusTooManyRequests, `{"error":"rate limited"}`, nil)

	_, err := c.TokenBalance(context.Background(), "OwnerKey", testMint)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, proxy.StatusOf(err))
}
