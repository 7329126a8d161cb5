package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-background/pkg/rpcerr"
)

func TestPositionalParams(t *testing.T) {
	req := &Request{Params: json.RawMessage(`["0x68656c6c6f", "0xAb58", 7]`)}

	var msg, addr string
	var n int
	require.NoError(t, req.PositionalParams(&msg, &addr, &n))
	assert.Equal(t, "0x68656c6c6f", msg)
	assert.Equal(t, "0xAb58", addr)
	assert.Equal(t, 7, n)
}

func TestPositionalParamsMissingTrailingAreZero(t *testing.T) {
	req := &Request{Params: json.RawMessage(`["only-one"]`)}

	var first, second string
	require.NoError(t, req.PositionalParams(&first, &second))
	assert.Equal(t, "only-one", first)
	assert.Empty(t, second)
}

func TestPositionalParamsRejectsNonArray(t *testing.T) {
	req := &Request{Params: json.RawMessage(`{"chainId": "0x1"}`)}
	var s string
	assert.Error(t, req.PositionalParams(&s))
}

func TestObjectParamsAcceptsBothConventions(t *testing.T) {
	type payload struct {
		ChainID string `json:"chainId"`
	}

	bare := &Request{Params: json.RawMessage(`{"chainId": "0x1"}`)}
	var p payload
	require.NoError(t, bare.ObjectParams(&p))
	assert.Equal(t, "0x1", p.ChainID)

	wrapped := &Request{Params: json.RawMessage(`[{"chainId": "0xa86a"}]`)}
	p = payload{}
	require.NoError(t, wrapped.ObjectParams(&p))
	assert.Equal(t, "0xa86a", p.ChainID)

	empty := &Request{}
	p = payload{}
	require.NoError(t, empty.ObjectParams(&p))
	assert.Empty(t, p.ChainID)
}

func TestRespondAndFailCarryIdentity(t *testing.T) {
	req := &Request{ID: "req-9", Method: "eth_accounts"}

	ok := req.Respond([]string{"0xAb58"})
	assert.Equal(t, "req-9", ok.ID)
	assert.Equal(t, "eth_accounts", ok.Method)
	assert.Nil(t, ok.Error)

	failed := req.Fail(rpcerr.UserRejected)
	assert.Equal(t, "req-9", failed.ID)
	assert.Equal(t, 4001, failed.Error.Code)
	assert.Nil(t, failed.Result)
}
