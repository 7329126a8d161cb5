package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wallet-background/pkg/logger"
)

// AvalancheIssuer submits signed Avalanche transactions to the scoped
// chain endpoint.
type AvalancheIssuer interface {
	// IssueTx submits the hex-encoded signed transaction to the X, P or C
	// chain and returns its transaction id
	IssueTx(ctx context.Context, chainAlias, signedTxHex string) (string, error)
}

// AvalancheClient issues transactions against an avalanchego node's
// chain-specific JSON-RPC endpoints.
type AvalancheClient struct {
	baseURL string
	client  *http.Client
}

func NewAvalancheClient(baseURL string) *AvalancheClient {
	return &AvalancheClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type avalancheRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type avalancheRPCResponse struct {
	Result struct {
		TxID string `json:"txID"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *AvalancheClient) IssueTx(ctx context.Context, chainAlias, signedTxHex string) (string, error) {
	endpoint, method, err := issueRoute(chainAlias)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(avalancheRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params: map[string]string{
			"tx":       signedTxHex,
			"encoding": "hex",
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded avalancheRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("malformed issueTx response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("issueTx rejected: %s", decoded.Error.Message)
	}

	logger.Info("avalanche transaction issued",
		zap.String("chainAlias", chainAlias),
		zap.String("txId", decoded.Result.TxID))
	return decoded.Result.TxID, nil
}

func issueRoute(chainAlias string) (endpoint, method string, err error) {
	switch chainAlias {
	case "X":
		return "/ext/bc/X", "avm.issueTx", nil
	case "P":
		return "/ext/bc/P", "platform.issueTx", nil
	case "C":
		return "/ext/bc/C/avax", "avax.issueTx", nil
	}
	return "", "", fmt.Errorf("unknown chain alias %q", chainAlias)
}
