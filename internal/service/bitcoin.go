package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"wallet-background/pkg/logger"
)

// BitcoinBroadcaster publishes signed Bitcoin transactions.
type BitcoinBroadcaster interface {
	Broadcast(ctx context.Context, rawTx []byte) (string, error)
}

// BitcoinClient broadcasts through an esplora-style /tx endpoint, which
// takes the hex transaction as the request body and answers the txid.
type BitcoinClient struct {
	baseURL string
	client  *http.Client
}

func NewBitcoinClient(baseURL string) *BitcoinClient {
	return &BitcoinClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *BitcoinClient) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	payload := hex.EncodeToString(rawTx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tx", strings.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	txid := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("broadcast rejected: %s", txid)
	}

	logger.Info("bitcoin transaction broadcast", zap.String("txId", txid))
	return txid, nil
}
