package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// AssetBridge moves assets between Avalanche and external chains.
type AssetBridge interface {
	// Transfer starts a bridge transfer and returns the source-chain
	// transaction hash
	Transfer(ctx context.Context, sourceChain string, amount decimal.Decimal, asset string) (string, error)
}

// ErrBridgeUnavailable is returned when no bridge backend is configured.
var ErrBridgeUnavailable = errors.New("bridge is not available")

// UnavailableBridge is the default AssetBridge. Bridge transfers need a
// deployed bridge contract set, which is environment specific.
type UnavailableBridge struct{}

func (UnavailableBridge) Transfer(ctx context.Context, sourceChain string, amount decimal.Decimal, asset string) (string, error) {
	return "", ErrBridgeUnavailable
}
