package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// bridgeAssetParams identifies the transfer the page wants started.
type bridgeAssetParams struct {
	CurrentBlockchain string `json:"currentBlockchain"`
	Amount            string `json:"amountStr"`
	Asset             string `json:"asset"`
}

// AvalancheBridgeAssetHandler services avalanche_bridgeAsset.
type AvalancheBridgeAssetHandler struct {
	bridge service.AssetBridge
	opener ApprovalOpener
}

func NewAvalancheBridgeAssetHandler(bridge service.AssetBridge, opener ApprovalOpener) *AvalancheBridgeAssetHandler {
	return &AvalancheBridgeAssetHandler{bridge: bridge, opener: opener}
}

func (h *AvalancheBridgeAssetHandler) Methods() []string {
	return []string{"avalanche_bridgeAsset"}
}

func (h *AvalancheBridgeAssetHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *AvalancheBridgeAssetHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var params bridgeAssetParams
	if err := req.ObjectParams(&params); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Missing mandatory param(s)"))
	}
	if params.CurrentBlockchain == "" || params.Amount == "" || params.Asset == "" {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Missing mandatory param(s)"))
	}
	if _, err := decimal.NewFromString(params.Amount); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("invalid amount"))
	}
	return deferToApproval(ctx, h.opener, req, params, "approve")
}

func (h *AvalancheBridgeAssetHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var params bridgeAssetParams
	if err := act.DecodeDisplayData(&params); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(params.Amount)
	if err != nil {
		return nil, err
	}
	return h.bridge.Transfer(ctx, params.CurrentBlockchain, amount, params.Asset)
}
