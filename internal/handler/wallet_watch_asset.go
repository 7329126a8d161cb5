package handler

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// watchAssetParams is the EIP-747 request payload.
type watchAssetParams struct {
	Type    string `json:"type"`
	Options struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
		Image    string `json:"image,omitempty"`
	} `json:"options"`
}

// WalletWatchAssetHandler services wallet_watchAsset for ERC20 tokens.
type WalletWatchAssetHandler struct {
	networks service.Networks
	assets   *service.AssetsService
	opener   ApprovalOpener
}

func NewWalletWatchAssetHandler(networks service.Networks, assets *service.AssetsService, opener ApprovalOpener) *WalletWatchAssetHandler {
	return &WalletWatchAssetHandler{networks: networks, assets: assets, opener: opener}
}

func (h *WalletWatchAssetHandler) Methods() []string {
	return []string{"wallet_watchAsset"}
}

func (h *WalletWatchAssetHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *WalletWatchAssetHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var params watchAssetParams
	if err := req.ObjectParams(&params); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}
	if params.Type != "ERC20" {
		return rpc.Errored(rpcerr.InvalidParamsf("Asset of type '%s' not supported", params.Type))
	}
	if !common.IsHexAddress(params.Options.Address) {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("invalid token address"))
	}

	network, err := h.networks.GetNetwork(req.Scope)
	if err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}

	token := service.WatchedToken{
		ChainID:  network.ChainID,
		Address:  params.Options.Address,
		Symbol:   params.Options.Symbol,
		Decimals: params.Options.Decimals,
		Image:    params.Options.Image,
	}
	return deferToApproval(ctx, h.opener, req, token, "watch-asset")
}

func (h *WalletWatchAssetHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var token service.WatchedToken
	if err := act.DecodeDisplayData(&token); err != nil {
		return nil, err
	}
	if err := h.assets.Watch(token); err != nil {
		return nil, err
	}
	return true, nil
}

func (h *WalletWatchAssetHandler) ApprovesLocally() bool { return true }
