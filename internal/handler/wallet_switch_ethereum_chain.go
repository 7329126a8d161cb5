package handler

import (
	"context"
	"strconv"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// switchEthereumChainParameter is the EIP-3326 request payload.
type switchEthereumChainParameter struct {
	ChainID string `json:"chainId"`
}

// WalletSwitchEthereumChainHandler services wallet_switchEthereumChain.
// Unknown chains answer 4902 so the page can follow up with
// wallet_addEthereumChain.
type WalletSwitchEthereumChainHandler struct {
	networks   service.Networks
	opener     ApprovalOpener
	firstParty map[string]bool
}

func NewWalletSwitchEthereumChainHandler(networks service.Networks, opener ApprovalOpener, firstPartyDomains []string) *WalletSwitchEthereumChainHandler {
	firstParty := make(map[string]bool, len(firstPartyDomains))
	for _, domain := range firstPartyDomains {
		firstParty[domain] = true
	}
	return &WalletSwitchEthereumChainHandler{
		networks:   networks,
		opener:     opener,
		firstParty: firstParty,
	}
}

func (h *WalletSwitchEthereumChainHandler) Methods() []string {
	return []string{"wallet_switchEthereumChain"}
}

func (h *WalletSwitchEthereumChainHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *WalletSwitchEthereumChainHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var param switchEthereumChainParameter
	if err := req.ObjectParams(&param); err != nil || param.ChainID == "" {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Chain config missing"))
	}

	chainID, err := service.ParseChainID(param.ChainID)
	if err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Chain config missing"))
	}

	if active := h.networks.ActiveNetwork(); active != nil && active.ChainID == chainID {
		return rpc.Immediate(nil)
	}

	network, isKnown := h.networks.ActiveNetworks()[strconv.FormatInt(chainID, 10)]
	if !isKnown {
		return rpc.Errored(rpcerr.UnrecognizedChain.WithMessage(
			"Unrecognized chain ID " + param.ChainID + ". Try adding the chain using wallet_addEthereumChain first."))
	}

	if h.firstParty[siteDomain(req)] {
		if err := h.networks.SetNetwork(siteDomain(req), network); err != nil {
			return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
		}
		return rpc.Immediate(nil)
	}

	return deferToApproval(ctx, h.opener, req,
		addChainDisplayData{Network: network, IsSwitch: true}, "network/switch")
}

func (h *WalletSwitchEthereumChainHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var display addChainDisplayData
	if err := act.DecodeDisplayData(&display); err != nil {
		return nil, err
	}
	return nil, h.networks.SetNetwork(siteDomain(act.Request()), display.Network)
}

func (h *WalletSwitchEthereumChainHandler) ApprovesLocally() bool { return true }
