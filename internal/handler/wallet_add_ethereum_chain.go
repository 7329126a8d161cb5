package handler

import (
	"context"
	"errors"
	"strconv"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// addEthereumChainParameter is the EIP-3085 request payload.
type addEthereumChainParameter struct {
	ChainID           string               `json:"chainId"`
	ChainName         string               `json:"chainName"`
	RPCUrls           []string             `json:"rpcUrls"`
	NativeCurrency    *service.NativeToken `json:"nativeCurrency"`
	BlockExplorerUrls []string             `json:"blockExplorerUrls"`
	IconUrls          []string             `json:"iconUrls"`
}

// addChainDisplayData carries both the requested network and whether the
// approval screen is a switch prompt or an add prompt.
type addChainDisplayData struct {
	Network  service.Network `json:"network"`
	IsSwitch bool            `json:"isSwitch"`
}

// WalletAddEthereumChainHandler services wallet_addEthereumChain. Known
// chains turn into a switch prompt, unknown ones are validated against
// their RPC endpoint before an add prompt opens.
type WalletAddEthereumChainHandler struct {
	networks   service.Networks
	opener     ApprovalOpener
	firstParty map[string]bool
}

func NewWalletAddEthereumChainHandler(networks service.Networks, opener ApprovalOpener, firstPartyDomains []string) *WalletAddEthereumChainHandler {
	firstParty := make(map[string]bool, len(firstPartyDomains))
	for _, domain := range firstPartyDomains {
		firstParty[domain] = true
	}
	return &WalletAddEthereumChainHandler{
		networks:   networks,
		opener:     opener,
		firstParty: firstParty,
	}
}

func (h *WalletAddEthereumChainHandler) Methods() []string {
	return []string{"wallet_addEthereumChain"}
}

func (h *WalletAddEthereumChainHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *WalletAddEthereumChainHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var param addEthereumChainParameter
	if err := req.ObjectParams(&param); err != nil || param.ChainID == "" {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Chain config missing"))
	}

	chainID, err := service.ParseChainID(param.ChainID)
	if err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Chain config missing"))
	}

	// requesting the network that is already active is a silent success
	if active := h.networks.ActiveNetwork(); active != nil && active.ChainID == chainID {
		return rpc.Immediate(nil)
	}

	known, isKnown := h.networks.ActiveNetworks()[strconv.FormatInt(chainID, 10)]
	if isKnown {
		if h.firstParty[siteDomain(req)] {
			if err := h.networks.SetNetwork(siteDomain(req), known); err != nil {
				return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
			}
			return rpc.Immediate(nil)
		}
		return deferToApproval(ctx, h.opener, req,
			addChainDisplayData{Network: known, IsSwitch: true}, "network/switch")
	}

	if len(param.RPCUrls) == 0 {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("RPC url missing"))
	}
	if param.NativeCurrency == nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Expected nativeCurrency param to be defined"))
	}
	if !h.networks.IsValidRPCUrl(chainID, param.RPCUrls[0]) {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("ChainID does not match the rpc url"))
	}

	network := networkFromParam(chainID, &param)
	if h.firstParty[siteDomain(req)] {
		if err := h.saveAndSwitch(siteDomain(req), network); err != nil {
			return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
		}
		return rpc.Immediate(nil)
	}
	return deferToApproval(ctx, h.opener, req,
		addChainDisplayData{Network: network, IsSwitch: false}, "networks/add-popup")
}

func (h *WalletAddEthereumChainHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var display addChainDisplayData
	if err := act.DecodeDisplayData(&display); err != nil {
		return nil, errors.New("Chain config missing")
	}
	if display.IsSwitch {
		return nil, h.networks.SetNetwork(siteDomain(act.Request()), display.Network)
	}
	return nil, h.saveAndSwitch(siteDomain(act.Request()), display.Network)
}

// ApprovesLocally marks the approval as wallet-internal, it settles without
// a submit round trip.
func (h *WalletAddEthereumChainHandler) ApprovesLocally() bool { return true }

func (h *WalletAddEthereumChainHandler) saveAndSwitch(domain string, n service.Network) error {
	if err := h.networks.SaveCustomNetwork(n); err != nil {
		return err
	}
	return h.networks.SetNetwork(domain, n)
}

func networkFromParam(chainID int64, param *addEthereumChainParameter) service.Network {
	n := service.Network{
		ChainID:     chainID,
		ChainName:   param.ChainName,
		VMType:      service.VMTypeEVM,
		RPCURL:      param.RPCUrls[0],
		NativeToken: *param.NativeCurrency,
		IsCustom:    true,
	}
	if len(param.BlockExplorerUrls) > 0 {
		n.ExplorerURL = param.BlockExplorerUrls[0]
	}
	if len(param.IconUrls) > 0 {
		n.LogoURI = param.IconUrls[0]
	}
	return n
}
