package handler

import (
	"context"
	"fmt"
	"strconv"

	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// providerState is the metadata negotiation payload newly injected pages
// ask for before anything else.
type providerState struct {
	IsUnlocked     bool     `json:"isUnlocked"`
	ChainID        string   `json:"chainId"`
	NetworkVersion string   `json:"networkVersion"`
	Accounts       []string `json:"accounts"`
}

// ProviderStateHandler answers metamask_getProviderState. It tolerates a
// locked wallet: pages need the chain id and lock state to render before
// the user ever unlocks.
type ProviderStateHandler struct {
	lock        interface{ Locked() bool }
	accounts    service.Accounts
	networks    service.Networks
	permissions *service.PermissionsService
}

func NewProviderStateHandler(lock interface{ Locked() bool }, accounts service.Accounts, networks service.Networks, permissions *service.PermissionsService) *ProviderStateHandler {
	return &ProviderStateHandler{lock: lock, accounts: accounts, networks: networks, permissions: permissions}
}

func (h *ProviderStateHandler) Methods() []string {
	return []string{"metamask_getProviderState"}
}

func (h *ProviderStateHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.state(req, false)
}

func (h *ProviderStateHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.state(req, true)
}

func (h *ProviderStateHandler) state(req *rpc.Request, unlocked bool) rpc.Outcome {
	state := providerState{IsUnlocked: unlocked, Accounts: []string{}}

	if network := h.networks.ActiveNetwork(); network != nil {
		state.ChainID = fmt.Sprintf("0x%x", network.ChainID)
		state.NetworkVersion = strconv.FormatInt(network.ChainID, 10)
	}

	if unlocked && h.permissions.Has(siteDomain(req), service.CapAccounts) {
		if acc := h.accounts.ActiveAccount(); acc != nil {
			state.Accounts = []string{acc.AddressC}
		}
	}
	return rpc.Immediate(state)
}
