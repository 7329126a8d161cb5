package handler

import (
	"context"

	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// EthAccountsHandler answers eth_accounts: the addresses the calling site
// has been granted, or an empty list. Locked wallets also answer with an
// empty list rather than an error, matching provider convention.
type EthAccountsHandler struct {
	accounts    service.Accounts
	permissions *service.PermissionsService
}

func NewEthAccountsHandler(accounts service.Accounts, permissions *service.PermissionsService) *EthAccountsHandler {
	return &EthAccountsHandler{accounts: accounts, permissions: permissions}
}

func (h *EthAccountsHandler) Methods() []string {
	return []string{"eth_accounts"}
}

func (h *EthAccountsHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return rpc.Immediate([]string{})
}

func (h *EthAccountsHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	domain := siteDomain(req)
	if !h.permissions.Has(domain, service.CapAccounts) {
		return rpc.Immediate([]string{})
	}
	acc := h.accounts.ActiveAccount()
	if acc == nil {
		return rpc.Immediate([]string{})
	}
	return rpc.Immediate([]string{acc.AddressC})
}
