package handler

import (
	"context"

	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// avalancheAccount is the richer account projection exposed to connected
// dApps, active-flagged so the page needs no separate selection call.
type avalancheAccount struct {
	Index      uint32 `json:"index"`
	Name       string `json:"name"`
	AddressC   string `json:"addressC"`
	AddressBTC string `json:"addressBTC"`
	AddressAVM string `json:"addressAVM"`
	AddressPVM string `json:"addressPVM"`
	Active     bool   `json:"active"`
}

// AvalancheGetAccountsHandler services avalanche_getAccounts for sites
// already holding the accounts permission.
type AvalancheGetAccountsHandler struct {
	accounts    service.Accounts
	permissions *service.PermissionsService
}

func NewAvalancheGetAccountsHandler(accounts service.Accounts, permissions *service.PermissionsService) *AvalancheGetAccountsHandler {
	return &AvalancheGetAccountsHandler{accounts: accounts, permissions: permissions}
}

func (h *AvalancheGetAccountsHandler) Methods() []string {
	return []string{"avalanche_getAccounts"}
}

func (h *AvalancheGetAccountsHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *AvalancheGetAccountsHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	domain := siteDomain(req)
	if domain == "" {
		return rpc.Errored(invalidSiteMetadata)
	}
	if !h.permissions.Has(domain, service.CapAccounts) {
		return unauthorized()
	}

	active := h.accounts.ActiveAccount()
	list := h.accounts.List()
	out := make([]avalancheAccount, 0, len(list))
	for _, acc := range list {
		out = append(out, avalancheAccount{
			Index:      acc.Index,
			Name:       acc.Name,
			AddressC:   acc.AddressC,
			AddressBTC: acc.AddressBTC,
			AddressAVM: acc.AddressAVM,
			AddressPVM: acc.AddressPVM,
			Active:     active != nil && active.ID == acc.ID,
		})
	}
	return rpc.Immediate(out)
}
