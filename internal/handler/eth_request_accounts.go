package handler

import (
	"context"
	"errors"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// connectDisplayData is what the permissions approval screen renders.
type connectDisplayData struct {
	Domain string `json:"domain"`
	Name   string `json:"name,omitempty"`
	Icon   string `json:"icon,omitempty"`
}

// EthRequestAccountsHandler services eth_requestAccounts, the dApp connect
// call. Already-connected sites get their accounts back immediately;
// everyone else goes through the connect approval.
type EthRequestAccountsHandler struct {
	accounts    service.Accounts
	permissions *service.PermissionsService
	opener      ApprovalOpener
	now         func() int64
}

func NewEthRequestAccountsHandler(accounts service.Accounts, permissions *service.PermissionsService, opener ApprovalOpener, now func() int64) *EthRequestAccountsHandler {
	return &EthRequestAccountsHandler{
		accounts:    accounts,
		permissions: permissions,
		opener:      opener,
		now:         now,
	}
}

func (h *EthRequestAccountsHandler) Methods() []string {
	return []string{"eth_requestAccounts"}
}

func (h *EthRequestAccountsHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return rpc.Errored(rpcerr.Unauthorized.WithMessage("wallet must be unlocked to connect"))
}

func (h *EthRequestAccountsHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	domain := siteDomain(req)
	if domain == "" {
		return rpc.Errored(invalidSiteMetadata)
	}

	if h.permissions.Has(domain, service.CapAccounts) {
		return h.accountsResult()
	}

	display := connectDisplayData{Domain: domain}
	if req.Site != nil {
		display.Name = req.Site.Name
		display.Icon = req.Site.Icon
	}
	return deferToApproval(ctx, h.opener, req, display, "permissions")
}

// OnApproved grants the accounts capability; there is nothing to submit to
// a chain, so this approval completes locally.
func (h *EthRequestAccountsHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	domain := ""
	if act.Site != nil {
		domain = act.Site.Domain
	}
	if domain == "" {
		return nil, errors.New("unrecognized domain")
	}
	if _, err := h.permissions.Grant(domain, service.CapAccounts, h.now()); err != nil {
		return nil, err
	}

	acc := h.accounts.ActiveAccount()
	if acc == nil {
		return nil, errors.New("no active account")
	}
	return []string{acc.AddressC}, nil
}

func (h *EthRequestAccountsHandler) ApprovesLocally() bool { return true }

func (h *EthRequestAccountsHandler) accountsResult() rpc.Outcome {
	acc := h.accounts.ActiveAccount()
	if acc == nil {
		return rpc.Errored(rpcerr.Internal.WithMessage("no active account"))
	}
	return rpc.Immediate([]string{acc.AddressC})
}
