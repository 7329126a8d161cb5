package handler

import (
	"context"
	"errors"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// WalletRequestPermissionsHandler services wallet_requestPermissions
// (EIP-2255). Always defers: re-requesting permission is how sites prompt
// the user to review a grant.
type WalletRequestPermissionsHandler struct {
	permissions *service.PermissionsService
	opener      ApprovalOpener
	now         func() int64
}

func NewWalletRequestPermissionsHandler(permissions *service.PermissionsService, opener ApprovalOpener, now func() int64) *WalletRequestPermissionsHandler {
	return &WalletRequestPermissionsHandler{permissions: permissions, opener: opener, now: now}
}

func (h *WalletRequestPermissionsHandler) Methods() []string {
	return []string{"wallet_requestPermissions"}
}

func (h *WalletRequestPermissionsHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *WalletRequestPermissionsHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	domain := siteDomain(req)
	if domain == "" {
		return rpc.Errored(invalidSiteMetadata)
	}
	display := connectDisplayData{Domain: domain}
	if req.Site != nil {
		display.Name = req.Site.Name
		display.Icon = req.Site.Icon
	}
	return deferToApproval(ctx, h.opener, req, display, "permissions")
}

func (h *WalletRequestPermissionsHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	if act.Site == nil || act.Site.Domain == "" {
		return nil, errors.New("unrecognized domain")
	}
	perm, err := h.permissions.Grant(act.Site.Domain, service.CapAccounts, h.now())
	if err != nil {
		return nil, err
	}
	return []service.Permission{perm}, nil
}

func (h *WalletRequestPermissionsHandler) ApprovesLocally() bool { return true }

// WalletGetPermissionsHandler answers wallet_getPermissions from the
// stored grants, no approval involved.
type WalletGetPermissionsHandler struct {
	permissions *service.PermissionsService
}

func NewWalletGetPermissionsHandler(permissions *service.PermissionsService) *WalletGetPermissionsHandler {
	return &WalletGetPermissionsHandler{permissions: permissions}
}

func (h *WalletGetPermissionsHandler) Methods() []string {
	return []string{"wallet_getPermissions"}
}

func (h *WalletGetPermissionsHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return rpc.Immediate([]service.Permission{})
}

func (h *WalletGetPermissionsHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	perms := h.permissions.List(siteDomain(req))
	if perms == nil {
		perms = []service.Permission{}
	}
	return rpc.Immediate(perms)
}
