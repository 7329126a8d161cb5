package handler

import (
	"context"

	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// AccountRenameHandler services the UI's account_rename operation.
// Success answers the literal string "success"; failures keep the
// "Error: " prefix the extension UI expects.
type AccountRenameHandler struct {
	accounts service.Accounts
}

func NewAccountRenameHandler(accounts service.Accounts) *AccountRenameHandler {
	return &AccountRenameHandler{accounts: accounts}
}

func (h *AccountRenameHandler) Methods() []string {
	return []string{"account_rename"}
}

func (h *AccountRenameHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *AccountRenameHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var id, name string
	if err := req.PositionalParams(&id, &name); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Error: " + err.Error()))
	}
	if err := h.accounts.SetAccountName(id, name); err != nil {
		return rpc.Errored(rpcerr.Internal.WithMessage("Error: " + err.Error()))
	}
	return rpc.Immediate("success")
}

// AccountSelectHandler services the UI's account_select operation.
type AccountSelectHandler struct {
	accounts service.Accounts
}

func NewAccountSelectHandler(accounts service.Accounts) *AccountSelectHandler {
	return &AccountSelectHandler{accounts: accounts}
}

func (h *AccountSelectHandler) Methods() []string {
	return []string{"account_select"}
}

func (h *AccountSelectHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *AccountSelectHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var id string
	if err := req.PositionalParams(&id); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}
	if err := h.accounts.SelectAccount(id); err != nil {
		return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
	}
	return rpc.Immediate("success")
}
