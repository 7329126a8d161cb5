package handler

import (
	"context"

	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// UnlockHandler services the UI's unlock operation. It is the one internal
// operation that must work while the wallet is locked.
type UnlockHandler struct {
	lock *service.LockService
}

func NewUnlockHandler(lock *service.LockService) *UnlockHandler {
	return &UnlockHandler{lock: lock}
}

func (h *UnlockHandler) Methods() []string {
	return []string{"unlock"}
}

func (h *UnlockHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var password string
	if err := req.PositionalParams(&password); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}
	if err := h.lock.Unlock(ctx, password); err != nil {
		return rpc.Errored(rpcerr.Unauthorized.WithMessage(err.Error()))
	}
	return rpc.Immediate(true)
}

func (h *UnlockHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	// unlocking an unlocked wallet succeeds without touching the keystore
	return rpc.Immediate(true)
}

// LockHandler services the UI's lock operation.
type LockHandler struct {
	lock *service.LockService
}

func NewLockHandler(lock *service.LockService) *LockHandler {
	return &LockHandler{lock: lock}
}

func (h *LockHandler) Methods() []string {
	return []string{"lock"}
}

func (h *LockHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return rpc.Immediate(true)
}

func (h *LockHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	h.lock.Lock()
	return rpc.Immediate(true)
}

// MnemonicExportHandler services the UI's mnemonic_export operation. The
// password is re-verified even though the wallet is already unlocked.
type MnemonicExportHandler struct {
	wallet service.Wallet
}

func NewMnemonicExportHandler(wallet service.Wallet) *MnemonicExportHandler {
	return &MnemonicExportHandler{wallet: wallet}
}

func (h *MnemonicExportHandler) Methods() []string {
	return []string{"mnemonic_export"}
}

func (h *MnemonicExportHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *MnemonicExportHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var password string
	if err := req.PositionalParams(&password); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}
	mnemonic, err := h.wallet.ExportMnemonic(ctx, password)
	if err != nil {
		return rpc.Errored(rpcerr.Unauthorized.WithMessage(err.Error()))
	}
	return rpc.Immediate(mnemonic)
}
