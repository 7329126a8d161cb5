package handler

import (
	"context"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
)

// AvalancheSignTransactionHandler services avalanche_signTransaction:
// sign-only, the page issues the transaction itself.
type AvalancheSignTransactionHandler struct {
	wallet service.Wallet
	opener ApprovalOpener
}

func NewAvalancheSignTransactionHandler(wallet service.Wallet, opener ApprovalOpener) *AvalancheSignTransactionHandler {
	return &AvalancheSignTransactionHandler{wallet: wallet, opener: opener}
}

func (h *AvalancheSignTransactionHandler) Methods() []string {
	return []string{"avalanche_signTransaction"}
}

func (h *AvalancheSignTransactionHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *AvalancheSignTransactionHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	params, rerr := decodeAvalancheTxParams(req)
	if rerr != nil {
		return rpc.Errored(rerr)
	}
	return deferToApproval(ctx, h.opener, req, params, "approve/avalancheSignTx")
}

func (h *AvalancheSignTransactionHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var params avalancheTxParams
	if err := act.DecodeDisplayData(&params); err != nil {
		return nil, err
	}
	signedHex, err := h.wallet.SignAvalancheTx(ctx, params.TransactionHex, params.ChainAlias)
	if err != nil {
		return nil, err
	}
	return map[string]string{"signedTransactionHex": signedHex}, nil
}
