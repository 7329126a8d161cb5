package handler

import (
	"context"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// avalancheTxParams carries a pre-built unsigned Avalanche transaction.
type avalancheTxParams struct {
	TransactionHex string `json:"transactionHex"`
	ChainAlias     string `json:"chainAlias"`
}

func decodeAvalancheTxParams(req *rpc.Request) (*avalancheTxParams, *rpcerr.Error) {
	var params avalancheTxParams
	if err := req.ObjectParams(&params); err != nil {
		return nil, rpcerr.InvalidParams.WithMessage("Missing mandatory param(s)")
	}
	if params.TransactionHex == "" || params.ChainAlias == "" {
		return nil, rpcerr.InvalidParams.WithMessage("Missing mandatory param(s)")
	}
	switch params.ChainAlias {
	case "X", "P", "C":
	default:
		return nil, rpcerr.InvalidParams.WithMessage("Missing mandatory param(s)")
	}
	return &params, nil
}

// AvalancheSendTransactionHandler services avalanche_sendTransaction: sign
// the supplied transaction on approval and issue it to the aliased chain.
type AvalancheSendTransactionHandler struct {
	wallet service.Wallet
	issuer service.AvalancheIssuer
	opener ApprovalOpener
}

func NewAvalancheSendTransactionHandler(wallet service.Wallet, issuer service.AvalancheIssuer, opener ApprovalOpener) *AvalancheSendTransactionHandler {
	return &AvalancheSendTransactionHandler{wallet: wallet, issuer: issuer, opener: opener}
}

func (h *AvalancheSendTransactionHandler) Methods() []string {
	return []string{"avalanche_sendTransaction"}
}

func (h *AvalancheSendTransactionHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *AvalancheSendTransactionHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	params, rerr := decodeAvalancheTxParams(req)
	if rerr != nil {
		return rpc.Errored(rerr)
	}
	return deferToApproval(ctx, h.opener, req, params, "approve/avalancheSignTx")
}

func (h *AvalancheSendTransactionHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var params avalancheTxParams
	if err := act.DecodeDisplayData(&params); err != nil {
		return nil, err
	}
	signedHex, err := h.wallet.SignAvalancheTx(ctx, params.TransactionHex, params.ChainAlias)
	if err != nil {
		return nil, err
	}
	txID, err := h.issuer.IssueTx(ctx, params.ChainAlias, signedHex)
	if err != nil {
		return nil, err
	}
	return map[string]string{"txID": txID}, nil
}
