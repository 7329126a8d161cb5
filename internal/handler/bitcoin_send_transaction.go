package handler

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

const satoshiDecimals = 8

// bitcoinSendParams is the BTC send request from the page.
type bitcoinSendParams struct {
	Address   string `json:"address"`
	AmountSat int64  `json:"amount"`
	FeeRate   int64  `json:"feeRate"`
}

// bitcoinSendDisplayData adds the human-readable BTC amount for the
// approval screen.
type bitcoinSendDisplayData struct {
	bitcoinSendParams
	AmountDisplay string `json:"amountDisplay"`
}

// BitcoinSendTransactionHandler services bitcoin_sendTransaction.
type BitcoinSendTransactionHandler struct {
	wallet      service.Wallet
	broadcaster service.BitcoinBroadcaster
	opener      ApprovalOpener
	net         *chaincfg.Params
}

func NewBitcoinSendTransactionHandler(wallet service.Wallet, broadcaster service.BitcoinBroadcaster, opener ApprovalOpener, net *chaincfg.Params) *BitcoinSendTransactionHandler {
	if net == nil {
		net = &chaincfg.MainNetParams
	}
	return &BitcoinSendTransactionHandler{
		wallet:      wallet,
		broadcaster: broadcaster,
		opener:      opener,
		net:         net,
	}
}

func (h *BitcoinSendTransactionHandler) Methods() []string {
	return []string{"bitcoin_sendTransaction"}
}

func (h *BitcoinSendTransactionHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *BitcoinSendTransactionHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var params bitcoinSendParams
	if err := req.ObjectParams(&params); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Missing mandatory param(s)"))
	}
	if params.Address == "" || params.AmountSat <= 0 || params.FeeRate <= 0 {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("Missing mandatory param(s)"))
	}
	if _, err := btcutil.DecodeAddress(params.Address, h.net); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage("invalid bitcoin address"))
	}

	display := bitcoinSendDisplayData{
		bitcoinSendParams: params,
		AmountDisplay:     decimal.New(params.AmountSat, -satoshiDecimals).String(),
	}
	return deferToApproval(ctx, h.opener, req, display, "sign/bitcoin")
}

func (h *BitcoinSendTransactionHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var params bitcoinSendParams
	if err := act.DecodeDisplayData(&params); err != nil {
		return nil, err
	}
	rawTx, err := h.wallet.SignBitcoinTx(ctx, params.Address, params.AmountSat, params.FeeRate)
	if err != nil {
		return nil, err
	}
	return h.broadcaster.Broadcast(ctx, rawTx)
}
