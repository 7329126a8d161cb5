package handler

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// signMessageDisplayData previews the message the user is asked to sign.
type signMessageDisplayData struct {
	Address string `json:"address"`
	// MessageHex is the raw payload as received
	MessageHex string `json:"messageHex"`
	// Message is the UTF-8 rendering when the payload decodes cleanly
	Message string `json:"message,omitempty"`
}

// PersonalSignHandler services personal_sign. Message signing is
// state-changing from the user's perspective, so it defers unconditionally.
type PersonalSignHandler struct {
	wallet service.Wallet
	opener ApprovalOpener
}

func NewPersonalSignHandler(wallet service.Wallet, opener ApprovalOpener) *PersonalSignHandler {
	return &PersonalSignHandler{wallet: wallet, opener: opener}
}

func (h *PersonalSignHandler) Methods() []string {
	return []string{"personal_sign"}
}

func (h *PersonalSignHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *PersonalSignHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	msg, address, err := decodePersonalSignParams(req)
	if err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}

	display := signMessageDisplayData{
		Address:    address,
		MessageHex: hexutil.Encode(msg),
	}
	if utf8.Valid(msg) {
		display.Message = string(msg)
	}
	return deferToApproval(ctx, h.opener, req, display, "sign")
}

func (h *PersonalSignHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	msg, _, err := decodePersonalSignParams(act.Request())
	if err != nil {
		return nil, err
	}
	sig, err := h.wallet.SignPersonalMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(sig), nil
}

// decodePersonalSignParams unpacks [message, address]. The message is hex
// per the provider convention, but plain strings are accepted the way other
// wallets accept them.
func decodePersonalSignParams(req *rpc.Request) (msg []byte, address string, err error) {
	var rawMsg, addr string
	if err := req.PositionalParams(&rawMsg, &addr); err != nil {
		return nil, "", err
	}
	if rawMsg == "" {
		return nil, "", errors.New("message param missing")
	}

	if decoded, decErr := hexutil.Decode(rawMsg); decErr == nil {
		return decoded, addr, nil
	}
	return []byte(rawMsg), addr, nil
}
