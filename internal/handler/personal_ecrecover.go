package handler

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"wallet-background/internal/rpc"
	"wallet-background/pkg/rpcerr"
)

// PersonalEcRecoverHandler services personal_ecRecover: a pure computation
// over public inputs, answered immediately and identically regardless of
// lock state.
type PersonalEcRecoverHandler struct{}

func NewPersonalEcRecoverHandler() *PersonalEcRecoverHandler {
	return &PersonalEcRecoverHandler{}
}

func (h *PersonalEcRecoverHandler) Methods() []string {
	return []string{"personal_ecRecover"}
}

func (h *PersonalEcRecoverHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.recover(req)
}

func (h *PersonalEcRecoverHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return h.recover(req)
}

func (h *PersonalEcRecoverHandler) recover(req *rpc.Request) rpc.Outcome {
	var rawMsg, rawSig string
	if err := req.PositionalParams(&rawMsg, &rawSig); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}

	address, err := ecRecover(rawMsg, rawSig)
	if err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}
	return rpc.Immediate(address)
}

func ecRecover(rawMsg, rawSig string) (string, error) {
	sig, err := hexutil.Decode(rawSig)
	if err != nil {
		return "", errors.New("signature is not valid hex")
	}
	if len(sig) != crypto.SignatureLength {
		return "", errors.New("signature must be 65 bytes long")
	}
	if sig[crypto.RecoveryIDOffset] != 27 && sig[crypto.RecoveryIDOffset] != 28 {
		return "", errors.New("invalid signature recovery id")
	}

	msg := []byte(rawMsg)
	if decoded, decErr := hexutil.Decode(rawMsg); decErr == nil {
		msg = decoded
	}

	// normalize v back to 0/1 for the recovery routine
	cpy := make([]byte, len(sig))
	copy(cpy, sig)
	cpy[crypto.RecoveryIDOffset] -= 27

	pub, err := crypto.SigToPub(accounts.TextHash(msg), cpy)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
