package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

// typedDataDisplayData previews an EIP-712 payload for the approval screen.
type typedDataDisplayData struct {
	Address     string          `json:"address"`
	PrimaryType string          `json:"primaryType"`
	Domain      string          `json:"domain,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// SignTypedDataHandler services the eth_signTypedData family. All versions
// defer unconditionally; only the v3/v4 payload layout is fully structured,
// earlier versions are carried through opaquely for the signer.
type SignTypedDataHandler struct {
	wallet service.Wallet
	opener ApprovalOpener
}

func NewSignTypedDataHandler(wallet service.Wallet, opener ApprovalOpener) *SignTypedDataHandler {
	return &SignTypedDataHandler{wallet: wallet, opener: opener}
}

func (h *SignTypedDataHandler) Methods() []string {
	return []string{
		"eth_signTypedData",
		"eth_signTypedData_v1",
		"eth_signTypedData_v3",
		"eth_signTypedData_v4",
	}
}

func (h *SignTypedDataHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *SignTypedDataHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	address, data, raw, err := decodeTypedDataParams(req)
	if err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}

	display := typedDataDisplayData{
		Address:     address,
		PrimaryType: data.PrimaryType,
		Domain:      data.Domain.Name,
		Payload:     raw,
	}
	return deferToApproval(ctx, h.opener, req, display, "sign")
}

func (h *SignTypedDataHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	_, data, _, err := decodeTypedDataParams(act.Request())
	if err != nil {
		return nil, err
	}
	sig, err := h.wallet.SignTypedData(ctx, data)
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(sig), nil
}

// decodeTypedDataParams accepts both [address, typedData] (v3/v4) and
// [typedData, address] (v1/legacy) orderings.
func decodeTypedDataParams(req *rpc.Request) (address string, data apitypes.TypedData, raw json.RawMessage, err error) {
	var positional []json.RawMessage
	if err = json.Unmarshal(req.Params, &positional); err != nil {
		return "", data, nil, errors.New("params must be an array")
	}
	if len(positional) < 2 {
		return "", data, nil, errors.New("expected [address, typedData] params")
	}

	first, second := positional[0], positional[1]
	if json.Unmarshal(first, &address) == nil && len(address) > 0 && address[0] != '{' {
		raw = second
	} else {
		raw = first
		if err = json.Unmarshal(second, &address); err != nil {
			return "", data, nil, errors.New("address param missing")
		}
	}

	// typed data may arrive double-encoded as a JSON string
	var encoded string
	if json.Unmarshal(raw, &encoded) == nil {
		raw = json.RawMessage(encoded)
	}

	if err = json.Unmarshal(raw, &data); err != nil {
		return "", data, nil, errors.New("typed data param is malformed")
	}
	if data.PrimaryType == "" || data.Types == nil {
		return "", data, nil, errors.New("typed data is missing types or primaryType")
	}
	return address, data, raw, nil
}
