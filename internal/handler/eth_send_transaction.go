package handler

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"wallet-background/internal/action"
	"wallet-background/internal/rpc"
	"wallet-background/internal/service"
	"wallet-background/pkg/rpcerr"
)

const defaultGasLimit = 21000

// ethTxParams is the EIP-1193 transaction parameter object.
type ethTxParams struct {
	From                 string `json:"from"`
	To                   string `json:"to,omitempty"`
	Value                string `json:"value,omitempty"`
	Data                 string `json:"data,omitempty"`
	Gas                  string `json:"gas,omitempty"`
	GasPrice             string `json:"gasPrice,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
	Nonce                string `json:"nonce,omitempty"`
}

// ethTxDisplayData is the parsed transaction summary the approval screen
// renders.
type ethTxDisplayData struct {
	From         string `json:"from"`
	To           string `json:"to,omitempty"`
	ValueWei     string `json:"valueWei"`
	ValueDisplay string `json:"valueDisplay"`
	Data         string `json:"data,omitempty"`
	ChainID      int64  `json:"chainId"`
	Symbol       string `json:"symbol"`
}

// EthSendTransactionHandler services eth_sendTransaction. Third-party
// sites always go through approval; configured first-party surfaces are
// auto-approved inline.
type EthSendTransactionHandler struct {
	accounts   service.Accounts
	networks   service.Networks
	wallet     service.Wallet
	opener     ApprovalOpener
	firstParty map[string]bool
}

func NewEthSendTransactionHandler(accounts service.Accounts, networks service.Networks, wallet service.Wallet, opener ApprovalOpener, firstPartyDomains []string) *EthSendTransactionHandler {
	firstParty := make(map[string]bool, len(firstPartyDomains))
	for _, domain := range firstPartyDomains {
		firstParty[domain] = true
	}
	return &EthSendTransactionHandler{
		accounts:   accounts,
		networks:   networks,
		wallet:     wallet,
		opener:     opener,
		firstParty: firstParty,
	}
}

func (h *EthSendTransactionHandler) Methods() []string {
	return []string{"eth_sendTransaction"}
}

func (h *EthSendTransactionHandler) HandleUnauthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	return unauthorized()
}

func (h *EthSendTransactionHandler) HandleAuthenticated(ctx context.Context, req *rpc.Request) rpc.Outcome {
	var params ethTxParams
	if err := req.ObjectParams(&params); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}
	if err := h.validate(&params); err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}

	network, err := h.networks.GetNetwork(req.Scope)
	if err != nil {
		return rpc.Errored(rpcerr.InvalidParams.WithMessage(err.Error()))
	}

	if h.firstParty[siteDomain(req)] {
		// privileged first-party surface: sign and submit without a popup
		hash, err := h.signAndSend(ctx, req.Scope, network, &params)
		if err != nil {
			return rpc.Errored(rpcerr.Internal.WithMessage(err.Error()))
		}
		return rpc.Immediate(hash)
	}

	return deferToApproval(ctx, h.opener, req, h.displayData(network, &params), "sign/transaction")
}

func (h *EthSendTransactionHandler) OnApproved(ctx context.Context, act *action.Action) (interface{}, error) {
	var params ethTxParams
	if err := act.Request().ObjectParams(&params); err != nil {
		return nil, err
	}
	network, err := h.networks.GetNetwork(act.Scope)
	if err != nil {
		return nil, err
	}
	return h.signAndSend(ctx, act.Scope, network, &params)
}

func (h *EthSendTransactionHandler) validate(params *ethTxParams) error {
	acc := h.accounts.ActiveAccount()
	if acc == nil {
		return errors.New("no active account")
	}
	if !strings.EqualFold(params.From, acc.AddressC) {
		return fmt.Errorf("from address %s is not the active account", params.From)
	}
	if params.To != "" && !common.IsHexAddress(params.To) {
		return fmt.Errorf("invalid to address %s", params.To)
	}
	if _, err := optionalBig(params.Value); err != nil {
		return errors.New("value is not valid hex")
	}
	return nil
}

func (h *EthSendTransactionHandler) signAndSend(ctx context.Context, scope string, network *service.Network, params *ethTxParams) (string, error) {
	tx, err := buildEthTx(network.ChainID, params)
	if err != nil {
		return "", err
	}
	signed, err := h.wallet.SignTransaction(ctx, tx, big.NewInt(network.ChainID))
	if err != nil {
		return "", err
	}
	return h.networks.SendTransaction(ctx, scope, signed)
}

func (h *EthSendTransactionHandler) displayData(network *service.Network, params *ethTxParams) ethTxDisplayData {
	value, _ := optionalBig(params.Value)
	display := ethTxDisplayData{
		From:     params.From,
		To:       params.To,
		ValueWei: value.String(),
		Data:     params.Data,
		ChainID:  network.ChainID,
		Symbol:   network.NativeToken.Symbol,
	}
	display.ValueDisplay = decimal.NewFromBigInt(value, -int32(network.NativeToken.Decimals)).String()
	return display
}

// buildEthTx assembles the transaction from page-supplied fields. Fee and
// nonce population when absent is the transaction-construction
// collaborator's concern; missing fields default conservatively here.
func buildEthTx(chainID int64, params *ethTxParams) (*types.Transaction, error) {
	value, err := optionalBig(params.Value)
	if err != nil {
		return nil, err
	}
	nonceBig, err := optionalBig(params.Nonce)
	if err != nil {
		return nil, err
	}
	gasBig, err := optionalBig(params.Gas)
	if err != nil {
		return nil, err
	}
	gas := gasBig.Uint64()
	if gas == 0 {
		gas = defaultGasLimit
	}

	var data []byte
	if params.Data != "" {
		if data, err = hexutil.Decode(params.Data); err != nil {
			return nil, errors.New("data is not valid hex")
		}
	}

	var to *common.Address
	if params.To != "" {
		addr := common.HexToAddress(params.To)
		to = &addr
	}

	if params.MaxFeePerGas != "" {
		maxFee, err := optionalBig(params.MaxFeePerGas)
		if err != nil {
			return nil, err
		}
		tip, err := optionalBig(params.MaxPriorityFeePerGas)
		if err != nil {
			return nil, err
		}
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   big.NewInt(chainID),
			Nonce:     nonceBig.Uint64(),
			GasTipCap: tip,
			GasFeeCap: maxFee,
			Gas:       gas,
			To:        to,
			Value:     value,
			Data:      data,
		}), nil
	}

	gasPrice, err := optionalBig(params.GasPrice)
	if err != nil {
		return nil, err
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonceBig.Uint64(),
		GasPrice: gasPrice,
		Gas:      gas,
		To:       to,
		Value:    value,
		Data:     data,
	}), nil
}

// optionalBig parses an optional 0x-hex quantity, zero when absent.
func optionalBig(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	return hexutil.DecodeBig(raw)
}
