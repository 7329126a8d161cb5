package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Account is a wallet account with one address per supported chain.
type Account struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Index      uint32 `json:"index"`
	AddressC   string `json:"addressC"`
	AddressBTC string `json:"addressBTC"`
	AddressAVM string `json:"addressAVM"`
	AddressPVM string `json:"addressPVM"`
}

// DerivedAddresses carries the per-chain addresses computed when an
// account is created.
type DerivedAddresses struct {
	AddressC   string
	AddressBTC string
	AddressAVM string
	AddressPVM string
}

// Accounts manages the account list and the active selection.
type Accounts interface {
	ActiveAccount() *Account
	List() []Account
	SetAccountName(id, name string) error
	SelectAccount(id string) error
}

// NativeToken describes a network's gas token.
type NativeToken struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Network is the wallet's view of a chain.
type Network struct {
	ChainID     int64       `json:"chainId"`
	ChainName   string      `json:"chainName"`
	VMType      string      `json:"vmName"` // "EVM", "BITCOIN", "AVM", "PVM"
	RPCURL      string      `json:"rpcUrl"`
	NativeToken NativeToken `json:"networkToken"`
	ExplorerURL string      `json:"explorerUrl,omitempty"`
	LogoURI     string      `json:"logoUri,omitempty"`
	IsTestnet   bool        `json:"isTestnet,omitempty"`
	IsCustom    bool        `json:"isCustom,omitempty"`
}

// Networks is the network collaborator the mediation core talks to.
type Networks interface {
	// ActiveNetworks returns the known networks keyed by decimal chain id
	ActiveNetworks() map[string]Network
	// GetNetwork resolves a request scope to a network; empty scope means
	// the active one
	GetNetwork(scope string) (*Network, error)
	ActiveNetwork() *Network
	// SetNetwork switches the active network for the given site domain
	SetNetwork(domain string, n Network) error
	SaveCustomNetwork(n Network) error
	// IsValidRPCUrl verifies the endpoint actually serves the chain id
	IsValidRPCUrl(chainID int64, rpcURL string) bool
	// SendTransaction broadcasts a signed transaction on the scoped chain
	// and returns its hash
	SendTransaction(ctx context.Context, scope string, signedTx []byte) (string, error)
}

// Wallet signs on behalf of the active account. Implementations must fail
// when the wallet is locked.
type Wallet interface {
	// SignPersonalMessage signs an EIP-191 personal message
	SignPersonalMessage(ctx context.Context, msg []byte) ([]byte, error)
	// SignTypedData signs EIP-712 typed data
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
	// SignTransaction signs an EVM transaction and returns the RLP payload
	SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error)
	// SignAvalancheTx signs a serialized Avalanche transaction for the
	// given chain alias ("X", "P" or "C")
	SignAvalancheTx(ctx context.Context, txHex string, chainAlias string) (string, error)
	// SignBitcoinTx signs a BTC send and returns the raw transaction
	SignBitcoinTx(ctx context.Context, to string, amountSat int64, feeRate int64) ([]byte, error)
	// ExportMnemonic re-verifies the password and returns the plaintext
	// mnemonic
	ExportMnemonic(ctx context.Context, password string) (string, error)
}

// Contact is an address-book entry shared with approved dApps.
type Contact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Contacts exposes the user's address book.
type Contacts interface {
	List() []Contact
}
