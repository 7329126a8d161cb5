package bip32

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ExtendedKey wraps a BIP-32 extended key.
type ExtendedKey interface {
	// String returns the Base58 form (xprv... / xpub...)
	String() string
	// ECPubKey returns the underlying EC public key
	ECPubKey() (*btcec.PublicKey, error)
	// ECPrivKey returns the underlying EC private key, used for signing
	ECPrivKey() (*btcec.PrivateKey, error)
	// Derive derives the child key at index
	Derive(index uint32) (ExtendedKey, error)
	// IsPrivate reports whether the key carries private material
	IsPrivate() bool
	// Address returns the P2PKH address for the key's network
	Address() string
	// Neuter strips private material, returning the extended public key
	Neuter() (ExtendedKey, error)
}

// HDWallet derives keys from a master key along BIP-44 style paths.
type HDWallet interface {
	MasterKey() ExtendedKey
	// DerivePath derives along a path like "m/44'/60'/0'/0/0"
	DerivePath(path string) (ExtendedKey, error)
}

var (
	ErrInvalidSeed = errors.New("seed must be between 16 and 64 bytes")
	ErrInvalidPath = errors.New("invalid derivation path")
)
