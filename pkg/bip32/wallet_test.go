package bip32

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bip39 "github.com/tyler-smith/go-bip39"
)

func TestNewMasterKeyFromSeed(t *testing.T) {
	entropy, err := bip39.NewEntropy(128)
	require.NoError(t, err)
	mnemonic, err := bip39.NewMnemonic(entropy)
	require.NoError(t, err)
	seed := bip39.NewSeed(mnemonic, "")

	wallet, err := NewMasterKeyFromSeed(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.NotNil(t, wallet.MasterKey())
	assert.True(t, wallet.MasterKey().IsPrivate())
}

func TestNewMasterKeyFromSeedRejectsShortSeed(t *testing.T) {
	_, err := NewMasterKeyFromSeed(make([]byte, 8), nil)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDerivePath(t *testing.T) {
	seed, _ := hex.DecodeString("fffcf9f6da3247d8a846f4b6113e6173")
	wallet, err := NewMasterKeyFromSeed(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	for _, path := range []string{"m/0", "m/0'", "m/44'/0'/0'/0/0", "m/44'/60'/0'/0/0"} {
		child, err := wallet.DerivePath(path)
		require.NoError(t, err, path)

		pub, err := child.Neuter()
		require.NoError(t, err, path)
		assert.False(t, pub.IsPrivate(), path)
	}
}

func TestDerivePathDeterministic(t *testing.T) {
	seed, _ := hex.DecodeString("fffcf9f6da3247d8a846f4b6113e6173")
	wallet, err := NewMasterKeyFromSeed(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	a, err := wallet.DerivePath("m/44'/0'/0'/0/0")
	require.NoError(t, err)
	b, err := wallet.DerivePath("m/44'/0'/0'/0/0")
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Address(), b.Address())
}

func TestDerivePathRejectsGarbage(t *testing.T) {
	seed, _ := hex.DecodeString("fffcf9f6da3247d8a846f4b6113e6173")
	wallet, err := NewMasterKeyFromSeed(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	_, err = wallet.DerivePath("m/44'/abc")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
