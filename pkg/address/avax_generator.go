package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AVAXGenerator derives Avalanche X/P-chain addresses: the chain alias,
// a dash, then bech32 over ripemd160(sha256(compressed pubkey)).
type AVAXGenerator struct {
	hrp string
}

// NewAVAXGenerator builds a generator for the given human-readable part,
// "avax" on mainnet and "fuji" on the test network.
func NewAVAXGenerator(hrp string) *AVAXGenerator {
	if hrp == "" {
		hrp = "avax"
	}
	return &AVAXGenerator{hrp: hrp}
}

// PubKeyToAddress converts a compressed public key to the address on the
// given chain alias ("X" or "P").
func (g *AVAXGenerator) PubKeyToAddress(chainAlias string, pubKeyBytes []byte) (string, error) {
	if chainAlias != "X" && chainAlias != "P" {
		return "", fmt.Errorf("unknown chain alias %q", chainAlias)
	}

	shortID := btcutil.Hash160(pubKeyBytes)
	converted, err := bech32.ConvertBits(shortID, 8, 5, true)
	if err != nil {
		return "", err
	}
	encoded, err := bech32.Encode(g.hrp, converted)
	if err != nil {
		return "", err
	}
	return chainAlias + "-" + encoded, nil
}
