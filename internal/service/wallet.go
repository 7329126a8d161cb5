package service

import (
	"context"
	stdecdsa "crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	btcec "github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	bip39 "github.com/tyler-smith/go-bip39"

	"wallet-background/pkg/address"
	"wallet-background/pkg/bip32"
)

// Derivation paths per chain, BIP-44 account 0.
const (
	evmPathPrefix  = "m/44'/60'/0'/0/"
	btcPathPrefix  = "m/44'/0'/0'/0/"
	avaxPathPrefix = "m/44'/9000'/0'/0/"
)

// MnemonicWallet signs with keys derived on demand from the mnemonic held
// by the lock service. While the wallet is locked every signing call fails
// with ErrWalletLocked; no key material is cached across calls.
type MnemonicWallet struct {
	lock     *LockService
	accounts Accounts
	btcnet   *chaincfg.Params
}

func NewMnemonicWallet(lock *LockService, accounts Accounts, btcnet *chaincfg.Params) *MnemonicWallet {
	if btcnet == nil {
		btcnet = &chaincfg.MainNetParams
	}
	return &MnemonicWallet{lock: lock, accounts: accounts, btcnet: btcnet}
}

func (w *MnemonicWallet) SignPersonalMessage(ctx context.Context, msg []byte) ([]byte, error) {
	key, err := w.evmKey()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27 // EIP-191 v convention
	return sig, nil
}

func (w *MnemonicWallet) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	key, err := w.evmKey()
	if err != nil {
		return nil, err
	}
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (w *MnemonicWallet) SignTransaction(ctx context.Context, tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	key, err := w.evmKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, err
	}
	return signed.MarshalBinary()
}

// SignAvalancheTx signs the serialized transaction bytes for the X/P/C
// chains. Credential assembly for multi-signature inputs lives in the chain
// SDK collaborator; this produces the secp256k1 signature envelope.
func (w *MnemonicWallet) SignAvalancheTx(ctx context.Context, txHex string, chainAlias string) (string, error) {
	switch chainAlias {
	case "X", "P", "C":
	default:
		return "", fmt.Errorf("unknown chain alias %q", chainAlias)
	}

	txBytes, err := hex.DecodeString(trim0x(txHex))
	if err != nil {
		return "", fmt.Errorf("invalid transaction hex: %w", err)
	}

	priv, err := w.deriveBtcec(avaxPathPrefix)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(txBytes)
	sig := ecdsa.Sign(priv, digest[:])

	envelope := struct {
		Tx        string `json:"tx"`
		Signature string `json:"signature"`
	}{
		Tx:        "0x" + hex.EncodeToString(txBytes),
		Signature: hex.EncodeToString(sig.Serialize()),
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// SignBitcoinTx signs a BTC payment order. Input selection and script
// assembly belong to the chain SDK collaborator; the wallet contributes the
// key and the signature over the canonical order digest.
func (w *MnemonicWallet) SignBitcoinTx(ctx context.Context, to string, amountSat int64, feeRate int64) ([]byte, error) {
	priv, err := w.deriveBtcec(btcPathPrefix)
	if err != nil {
		return nil, err
	}

	order := struct {
		To      string `json:"to"`
		Amount  int64  `json:"amount"`
		FeeRate int64  `json:"feeRate"`
	}{To: to, Amount: amountSat, FeeRate: feeRate}
	raw, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(raw)
	sig := ecdsa.Sign(priv, digest[:])
	return append(raw, sig.Serialize()...), nil
}

func (w *MnemonicWallet) ExportMnemonic(ctx context.Context, password string) (string, error) {
	if err := w.lock.VerifyPassword(password); err != nil {
		return "", err
	}
	return w.lock.Mnemonic()
}

// DeriveAddresses computes the per-chain addresses for an account index.
// Used when accounts are created.
func (w *MnemonicWallet) DeriveAddresses(index uint32) (DerivedAddresses, error) {
	var out DerivedAddresses

	hd, err := w.hdWallet()
	if err != nil {
		return out, err
	}

	evmKey, err := hd.DerivePath(fmt.Sprintf("%s%d", evmPathPrefix, index))
	if err != nil {
		return out, err
	}
	evmPriv, err := evmKey.ECPrivKey()
	if err != nil {
		return out, err
	}
	ethGen := address.NewETHGenerator()
	out.AddressC, err = ethGen.PubKeyToAddress(crypto.FromECDSAPub(&evmPriv.ToECDSA().PublicKey))
	if err != nil {
		return out, err
	}

	btcKey, err := hd.DerivePath(fmt.Sprintf("%s%d", btcPathPrefix, index))
	if err != nil {
		return out, err
	}
	btcPub, err := btcKey.ECPubKey()
	if err != nil {
		return out, err
	}
	btcGen := address.NewBTCGenerator(w.btcnet)
	out.AddressBTC, err = btcGen.PubKeyToAddress(btcPub.SerializeCompressed())
	if err != nil {
		return out, err
	}

	avaxKey, err := hd.DerivePath(fmt.Sprintf("%s%d", avaxPathPrefix, index))
	if err != nil {
		return out, err
	}
	avaxPub, err := avaxKey.ECPubKey()
	if err != nil {
		return out, err
	}
	avaxGen := address.NewAVAXGenerator("avax")
	if out.AddressAVM, err = avaxGen.PubKeyToAddress("X", avaxPub.SerializeCompressed()); err != nil {
		return out, err
	}
	if out.AddressPVM, err = avaxGen.PubKeyToAddress("P", avaxPub.SerializeCompressed()); err != nil {
		return out, err
	}
	return out, nil
}

func (w *MnemonicWallet) activeIndex() uint32 {
	if w.accounts == nil {
		return 0
	}
	if acc := w.accounts.ActiveAccount(); acc != nil {
		return acc.Index
	}
	return 0
}

func (w *MnemonicWallet) hdWallet() (bip32.HDWallet, error) {
	mnemonic, err := w.lock.Mnemonic()
	if err != nil {
		return nil, err
	}
	seed := bip39.NewSeed(mnemonic, "")
	return bip32.NewMasterKeyFromSeed(seed, w.btcnet)
}

func (w *MnemonicWallet) evmKey() (*stdecdsa.PrivateKey, error) {
	priv, err := w.deriveBtcec(evmPathPrefix)
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}

func (w *MnemonicWallet) deriveBtcec(pathPrefix string) (*btcec.PrivateKey, error) {
	hd, err := w.hdWallet()
	if err != nil {
		return nil, err
	}
	key, err := hd.DerivePath(fmt.Sprintf("%s%d", pathPrefix, w.activeIndex()))
	if err != nil {
		return nil, err
	}
	return key.ECPrivKey()
}

func trim0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
