package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"wallet-background/pkg/safe_random"
)

// Scrypt parameters sit between go-ethereum's light and standard profiles,
// keeping unlock latency acceptable inside the extension popup.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
	keyLen  = 32
)

var ErrDecrypt = errors.New("could not decrypt keystore, password may be incorrect")

type CryptoJSON struct {
	Cipher     string       `json:"cipher"`
	CipherText string       `json:"ciphertext"`
	Nonce      string       `json:"nonce"`
	KDF        string       `json:"kdf"`
	KDFParams  ScryptParams `json:"kdfparams"`
	Salt       string       `json:"salt"`
}

type ScryptParams struct {
	N     int `json:"n"`
	R     int `json:"r"`
	P     int `json:"p"`
	DKLen int `json:"dklen"`
}

// KeyJSON is the persisted form of the user's encrypted mnemonic.
type KeyJSON struct {
	Id      string     `json:"id"`
	Version int        `json:"version"`
	Crypto  CryptoJSON `json:"crypto"`
}

// EncryptMnemonic seals the mnemonic under a password-derived key.
func EncryptMnemonic(mnemonic, password string) (*KeyJSON, error) {
	salt, err := safe_random.GenerateRandomBytes(32)
	if err != nil {
		return nil, err
	}

	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce, err := safe_random.GenerateRandomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, []byte(mnemonic), nil)

	return &KeyJSON{
		Id:      uuid.NewString(),
		Version: 1,
		Crypto: CryptoJSON{
			Cipher:     "aes-256-gcm",
			CipherText: hex.EncodeToString(sealed),
			Nonce:      hex.EncodeToString(nonce),
			KDF:        "scrypt",
			KDFParams: ScryptParams{
				N:     scryptN,
				R:     scryptR,
				P:     scryptP,
				DKLen: keyLen,
			},
			Salt: hex.EncodeToString(salt),
		},
	}, nil
}

// DecryptMnemonic reverses EncryptMnemonic. A wrong password fails the GCM
// tag check and surfaces as ErrDecrypt.
func DecryptMnemonic(keyJSON *KeyJSON, password string) (string, error) {
	if keyJSON.Crypto.Cipher != "aes-256-gcm" {
		return "", fmt.Errorf("unsupported cipher: %s", keyJSON.Crypto.Cipher)
	}

	salt, err := hex.DecodeString(keyJSON.Crypto.Salt)
	if err != nil {
		return "", err
	}
	nonce, err := hex.DecodeString(keyJSON.Crypto.Nonce)
	if err != nil {
		return "", err
	}
	sealed, err := hex.DecodeString(keyJSON.Crypto.CipherText)
	if err != nil {
		return "", err
	}

	params := keyJSON.Crypto.KDFParams
	derived, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

// SaveToFile writes the keystore JSON with owner-only permissions.
func (k *KeyJSON) SaveToFile(path string) error {
	raw, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// LoadFromFile reads a keystore previously written by SaveToFile.
func LoadFromFile(path string) (*KeyJSON, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keyJSON KeyJSON
	if err := json.Unmarshal(raw, &keyJSON); err != nil {
		return nil, err
	}
	return &keyJSON, nil
}
