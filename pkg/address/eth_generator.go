package address

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ETHGenerator derives EIP-55 checksummed Ethereum addresses.
type ETHGenerator struct{}

func NewETHGenerator() *ETHGenerator {
	return &ETHGenerator{}
}

// PubKeyToAddress converts an uncompressed public key (65 bytes, 0x04
// prefix) to its checksummed address.
func (g *ETHGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	if len(pubKeyBytes) == 65 && pubKeyBytes[0] == 0x04 {
		pubKeyBytes = pubKeyBytes[1:]
	}

	hash := keccak256(pubKeyBytes)
	addressHex := hex.EncodeToString(hash[12:])
	return "0x" + toChecksumAddress(addressHex), nil
}

func keccak256(data []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return hash.Sum(nil)
}

// toChecksumAddress applies the EIP-55 mixed-case checksum.
func toChecksumAddress(address string) string {
	address = strings.ToLower(address)
	hexHash := hex.EncodeToString(keccak256([]byte(address)))

	var sb strings.Builder
	for i := 0; i < len(address); i++ {
		char := address[i]
		if hexCharToInt(hexHash[i]) >= 8 {
			sb.WriteString(strings.ToUpper(string(char)))
		} else {
			sb.WriteByte(char)
		}
	}
	return sb.String()
}

func hexCharToInt(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	}
	return 0
}
