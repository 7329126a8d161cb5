package safe_random

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomBytes(t *testing.T) {
	b, err := GenerateRandomBytes(32)
	require.NoError(t, err)
	require.Len(t, b, 32)

	// all zeroes would mean the generator never ran
	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	assert.False(t, allZero)
}

func TestGenerateRandomHexString(t *testing.T) {
	s, err := GenerateRandomHexString(16)
	require.NoError(t, err)

	decoded, err := hex.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, decoded, 16)
}

func TestGenerateRandomInt(t *testing.T) {
	max := big.NewInt(100)
	for i := 0; i < 50; i++ {
		v, err := GenerateRandomInt(max)
		require.NoError(t, err)
		assert.True(t, v.Sign() >= 0)
		assert.True(t, v.Cmp(max) < 0)
	}

	_, err := GenerateRandomInt(big.NewInt(0))
	assert.Error(t, err)
}
