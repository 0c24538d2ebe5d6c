package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvmAddress(t *testing.T) {
	t.Run("valid hex address round-trips lowercase", func(t *testing.T) {
		addr, err := NewEvmAddress("0xABCDEF1234567890ABCDEF1234567890ABCDEF12")
		require.NoError(t, err)
		assert.Equal(t, FamilyEvm, addr.Family())
		assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12", addr.String())
	})

	t.Run("rejects malformed hex", func(t *testing.T) {
		_, err := NewEvmAddress("not-an-address")
		assert.Error(t, err)
	})
}

func TestNewSolanaAddress(t *testing.T) {
	t.Run("valid base58 address round-trips", func(t *testing.T) {
		addr, err := NewSolanaAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
		require.NoError(t, err)
		assert.Equal(t, FamilySolana, addr.Family())
		assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", addr.String())
	})

	t.Run("rejects invalid base58", func(t *testing.T) {
		_, err := NewSolanaAddress("not base58!!")
		assert.Error(t, err)
	})

	t.Run("rejects wrong decoded length", func(t *testing.T) {
		_, err := NewSolanaAddress("abc")
		assert.Error(t, err)
	})
}

func TestMixedAddressEqualFold(t *testing.T) {
	a, err := NewEvmAddress("0xabcdef1234567890abcdef1234567890abcdef12")
	require.NoError(t, err)
	b, err := NewEvmAddress("0xABCDEF1234567890ABCDEF1234567890ABCDEF12")
	require.NoError(t, err)
	assert.True(t, a.EqualFold(b))

	solAddr, err := NewSolanaAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.NoError(t, err)
	assert.False(t, a.EqualFold(solAddr))
}
