package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTransferWithAuthorizationMatchesSignedRecovery(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	auth := authFields{
		From:        from.Hex(),
		To:          "0x2222222222222222222222222222222222222222",
		Value:       big.NewInt(1_000_000),
		ValidAfter:  big.NewInt(0),
		ValidBefore: big.NewInt(2_000_000_000),
		Nonce:       [32]byte{1, 2, 3},
	}

	digest, err := hashTransferWithAuthorization(big.NewInt(84532), "0x3333333333333333333333333333333333333333", "USD Coin", "2", auth)
	require.NoError(t, err)
	assert.Len(t, digest, 32)

	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)

	ok, err := verifyEOASignature(digest, sig, from)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashTransferWithAuthorizationChangesWithDomain(t *testing.T) {
	auth := authFields{
		From:        "0x1111111111111111111111111111111111111111",
		To:          "0x2222222222222222222222222222222222222222",
		Value:       big.NewInt(1),
		ValidAfter:  big.NewInt(0),
		ValidBefore: big.NewInt(100),
		Nonce:       [32]byte{9},
	}

	a, err := hashTransferWithAuthorization(big.NewInt(84532), "0x3333333333333333333333333333333333333333", "USD Coin", "2", auth)
	require.NoError(t, err)
	b, err := hashTransferWithAuthorization(big.NewInt(8453), "0x3333333333333333333333333333333333333333", "USD Coin", "2", auth)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyEOASignatureRejectsWrongSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	digest := crypto.Keccak256([]byte("some digest"))
	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)

	ok, err := verifyEOASignature(digest, sig, crypto.PubkeyToAddress(other.PublicKey))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyEOASignatureRejectsShortSignature(t *testing.T) {
	_, err := verifyEOASignature(crypto.Keccak256([]byte("x")), make([]byte, 64), [20]byte{})
	assert.Error(t, err)
}

func TestVerifyEOASignatureRejectsNonCanonicalS(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	digest := crypto.Keccak256([]byte("digest"))
	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)

	// Flip s into the upper half of the curve order.
	s := new(big.Int).SetBytes(sig[32:64])
	flipped := new(big.Int).Add(secp256k1HalfOrder, big.NewInt(1))
	_ = s
	copy(sig[32:64], leftPad32(flipped.Bytes()))

	_, err = verifyEOASignature(digest, sig, crypto.PubkeyToAddress(key.PublicKey))
	assert.Error(t, err)
}

func leftPad32(b []byte) []byte {
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
