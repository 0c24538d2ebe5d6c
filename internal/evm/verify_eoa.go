package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// secp256k1HalfOrder is used to reject non-canonical (high-s) signatures.
var secp256k1HalfOrder = func() *big.Int {
	n, _ := new(big.Int).SetString("7FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF5D576E7357A4501DDFE92F46681B20A0", 16)
	return n
}()

// verifyEOASignature recovers the signer from a 65-byte (r,s,v) signature
// over hash and compares it to expected. It rejects non-canonical
// signatures (s in the upper half of the curve order) before recovering, per
// §4.4's tie-break rule.
func verifyEOASignature(hash []byte, signature []byte, expected common.Address) (bool, error) {
	if len(signature) != 65 {
		return false, fmt.Errorf("signature must be 65 bytes, got %d", len(signature))
	}

	sig := make([]byte, 65)
	copy(sig, signature)

	s := new(big.Int).SetBytes(sig[32:64])
	if s.Cmp(secp256k1HalfOrder) > 0 {
		return false, fmt.Errorf("non-canonical signature: s is in the upper half of the curve order")
	}

	// go-ethereum's SigToPub expects v in {0,1}; EIP-3009 signatures carry
	// v in {27,28} (or occasionally {0,1} already).
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false, fmt.Errorf("recover public key: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	return recovered == expected, nil
}
