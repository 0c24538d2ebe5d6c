package types

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Nonce is the 32-byte EIP-3009 authorization nonce. Its wire form is
// "0x"+64 hex. Two nonces differing by a single byte are distinct values;
// there is no normalization.
type Nonce [32]byte

// NewNonce generates a cryptographically random nonce.
func NewNonce() (Nonce, error) {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return Nonce{}, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}

func (n Nonce) String() string {
	return "0x" + hex.EncodeToString(n[:])
}

// ParseNonce parses a "0x"-prefixed 64-hex-character nonce.
func ParseNonce(s string) (Nonce, error) {
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Nonce{}, fmt.Errorf("invalid nonce hex: %w", err)
	}
	if len(raw) != 32 {
		return Nonce{}, fmt.Errorf("nonce must be 32 bytes, got %d", len(raw))
	}
	var n Nonce
	copy(n[:], raw)
	return n, nil
}

func (n Nonce) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *Nonce) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("nonce must be a JSON string: %w", err)
	}
	v, err := ParseNonce(s)
	if err != nil {
		return err
	}
	*n = v
	return nil
}
