package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// MixedAddress is a tagged union over the address shapes that can cross chain
// family boundaries in a single request (pay_to in particular is compared
// against both EVM and Solana authorizations depending on network).
type MixedAddress struct {
	family NetworkFamily
	evm    common.Address
	solana string // base58, canonicalized
	opaque string
}

// NewEvmAddress builds a MixedAddress from a "0x"-prefixed hex EVM address.
func NewEvmAddress(hex string) (MixedAddress, error) {
	if !common.IsHexAddress(hex) {
		return MixedAddress{}, fmt.Errorf("not a valid EVM address: %q", hex)
	}
	return MixedAddress{family: FamilyEvm, evm: common.HexToAddress(hex)}, nil
}

// NewSolanaAddress builds a MixedAddress from a base58-encoded Solana pubkey.
func NewSolanaAddress(b58 string) (MixedAddress, error) {
	raw, err := base58.Decode(b58)
	if err != nil {
		return MixedAddress{}, fmt.Errorf("not a valid base58 Solana address: %w", err)
	}
	if len(raw) != 32 {
		return MixedAddress{}, fmt.Errorf("solana address must decode to 32 bytes, got %d", len(raw))
	}
	return MixedAddress{family: FamilySolana, solana: base58.Encode(raw)}, nil
}

// NewOffchainAddress wraps an opaque identifier not belonging to either chain
// family (used for off-chain routing metadata, never compared on-chain).
func NewOffchainAddress(s string) MixedAddress {
	return MixedAddress{family: "", opaque: s}
}

func (a MixedAddress) Family() NetworkFamily { return a.family }

// String renders the address in its canonical wire form.
func (a MixedAddress) String() string {
	switch a.family {
	case FamilyEvm:
		return strings.ToLower(a.evm.Hex())
	case FamilySolana:
		return a.solana
	default:
		return a.opaque
	}
}

// EqualFold compares two addresses for equality, case-insensitively for EVM
// hex and exactly for base58 Solana addresses (base58 is already canonical).
func (a MixedAddress) EqualFold(b MixedAddress) bool {
	if a.family != b.family {
		return false
	}
	switch a.family {
	case FamilyEvm:
		return a.evm == b.evm
	case FamilySolana:
		return a.solana == b.solana
	default:
		return a.opaque == b.opaque
	}
}

func (a MixedAddress) EvmAddress() common.Address { return a.evm }
func (a MixedAddress) SolanaBase58() string        { return a.solana }
