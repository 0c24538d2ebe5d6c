package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// transferWithAuthorizationTypes is the EIP-712 type set for EIP-3009's
// TransferWithAuthorization struct.
var transferWithAuthorizationTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TransferWithAuthorization": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

// hashTypedData computes the EIP-712 digest keccak256(0x19 0x01 ||
// domainSeparator || structHash) via go-ethereum's apitypes, which is the
// canonical encoder for the full Solidity type grammar (arrays, nested
// structs) rather than a hand-rolled subset.
func hashTypedData(td apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	structHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("hash struct: %w", err)
	}
	return crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash), nil
}

// hashTransferWithAuthorization builds the EIP-712 digest for a single
// TransferWithAuthorization authorization, given the resolved domain.
func hashTransferWithAuthorization(chainID *big.Int, verifyingContract, tokenName, tokenVersion string, auth authFields) ([]byte, error) {
	td := apitypes.TypedData{
		Types:       transferWithAuthorizationTypes,
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              tokenName,
			Version:           tokenVersion,
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: common.HexToAddress(verifyingContract).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"from":        common.HexToAddress(auth.From).Hex(),
			"to":          common.HexToAddress(auth.To).Hex(),
			"value":       auth.Value.String(),
			"validAfter":  auth.ValidAfter.String(),
			"validBefore": auth.ValidBefore.String(),
			"nonce":       auth.Nonce[:],
		},
	}
	return hashTypedData(td)
}

// authFields is the parsed (not wire-string) form of an EvmAuthorization
// used internally once decimal strings have been validated.
type authFields struct {
	From        string
	To          string
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}
