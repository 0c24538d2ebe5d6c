// Package escrow implements the optional escrow router (C7): when a
// PaymentRequirements carries a refund extension, settlement routes through
// a deterministic proxy contract instead of calling transferWithAuthorization
// against the asset directly. Proxy-address derivation is grounded on
// go-ethereum's crypto.CreateAddress2, the standard library's own
// implementation of the CREATE2 deterministic-deployment rule.
package escrow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/x402-labs/facilitator-core/types"
)

// refundExtension is the wire shape of requirements.extensions.refund.
type refundExtension struct {
	Refund struct {
		FactoryAddress  string            `json:"factoryAddress"`
		MerchantPayouts map[string]string `json:"merchantPayouts"`
		InitCodeHash    string            `json:"initCodeHash"`
	} `json:"refund"`
}

// Router validates and resolves escrow proxy addresses. It implements the
// evm.EscrowRouter interface without importing the evm package, to keep C5
// and C7 decoupled per the component table.
type Router struct {
	enabled bool
}

// New returns a Router. Escrow is a feature toggle (§4.7): when enabled is
// false, Route always rejects requests carrying a refund extension.
func New(enabled bool) *Router {
	return &Router{enabled: enabled}
}

// Route validates that authTo resolves to a proxy address the factory would
// deterministically deploy for one of the declared merchant payouts, and
// returns that proxy address. If the requirements carry no refund extension,
// Route returns an empty proxy and no error, signaling "no escrow routing
// applies to this request."
func (r *Router) Route(_ context.Context, req types.PaymentRequirements, authTo string) (string, error) {
	if len(req.Extensions) == 0 || string(req.Extensions) == "null" {
		return "", nil
	}
	if !r.enabled {
		return "", types.NewError(types.ErrUnsupportedExtension, "escrow routing is disabled")
	}

	var ext refundExtension
	if err := json.Unmarshal(req.Extensions, &ext); err != nil {
		return "", types.WrapError(types.ErrPayloadMismatch, err, "invalid refund extension")
	}
	if ext.Refund.FactoryAddress == "" {
		// extensions present but not a refund object: nothing for escrow
		// to do with this request.
		return "", nil
	}

	payout, ok := ext.Refund.MerchantPayouts[strings.ToLower(authTo)]
	if !ok {
		payout, ok = ext.Refund.MerchantPayouts[authTo]
	}
	if !ok {
		return "", types.NewError(types.ErrPayloadMismatch, "authorization.to is not a declared escrow proxy")
	}

	derived, err := deriveProxyAddress(ext.Refund.FactoryAddress, ext.Refund.InitCodeHash, payout)
	if err != nil {
		return "", types.WrapError(types.ErrPayloadMismatch, err, "failed to derive escrow proxy address")
	}
	if !strings.EqualFold(derived.Hex(), authTo) {
		return "", types.NewError(types.ErrPayloadMismatch, "declared proxy %s does not match the factory-derived address %s", authTo, derived.Hex())
	}

	return authTo, nil
}

// deriveProxyAddress recomputes CREATE2(factory, salt, initCodeHash) for the
// one escrow proxy a factory deterministically deploys per merchant payout
// address, so the salt depends only on values known before the proxy
// exists (never on the candidate proxy address itself, which would make
// validation self-referential). Implementations embedding a specific
// factory MUST match its on-chain salt scheme bit-for-bit (§9 open
// question); this default scheme (keccak256(payout)) is a placeholder a
// deployment-specific Router can override by constructing a different
// initCodeHash/salt pair upstream.
func deriveProxyAddress(factory, initCodeHashHex, payout string) (common.Address, error) {
	if !common.IsHexAddress(factory) {
		return common.Address{}, fmt.Errorf("invalid factory address %q", factory)
	}
	if initCodeHashHex == "" {
		return common.Address{}, fmt.Errorf("missing initCodeHash for escrow factory")
	}

	initCodeHash := common.FromHex(initCodeHashHex)
	if len(initCodeHash) != 32 {
		return common.Address{}, fmt.Errorf("initCodeHash must be 32 bytes")
	}

	salt := crypto.Keccak256(common.HexToAddress(payout).Bytes())

	return crypto.CreateAddress2(common.HexToAddress(factory), [32]byte(salt), initCodeHash), nil
}
