// Package facilitator implements the dispatch layer (C8): the fixed
// validation sequence of §4.1 that every verify/settle request runs through
// before a chain-family provider ever touches the network. Grounded on the
// teacher's facilitator/iface.go dispatch switch, generalized from a
// scheme-keyed constructor lookup into a sequence of independently testable
// validation stages in front of the provider cache.
package facilitator

import (
	"context"
	"math/big"

	"github.com/x402-labs/facilitator-core/internal/blacklist"
	"github.com/x402-labs/facilitator-core/internal/registry"
	"github.com/x402-labs/facilitator-core/internal/solana"
	"github.com/x402-labs/facilitator-core/types"
)

// providerSource is the subset of providercache.Cache the dispatch needs,
// declared locally so this package does not import providercache directly
// (cmd/facilitator wires the concrete cache in).
type providerSource interface {
	Get(network types.Network) (types.NetworkProvider, error)
	Networks() []types.Network
}

// Facilitator orchestrates static validation, blacklist enforcement, and
// delegation to a chain-family provider. It holds no mutable state of its
// own; all state lives in its three collaborators.
type Facilitator struct {
	registry  *registry.Registry
	providers providerSource
	blacklist *blacklist.Blacklist
}

// New builds a Facilitator from its three already-constructed collaborators.
func New(reg *registry.Registry, providers providerSource, bl *blacklist.Blacklist) *Facilitator {
	return &Facilitator{registry: reg, providers: providers, blacklist: bl}
}

// Verify runs §4.1's full validation sequence and returns the verdict. A
// failure at any stage is reported in VerifyResponse.Error; Verify itself
// never returns a Go error, since every caller (the HTTP transport) needs a
// response body regardless of outcome.
func (f *Facilitator) Verify(ctx context.Context, req types.VerifyRequest) types.VerifyResponse {
	provider, err := f.staticAndBlacklistChecks(req.PaymentPayload, req.PaymentRequirements)
	if err != nil {
		return verifyFailure(err)
	}

	result, err := provider.Verify(ctx, req.PaymentPayload, req.PaymentRequirements)
	if err != nil {
		return verifyFailure(err)
	}
	return types.VerifyResponse{Valid: true, Payer: result.Payer.String()}
}

// Settle runs the same validation sequence, then delegates to the provider's
// Settle, which internally re-verifies before broadcasting (§4.4 step 7,
// §4.5 step 5).
func (f *Facilitator) Settle(ctx context.Context, req types.SettleRequest) types.SettleResponse {
	provider, err := f.staticAndBlacklistChecks(req.PaymentPayload, req.PaymentRequirements)
	if err != nil {
		return settleFailure(req.PaymentRequirements.Network, err)
	}

	result, err := provider.Settle(ctx, req.PaymentPayload, req.PaymentRequirements)
	if err != nil {
		return settleFailure(req.PaymentRequirements.Network, err)
	}
	return types.SettleResponse{Success: true, Transaction: result.Transaction, Network: req.PaymentRequirements.Network}
}

// staticAndBlacklistChecks implements §4.1 steps 1-3: static validation,
// payload-family coherence, and the blacklist filter, returning the
// family-specific provider ready for step 4.
func (f *Facilitator) staticAndBlacklistChecks(payload types.PaymentPayload, req types.PaymentRequirements) (types.NetworkProvider, error) {
	if req.Scheme != types.SchemeExact {
		return nil, types.NewError(types.ErrUnsupportedScheme, "scheme %q is not supported", req.Scheme)
	}

	info, err := f.registry.Lookup(req.Network)
	if err != nil {
		return nil, err
	}
	if _, err := f.registry.Asset(req.Network, req.Asset); err != nil {
		return nil, err
	}

	if _, ok := new(big.Int).SetString(req.MaxAmountRequired, 10); !ok {
		return nil, types.NewError(types.ErrPayloadMismatch, "maxAmountRequired %q is not an integer", req.MaxAmountRequired)
	}

	if payload.Network != req.Network {
		return nil, types.NewError(types.ErrPayloadMismatch, "payment payload network %q does not match requirements network %q", payload.Network, req.Network)
	}
	if payload.Scheme != req.Scheme {
		return nil, types.NewError(types.ErrPayloadMismatch, "payment payload scheme %q does not match requirements scheme %q", payload.Scheme, req.Scheme)
	}

	provider, err := f.providers.Get(req.Network)
	if err != nil {
		return nil, err
	}

	payer, receiver, err := extractRoles(info.Family, payload, req)
	if err != nil {
		return nil, err
	}
	if err := f.blacklist.Check(info.Family, payer, receiver); err != nil {
		return nil, err
	}

	return provider, nil
}

// extractRoles pulls the payer and receiver addresses out of a payload
// without running the family-specific provider's full verification, so the
// blacklist filter (§4.6) can run ahead of signature and on-chain checks per
// §4.1's fixed ordering.
func extractRoles(family types.NetworkFamily, payload types.PaymentPayload, req types.PaymentRequirements) (payer, receiver string, err error) {
	switch family {
	case types.FamilyEvm:
		evmPayload, decodeErr := payload.DecodeEvmPayload()
		if decodeErr != nil {
			return "", "", types.WrapError(types.ErrPayloadMismatch, decodeErr, "payload is not a valid EVM authorization")
		}
		return evmPayload.Authorization.From, req.PayTo, nil
	case types.FamilySolana:
		hint, hintErr := solana.PayerHint(payload)
		if hintErr != nil {
			return "", "", hintErr
		}
		return hint, req.PayTo, nil
	default:
		return "", "", types.NewError(types.ErrUnsupportedNetwork, "network %q has no recognized chain family", req.Network)
	}
}

func verifyFailure(err error) types.VerifyResponse {
	fe, ok := types.AsFacilitatorError(err)
	if !ok {
		fe = types.WrapError(types.ErrRpcError, err, "unexpected internal error")
	}
	return types.VerifyResponse{Valid: false, Error: types.ErrorResponseFrom(fe)}
}

func settleFailure(network types.Network, err error) types.SettleResponse {
	fe, ok := types.AsFacilitatorError(err)
	if !ok {
		fe = types.WrapError(types.ErrRpcError, err, "unexpected internal error")
	}
	return types.SettleResponse{Success: false, Network: network, Transaction: fe.TxHash, Error: types.ErrorResponseFrom(fe)}
}
