// Package evm implements the EVM chain-family provider (C5): EIP-712 domain
// construction and EIP-3009 transferWithAuthorization verification and
// settlement. Grounded on the algorithms in the coinbase x402 SDK's
// mechanisms/evm package (scheme.go, eip712.go, verify_eoa.go, constants.go)
// but reimplemented directly rather than imported, since that SDK wholesale
// re-export is exactly what this repository's core is meant to replace.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/x402-labs/facilitator-core/types"
)

// gracePeriod absorbs node clock skew and broadcast latency, per §4.4 step 4.
const gracePeriod = 6 * time.Second

// Provider implements types.NetworkProvider for one EVM network.
type Provider struct {
	network  types.Network
	registry assetLookup
	signer   chainClient
	escrow   EscrowRouter
}

// chainClient is the subset of *Signer the provider calls, declared locally
// so Settle and Verify can run against a fake broadcaster in tests without a
// live RPC connection.
type chainClient interface {
	ChainID() *big.Int
	Balance(ctx context.Context, tokenAddress, holder string) (*big.Int, error)
	ReadContract(ctx context.Context, address string, abiJSON string, method string, args ...interface{}) ([]interface{}, error)
	WriteContract(ctx context.Context, address string, abiJSON string, method string, args ...interface{}) (string, error)
	WaitForReceipt(ctx context.Context, txHash string) (*ethtypes.Receipt, error)
	RevertReason(ctx context.Context, txHash string, blockNumber *big.Int) (string, error)
}

// assetLookup is the subset of the network registry the provider needs,
// kept as a narrow interface so the provider package never imports the
// registry package directly (avoiding an import cycle with the facilitator
// dispatch, which constructs both).
type assetLookup interface {
	Asset(network types.Network, symbol string) (types.AssetDeployment, error)
}

// EscrowRouter is consulted when a request carries a refund extension. A nil
// EscrowRouter means escrow is disabled for this provider.
type EscrowRouter interface {
	// Route validates and rewrites the authorization's effective
	// recipient when escrow routing applies, returning the proxy address
	// to use as the transferWithAuthorization "to" field, or an error if
	// the request does not describe a valid escrow deposit.
	Route(ctx context.Context, req types.PaymentRequirements, authTo string) (proxy string, err error)
}

// NewProvider builds an EVM provider for one network.
func NewProvider(network types.Network, registry assetLookup, signer chainClient, escrow EscrowRouter) *Provider {
	return &Provider{network: network, registry: registry, signer: signer, escrow: escrow}
}

func (p *Provider) Network() types.Network     { return p.network }
func (p *Provider) Family() types.NetworkFamily { return types.FamilyEvm }

// parsed holds every value extracted and validated from a request before the
// on-chain steps of §4.4 run, so Verify and Settle share one validation path.
type parsed struct {
	asset types.AssetDeployment
	auth  authFields
	sig   []byte

	// escrowProxy is the resolved proxy address when escrow routing applied
	// (§4.7), empty otherwise. Settle uses it to decide whether to call the
	// proxy's executeDeposit instead of transferWithAuthorization directly.
	escrowProxy string
}

func (p *Provider) parseAndValidate(payload types.PaymentPayload, req types.PaymentRequirements) (*parsed, error) {
	if payload.Network != p.network || req.Network != p.network {
		return nil, types.NewError(types.ErrPayloadMismatch, "payload network %q does not match provider network %q", payload.Network, p.network)
	}
	if req.Scheme != types.SchemeExact {
		return nil, types.NewError(types.ErrUnsupportedScheme, "scheme %q is not supported", req.Scheme)
	}

	asset, err := p.registry.Asset(p.network, req.Asset)
	if err != nil {
		return nil, err
	}
	if !asset.SupportsEIP3009 {
		return nil, types.NewError(types.ErrUnsupportedScheme, "asset %q does not support EIP-3009", req.Asset)
	}

	evmPayload, err := payload.DecodeEvmPayload()
	if err != nil {
		return nil, types.WrapError(types.ErrPayloadMismatch, err, "payload is not a valid EVM authorization")
	}
	auth := evmPayload.Authorization

	if !common.IsHexAddress(auth.From) || !common.IsHexAddress(auth.To) {
		return nil, types.NewError(types.ErrPayloadMismatch, "authorization from/to must be hex addresses")
	}

	value, ok := new(big.Int).SetString(auth.Value, 10)
	if !ok || value.Sign() < 0 {
		return nil, types.NewError(types.ErrPayloadMismatch, "authorization value %q is not a non-negative integer", auth.Value)
	}
	validAfter, ok := new(big.Int).SetString(auth.ValidAfter, 10)
	if !ok {
		return nil, types.NewError(types.ErrPayloadMismatch, "validAfter %q is not an integer", auth.ValidAfter)
	}
	validBefore, ok := new(big.Int).SetString(auth.ValidBefore, 10)
	if !ok {
		return nil, types.NewError(types.ErrPayloadMismatch, "validBefore %q is not an integer", auth.ValidBefore)
	}
	nonce, err := types.ParseNonce(auth.Nonce)
	if err != nil {
		return nil, types.WrapError(types.ErrPayloadMismatch, err, "invalid nonce")
	}

	maxRequired, ok := new(big.Int).SetString(req.MaxAmountRequired, 10)
	if !ok || maxRequired.Sign() < 0 {
		return nil, types.NewError(types.ErrPayloadMismatch, "maxAmountRequired %q is not a non-negative integer", req.MaxAmountRequired)
	}
	// Scheme "exact" requires value == max_amount_required, not <=. The
	// source this spec was distilled from treats some payloads as
	// accepting value <= max; this implementation keeps the stricter
	// equality per the spec's own recommendation.
	if value.Cmp(maxRequired) != 0 {
		return nil, types.NewError(types.ErrPayloadMismatch, "authorization value %s does not equal maxAmountRequired %s", value, maxRequired)
	}

	effectiveTo := req.PayTo
	escrowProxy := ""
	if p.escrow != nil && req.Extensions != nil {
		proxy, err := p.escrow.Route(context.Background(), req, auth.To)
		if err != nil {
			return nil, err
		}
		if proxy != "" {
			effectiveTo = proxy
			escrowProxy = proxy
		}
	} else if p.escrow == nil && hasRefundExtension(req) {
		return nil, types.NewError(types.ErrUnsupportedExtension, "escrow routing is disabled on this provider")
	}
	if !strings.EqualFold(auth.To, effectiveTo) {
		return nil, types.NewError(types.ErrPayloadMismatch, "authorization.to %s does not match pay_to %s", auth.To, effectiveTo)
	}

	sig, err := hexToBytes(evmPayload.Signature)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidSignature, err, "invalid signature encoding")
	}

	return &parsed{
		asset:       asset,
		sig:         sig,
		escrowProxy: escrowProxy,
		auth: authFields{
			From:        auth.From,
			To:          auth.To,
			Value:       value,
			ValidAfter:  validAfter,
			ValidBefore: validBefore,
			Nonce:       nonce,
		},
	}, nil
}

func hasRefundExtension(req types.PaymentRequirements) bool {
	return len(req.Extensions) > 0 && string(req.Extensions) != "null"
}

func hexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	return common.FromHex("0x" + s), nil
}

// Verify runs the full ordered verification pipeline of §4.4, performing
// read-only RPC calls only.
func (p *Provider) Verify(ctx context.Context, payload types.PaymentPayload, req types.PaymentRequirements) (types.VerifyResult, error) {
	v, err := p.parseAndValidate(payload, req)
	if err != nil {
		return types.VerifyResult{}, err
	}

	now := time.Now()
	graceSeconds := big.NewInt(int64(gracePeriod / time.Second))
	if new(big.Int).Sub(v.auth.ValidBefore, big.NewInt(now.Unix())).Cmp(graceSeconds) < 0 {
		return types.VerifyResult{}, types.NewError(types.ErrInvalidTiming, "validBefore is within the %s grace window of now", gracePeriod)
	}
	if v.auth.ValidAfter.Cmp(big.NewInt(now.Unix())) > 0 {
		return types.VerifyResult{}, types.NewError(types.ErrInvalidTiming, "validAfter is in the future")
	}

	tokenName := v.asset.EIP712Name
	tokenVersion := v.asset.EIP712Version
	if req.Extra != nil {
		if req.Extra.Name != "" {
			tokenName = req.Extra.Name
		}
		if req.Extra.Version != "" {
			tokenVersion = req.Extra.Version
		}
	}

	digest, err := hashTransferWithAuthorization(p.signer.ChainID(), v.asset.Address, tokenName, tokenVersion, v.auth)
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrInvalidSignature, err, "failed to compute EIP-712 digest")
	}

	ok, err := verifyEOASignature(digest, v.sig, common.HexToAddress(v.auth.From))
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrInvalidSignature, err, "signature recovery failed")
	}
	if !ok {
		return types.VerifyResult{}, types.NewError(types.ErrInvalidSignature, "recovered signer does not match authorization.from")
	}

	used, err := p.authorizationUsed(ctx, v.asset.Address, v.auth.From, v.auth.Nonce)
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrRpcError, err, "failed to read authorizationState")
	}
	if used {
		return types.VerifyResult{}, types.NewError(types.ErrAuthorizationUsed, "nonce already consumed on-chain")
	}

	balance, err := p.signer.Balance(ctx, v.asset.Address, v.auth.From)
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrRpcError, err, "failed to read balanceOf")
	}
	if balance.Cmp(v.auth.Value) < 0 {
		return types.VerifyResult{}, types.NewError(types.ErrInsufficientFunds, "payer balance %s is less than required %s", balance, v.auth.Value)
	}

	payer, err := types.NewEvmAddress(v.auth.From)
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrPayloadMismatch, err, "invalid payer address")
	}
	return types.VerifyResult{Payer: payer}, nil
}

func (p *Provider) authorizationUsed(ctx context.Context, asset, from string, nonce [32]byte) (bool, error) {
	out, err := p.signer.ReadContract(ctx, asset, authorizationStateABI, "authorizationState", common.HexToAddress(from), nonce)
	if err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("unexpected authorizationState output shape")
	}
	used, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected authorizationState output type")
	}
	return used, nil
}

// Settle re-verifies and then broadcasts transferWithAuthorization on the
// asset, or executeDeposit on the escrow proxy when escrow routing applied,
// classifying the receipt outcome per §4.4.
func (p *Provider) Settle(ctx context.Context, payload types.PaymentPayload, req types.PaymentRequirements) (types.SettleResult, error) {
	v, err := p.parseAndValidate(payload, req)
	if err != nil {
		return types.SettleResult{}, err
	}
	if _, err := p.Verify(ctx, payload, req); err != nil {
		return types.SettleResult{}, err
	}

	r, s := v.sig[:32], v.sig[32:64]
	vByte := v.sig[64]
	if vByte < 27 {
		vByte += 27
	}

	var txHash string
	if v.escrowProxy != "" {
		// §4.7 step 3: the proxy pulls the asset itself via the
		// authorization tuple and records a deposit, so settlement targets
		// the proxy's executeDeposit rather than transferWithAuthorization
		// on the asset directly.
		txHash, err = p.signer.WriteContract(ctx, v.escrowProxy, executeDepositABI, "executeDeposit",
			common.HexToAddress(v.asset.Address),
			common.HexToAddress(v.auth.From),
			common.HexToAddress(v.auth.To),
			v.auth.Value,
			v.auth.ValidAfter,
			v.auth.ValidBefore,
			v.auth.Nonce,
			vByte,
			[32]byte(r),
			[32]byte(s),
		)
	} else {
		txHash, err = p.signer.WriteContract(ctx, v.asset.Address, transferWithAuthorizationABI, "transferWithAuthorization",
			common.HexToAddress(v.auth.From),
			common.HexToAddress(v.auth.To),
			v.auth.Value,
			v.auth.ValidAfter,
			v.auth.ValidBefore,
			v.auth.Nonce,
			vByte,
			[32]byte(r),
			[32]byte(s),
		)
	}
	if err != nil {
		return types.SettleResult{}, types.WrapError(types.ErrSettlementFailed, err, "failed to broadcast settlement transaction")
	}

	receipt, err := p.signer.WaitForReceipt(ctx, txHash)
	if err != nil {
		return types.SettleResult{}, &types.FacilitatorError{
			Tag:     types.ErrSettlementFailed,
			Message: "transaction broadcast but receipt could not be retrieved",
			Err:     err,
			TxHash:  txHash,
		}
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		tag := types.ErrSettlementFailed
		message := "transaction reverted on-chain"
		if reason, revertErr := p.signer.RevertReason(ctx, txHash, receipt.BlockNumber); revertErr == nil && reason != "" {
			tag = classifyRevertReason(reason)
			message = fmt.Sprintf("transaction reverted on-chain: %s", reason)
		}
		return types.SettleResult{}, &types.FacilitatorError{
			Tag:     tag,
			Message: message,
			TxHash:  txHash,
		}
	}

	return types.SettleResult{Transaction: txHash}, nil
}

// classifyRevertReason maps a decoded Solidity revert string to the closed
// error taxonomy (§4.4). Patterns are drawn from common EIP-3009 token
// implementations (FiatTokenV2's authorizationState guards, ERC-20's
// transfer-amount check); an unrecognized reason keeps the generic tag.
func classifyRevertReason(reason string) types.ErrorTag {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "used") || strings.Contains(lower, "cancel"):
		return types.ErrAuthorizationUsed
	case strings.Contains(lower, "expired") || strings.Contains(lower, "not yet valid"):
		return types.ErrAuthorizationExpired
	case strings.Contains(lower, "signature"):
		return types.ErrInvalidSignature
	case strings.Contains(lower, "balance") || strings.Contains(lower, "insufficient"):
		return types.ErrInsufficientFunds
	default:
		return types.ErrSettlementFailed
	}
}

var _ types.NetworkProvider = (*Provider)(nil)
