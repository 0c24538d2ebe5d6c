// Package solana implements the Solana chain-family provider (C6):
// deserializing a payer-signed SPL token transfer transaction, inspecting
// its instructions, verifying the payer's signature, enforcing replay
// protection via a NonceStore, and rebroadcasting the transaction as-is.
// Grounded on CedrosPay-server's pkg/x402/solana package, which is the only
// repository in the pack with a working Solana verifier; this package
// generalizes that verifier from CedrosPay's gasless-checkout domain to the
// facilitator's verify/settle contract.
package solana

import (
	"context"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/x402-labs/facilitator-core/types"
)

// settlementCeiling bounds how long Settle waits for confirmation, matching
// §5's 180-second ceiling for slow mainnet confirmations.
const settlementCeiling = 180 * time.Second

// assetLookup mirrors the evm package's narrow registry dependency.
type assetLookup interface {
	Asset(network types.Network, symbol string) (types.AssetDeployment, error)
}

// Provider implements types.NetworkProvider for one Solana network.
type Provider struct {
	network   types.Network
	registry  assetLookup
	rpcClient *rpc.Client
	store     NonceStore
}

// NonceStore is the subset of internal/nonce.Store the provider needs,
// declared locally to avoid importing the nonce package's Redis/memory
// construction details into the provider itself.
type NonceStore interface {
	MarkUsed(ctx context.Context, payer, key string, expiresAt int64) error
	IsUsed(ctx context.Context, payer, key string) (bool, error)
}

// NewProvider builds a Solana provider for one network.
func NewProvider(network types.Network, registry assetLookup, rpcClient *rpc.Client, store NonceStore) *Provider {
	return &Provider{network: network, registry: registry, rpcClient: rpcClient, store: store}
}

func (p *Provider) Network() types.Network     { return p.network }
func (p *Provider) Family() types.NetworkFamily { return types.FamilySolana }

type parsedRequest struct {
	tx        *solanago.Transaction
	transfer  *transferDetails
	blockhash solanago.Hash
}

func (p *Provider) parseAndValidate(payload types.PaymentPayload, req types.PaymentRequirements) (*parsedRequest, error) {
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

	solPayload, err := payload.DecodeSolanaPayload()
	if err != nil {
		return nil, types.WrapError(types.ErrPayloadMismatch, err, "payload is not a valid Solana transaction")
	}

	tx, err := solanago.TransactionFromBase64(solPayload.Transaction)
	if err != nil {
		return nil, types.WrapError(types.ErrPayloadMismatch, err, "failed to deserialize transaction")
	}

	if len(tx.Signatures) != 1 {
		return nil, types.NewError(types.ErrPayloadMismatch, "transaction must carry exactly one signature, got %d", len(tx.Signatures))
	}
	if len(tx.Message.AccountKeys) == 0 {
		return nil, types.NewError(types.ErrPayloadMismatch, "transaction has no account keys")
	}

	transfer, err := extractTransfer(tx)
	if err != nil {
		return nil, err
	}

	payTo, err := mustPublicKey(req.PayTo)
	if err != nil {
		return nil, types.WrapError(types.ErrPayloadMismatch, err, "invalid payTo address")
	}
	mint, err := mustPublicKey(asset.Address)
	if err != nil {
		return nil, types.WrapError(types.ErrUnsupportedNetwork, err, "invalid asset mint address")
	}
	destinationATA, _, err := solanago.FindAssociatedTokenAddress(payTo, mint)
	if err != nil {
		return nil, types.WrapError(types.ErrPayloadMismatch, err, "failed to derive destination ATA")
	}
	if !transfer.Destination.Equals(destinationATA) {
		return nil, types.NewError(types.ErrPayloadMismatch, "transfer destination does not match pay_to's associated token account")
	}
	if !transfer.Mint.IsZero() && !transfer.Mint.Equals(mint) {
		return nil, types.NewError(types.ErrPayloadMismatch, "transfer mint does not match the requirement's asset")
	}

	maxRequired, ok := parseUint64(req.MaxAmountRequired)
	if !ok {
		return nil, types.NewError(types.ErrPayloadMismatch, "maxAmountRequired %q is not a non-negative integer", req.MaxAmountRequired)
	}
	if transfer.Amount != maxRequired {
		return nil, types.NewError(types.ErrPayloadMismatch, "transfer amount %d does not equal maxAmountRequired %d", transfer.Amount, maxRequired)
	}

	payerATA, _, err := solanago.FindAssociatedTokenAddress(transfer.Authority, mint)
	if err == nil && !transfer.Source.Equals(payerATA) {
		return nil, types.NewError(types.ErrPayloadMismatch, "transfer source is not the payer's associated token account")
	}

	return &parsedRequest{tx: tx, transfer: transfer, blockhash: tx.Message.RecentBlockhash}, nil
}

func parseUint64(s string) (uint64, bool) {
	var v uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}
	return v, len(s) > 0
}

// Verify implements §4.5's verification steps.
func (p *Provider) Verify(ctx context.Context, payload types.PaymentPayload, req types.PaymentRequirements) (types.VerifyResult, error) {
	parsed, err := p.parseAndValidate(payload, req)
	if err != nil {
		return types.VerifyResult{}, err
	}

	if err := parsed.tx.VerifySignatures(); err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrInvalidSignature, err, "payer signature verification failed")
	}

	payer := parsed.transfer.Authority.String()
	used, err := p.store.IsUsed(ctx, payer, parsed.blockhash.String())
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrRpcError, err, "failed to query nonce store")
	}
	if used {
		return types.VerifyResult{}, types.NewError(types.ErrAuthorizationUsed, "blockhash already settled for this payer")
	}

	validity, err := p.rpcClient.IsBlockhashValid(ctx, parsed.blockhash, rpc.CommitmentConfirmed)
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrRpcError, err, "failed to check blockhash validity")
	}
	if !validity.Value {
		return types.VerifyResult{}, types.NewError(types.ErrAuthorizationExpired, "transaction's blockhash is no longer valid")
	}

	balance, err := p.rpcClient.GetTokenAccountBalance(ctx, parsed.transfer.Source, rpc.CommitmentConfirmed)
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrRpcError, err, "failed to read token account balance")
	}
	available, ok := parseUint64(balance.Value.Amount)
	if !ok || available < parsed.transfer.Amount {
		return types.VerifyResult{}, types.NewError(types.ErrInsufficientFunds, "payer token balance %s is less than required %d", balance.Value.Amount, parsed.transfer.Amount)
	}

	addr, err := types.NewSolanaAddress(payer)
	if err != nil {
		return types.VerifyResult{}, types.WrapError(types.ErrPayloadMismatch, err, "invalid payer address")
	}
	return types.VerifyResult{Payer: addr}, nil
}

// Settle broadcasts the payer-signed transaction as-is, polls for
// confirmation, and records the nonce as used on success per §4.5 and the
// per-nonce state machine in §4.8.
func (p *Provider) Settle(ctx context.Context, payload types.PaymentPayload, req types.PaymentRequirements) (types.SettleResult, error) {
	if _, err := p.Verify(ctx, payload, req); err != nil {
		return types.SettleResult{}, err
	}

	parsed, err := p.parseAndValidate(payload, req)
	if err != nil {
		return types.SettleResult{}, err
	}

	sig, err := p.rpcClient.SendTransactionWithOpts(ctx, parsed.tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		if isAlreadyProcessed(err) {
			return types.SettleResult{}, types.NewError(types.ErrAuthorizationUsed, "transaction already processed by the network")
		}
		return types.SettleResult{}, types.WrapError(types.ErrSettlementFailed, err, "failed to broadcast transaction")
	}

	if err := p.awaitConfirmation(ctx, sig, settlementCeiling); err != nil {
		if fe, ok := types.AsFacilitatorError(err); ok {
			fe.TxHash = sig.String()
			return types.SettleResult{}, fe
		}
		return types.SettleResult{}, &types.FacilitatorError{Tag: types.ErrSettlementFailed, Message: err.Error(), TxHash: sig.String()}
	}

	payer := parsed.transfer.Authority.String()
	expiresAt := time.Now().Add(2 * time.Minute).Unix()
	if err := p.store.MarkUsed(ctx, payer, parsed.blockhash.String(), expiresAt); err != nil {
		return types.SettleResult{}, &types.FacilitatorError{
			Tag:     types.ErrSettlementFailed,
			Message: "settlement confirmed but nonce could not be recorded",
			Err:     err,
			TxHash:  sig.String(),
		}
	}

	return types.SettleResult{Transaction: sig.String()}, nil
}

func isAlreadyProcessed(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already been processed") ||
		strings.Contains(strings.ToLower(err.Error()), "already processed")
}

var _ types.NetworkProvider = (*Provider)(nil)
