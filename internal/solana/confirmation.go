package solana

import (
	"context"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/x402-labs/facilitator-core/types"
)

// awaitConfirmation polls GetSignatureStatuses until the transaction reaches
// at least confirmed status, the RPC reports an on-chain error, or ctx is
// done. Grounded on CedrosPay-server's RPC-polling fallback path (the
// WebSocket-subscription fast path from that package is not carried over:
// this provider's RPC client is constructed per-network without a
// configured WS endpoint, matching the provider cache's single-URL
// construction in §4.3).
func (p *Provider) awaitConfirmation(ctx context.Context, sig solanago.Signature, ceiling time.Duration) error {
	deadline := time.Now().Add(ceiling)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		statuses, err := p.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return types.WrapError(types.ErrRpcError, err, "failed to poll signature status")
		}
		if len(statuses.Value) == 1 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return types.NewError(types.ErrSettlementFailed, "transaction failed on-chain: %v", status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed || status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return types.NewError(types.ErrSettlementFailed, "transaction %s not confirmed within %s", sig, ceiling)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("await confirmation: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
