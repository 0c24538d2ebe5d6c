package solana

import (
	solanago "github.com/gagliardetto/solana-go"

	"github.com/x402-labs/facilitator-core/types"
)

// PayerHint extracts the transaction's fee payer (the first account key)
// without running the full verification pipeline. The facilitator dispatch
// uses this to run the blacklist check (§4.1 step 3) ahead of the family
// -specific verification in step 4, matching the fixed ordering in the
// contract for both verify and settle.
func PayerHint(payload types.PaymentPayload) (string, error) {
	solPayload, err := payload.DecodeSolanaPayload()
	if err != nil {
		return "", types.WrapError(types.ErrPayloadMismatch, err, "payload is not a valid Solana transaction")
	}
	tx, err := solanago.TransactionFromBase64(solPayload.Transaction)
	if err != nil {
		return "", types.WrapError(types.ErrPayloadMismatch, err, "failed to deserialize transaction")
	}
	if len(tx.Message.AccountKeys) == 0 {
		return "", types.NewError(types.ErrPayloadMismatch, "transaction has no account keys")
	}
	return tx.Message.AccountKeys[0].String(), nil
}
