package solana

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/x402-labs/facilitator-core/types"
)

// transferDetails is what extractTransfer pulls out of the one SPL-token
// instruction a payload is allowed to carry.
type transferDetails struct {
	Source      solanago.PublicKey
	Destination solanago.PublicKey
	Authority   solanago.PublicKey
	Mint        solanago.PublicKey // zero value if the instruction was a plain Transfer
	Amount      uint64
}

// extractTransfer scans a transaction's instructions for exactly one
// SPL-token Transfer or TransferChecked instruction, grounded on
// CedrosPay-server's validateTransferInstructionAndExtractAuthority. §4.5
// step 2 requires a single matching instruction; anything else is
// PayloadMismatch.
func extractTransfer(tx *solanago.Transaction) (*transferDetails, error) {
	var found *transferDetails

	for _, inst := range tx.Message.Instructions {
		programID, err := tx.Message.Program(inst.ProgramIDIndex)
		if err != nil {
			continue
		}
		if !programID.Equals(solanago.TokenProgramID) {
			continue
		}

		accounts, err := inst.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			return nil, types.WrapError(types.ErrPayloadMismatch, err, "failed to resolve token instruction accounts")
		}

		decoded, err := token.DecodeInstruction(accounts, []byte(inst.Data))
		if err != nil {
			continue
		}

		var details *transferDetails
		switch impl := decoded.Impl.(type) {
		case *token.Transfer:
			details = &transferDetails{
				Source:      impl.GetSourceAccount().PublicKey,
				Destination: impl.GetDestinationAccount().PublicKey,
				Authority:   impl.GetOwnerAccount().PublicKey,
				Amount:      *impl.Amount,
			}
		case *token.TransferChecked:
			details = &transferDetails{
				Source:      impl.GetSourceAccount().PublicKey,
				Destination: impl.GetDestinationAccount().PublicKey,
				Authority:   impl.GetOwnerAccount().PublicKey,
				Mint:        impl.GetMintAccount().PublicKey,
				Amount:      *impl.Amount,
			}
		default:
			continue
		}

		if found != nil {
			return nil, types.NewError(types.ErrPayloadMismatch, "transaction carries more than one SPL-token transfer instruction")
		}
		found = details
	}

	if found == nil {
		return nil, types.NewError(types.ErrPayloadMismatch, "transaction carries no SPL-token Transfer or TransferChecked instruction")
	}
	return found, nil
}

func mustPublicKey(b58 string) (solanago.PublicKey, error) {
	pk, err := solanago.PublicKeyFromBase58(b58)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("invalid base58 public key %q: %w", b58, err)
	}
	return pk, nil
}
