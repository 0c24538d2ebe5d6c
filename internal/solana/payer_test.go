package solana

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x402-labs/facilitator-core/types"
)

func solanaPaymentPayload(t *testing.T, txBase64 string) types.PaymentPayload {
	t.Helper()
	payload, err := json.Marshal(types.ExactSolanaPayload{Transaction: txBase64})
	require.NoError(t, err)
	return types.PaymentPayload{
		X402Version: 1,
		Scheme:      types.SchemeExact,
		Network:     types.NetworkSolanaDevnet,
		Payload:     payload,
	}
}

func TestPayerHintReturnsFeePayer(t *testing.T) {
	payerKey := newTestKeypair(t)
	payer := payerKey.PublicKey()
	source := newTestKeypair(t).PublicKey()
	destination := newTestKeypair(t).PublicKey()
	ownerKey := newTestKeypair(t)
	owner := ownerKey.PublicKey()

	tx := buildTransferTx(t, payer, source, destination, owner, nil, 100)
	_, err := tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		switch {
		case key.Equals(payer):
			return &payerKey
		case key.Equals(owner):
			return &ownerKey
		}
		return nil
	})
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	hint, err := PayerHint(solanaPaymentPayload(t, base64.StdEncoding.EncodeToString(raw)))
	require.NoError(t, err)
	assert.Equal(t, payer.String(), hint)
}

func TestPayerHintRejectsInvalidPayloadShape(t *testing.T) {
	payload := types.PaymentPayload{
		X402Version: 1,
		Scheme:      types.SchemeExact,
		Network:     types.NetworkSolanaDevnet,
		Payload:     json.RawMessage(`{"transaction": 123}`),
	}
	_, err := PayerHint(payload)
	require.Error(t, err)
	fe, ok := types.AsFacilitatorError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrPayloadMismatch, fe.Tag)
}

func TestPayerHintRejectsInvalidBase64(t *testing.T) {
	_, err := PayerHint(solanaPaymentPayload(t, "not-valid-base64!!"))
	require.Error(t, err)
	fe, ok := types.AsFacilitatorError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrPayloadMismatch, fe.Tag)
}
