package escrow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x402-labs/facilitator-core/types"
)

func requirementsWithRefund(t *testing.T, factory, initCodeHash string, payouts map[string]string) types.PaymentRequirements {
	t.Helper()
	ext := refundExtension{}
	ext.Refund.FactoryAddress = factory
	ext.Refund.InitCodeHash = initCodeHash
	ext.Refund.MerchantPayouts = payouts
	raw, err := json.Marshal(ext)
	require.NoError(t, err)
	return types.PaymentRequirements{Extensions: raw}
}

func TestRouteNoExtensionsIsANoOp(t *testing.T) {
	r := New(true)
	proxy, err := r.Route(context.Background(), types.PaymentRequirements{}, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Empty(t, proxy)
}

func TestRouteRejectsWhenDisabled(t *testing.T) {
	r := New(false)
	req := requirementsWithRefund(t, "0x2222222222222222222222222222222222222222", "0x"+hexZeros(64), map[string]string{})

	_, err := r.Route(context.Background(), req, "0x1111111111111111111111111111111111111111")
	require.Error(t, err)
	fe, ok := types.AsFacilitatorError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrUnsupportedExtension, fe.Tag)
}

func TestRouteValidatesDerivedProxyAddress(t *testing.T) {
	factory := common.HexToAddress("0x3333333333333333333333333333333333333333")
	payout := common.HexToAddress("0x4444444444444444444444444444444444444444")
	initCodeHash := crypto.Keccak256([32]byte{}[:])

	// Derive the proxy the same way Route will, to build a self-consistent
	// fixture (this mirrors how an operator would compute it off-chain
	// before advertising the proxy in PaymentRequirements.extensions).
	salt := crypto.Keccak256(payout.Bytes())
	var saltArr [32]byte
	copy(saltArr[:], salt)
	proxy := crypto.CreateAddress2(factory, saltArr, initCodeHash)

	req := requirementsWithRefund(t, factory.Hex(), "0x"+common.Bytes2Hex(initCodeHash), map[string]string{
		proxy.Hex(): payout.Hex(),
	})

	r := New(true)
	resolved, err := r.Route(context.Background(), req, proxy.Hex())
	require.NoError(t, err)
	assert.Equal(t, proxy.Hex(), resolved)
}

func TestRouteRejectsUndeclaredProxy(t *testing.T) {
	req := requirementsWithRefund(t, "0x2222222222222222222222222222222222222222", "0x"+hexZeros(64), map[string]string{})

	r := New(true)
	_, err := r.Route(context.Background(), req, "0x1111111111111111111111111111111111111111")
	require.Error(t, err)
	fe, ok := types.AsFacilitatorError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrPayloadMismatch, fe.Tag)
}

func hexZeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
