package solana

import (
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/memo"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeypair(t *testing.T) solanago.PrivateKey {
	t.Helper()
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func buildTransferTx(t *testing.T, payer, source, destination, owner solanago.PublicKey, mint *solanago.PublicKey, amount uint64) *solanago.Transaction {
	t.Helper()

	var inst solanago.Instruction
	if mint != nil {
		inst = token.NewTransferCheckedInstruction(amount, 6, source, *mint, destination, owner, nil).Build()
	} else {
		inst = token.NewTransferInstruction(amount, source, destination, owner, nil).Build()
	}

	tx, err := solanago.NewTransaction([]solanago.Instruction{inst}, solanago.Hash{}, solanago.TransactionPayer(payer))
	require.NoError(t, err)
	return tx
}

func TestExtractTransferFindsPlainTransfer(t *testing.T) {
	payer := newTestKeypair(t).PublicKey()
	source := newTestKeypair(t).PublicKey()
	destination := newTestKeypair(t).PublicKey()
	owner := newTestKeypair(t).PublicKey()

	tx := buildTransferTx(t, payer, source, destination, owner, nil, 1_500_000)

	details, err := extractTransfer(tx)
	require.NoError(t, err)
	assert.True(t, details.Source.Equals(source))
	assert.True(t, details.Destination.Equals(destination))
	assert.True(t, details.Authority.Equals(owner))
	assert.EqualValues(t, 1_500_000, details.Amount)
}

func TestExtractTransferFindsTransferChecked(t *testing.T) {
	payer := newTestKeypair(t).PublicKey()
	source := newTestKeypair(t).PublicKey()
	destination := newTestKeypair(t).PublicKey()
	owner := newTestKeypair(t).PublicKey()
	mint := newTestKeypair(t).PublicKey()

	tx := buildTransferTx(t, payer, source, destination, owner, &mint, 42)

	details, err := extractTransfer(tx)
	require.NoError(t, err)
	assert.True(t, details.Mint.Equals(mint))
	assert.EqualValues(t, 42, details.Amount)
}

func TestExtractTransferRejectsTransactionWithNoTokenInstruction(t *testing.T) {
	payer := newTestKeypair(t).PublicKey()
	memoInst := memo.NewMemoInstruction([]byte("hi"), payer).Build()

	tx, err := solanago.NewTransaction([]solanago.Instruction{memoInst}, solanago.Hash{}, solanago.TransactionPayer(payer))
	require.NoError(t, err)

	_, err = extractTransfer(tx)
	assert.Error(t, err)
}

func TestExtractTransferRejectsMultipleTransferInstructions(t *testing.T) {
	payer := newTestKeypair(t).PublicKey()
	source := newTestKeypair(t).PublicKey()
	destination := newTestKeypair(t).PublicKey()
	owner := newTestKeypair(t).PublicKey()

	inst1 := token.NewTransferInstruction(1, source, destination, owner, nil).Build()
	inst2 := token.NewTransferInstruction(2, source, destination, owner, nil).Build()

	tx, err := solanago.NewTransaction([]solanago.Instruction{inst1, inst2}, solanago.Hash{}, solanago.TransactionPayer(payer))
	require.NoError(t, err)

	_, err = extractTransfer(tx)
	assert.Error(t, err)
}

func TestMustPublicKeyRejectsInvalidBase58(t *testing.T) {
	_, err := mustPublicKey("not-a-valid-key")
	assert.Error(t, err)
}

func TestMustPublicKeyAcceptsValidBase58(t *testing.T) {
	pk := newTestKeypair(t).PublicKey()
	parsed, err := mustPublicKey(pk.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(pk))
}
