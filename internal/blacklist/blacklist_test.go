package blacklist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x402-labs/facilitator-core/types"
)

func writeBlacklistFile(t *testing.T, entries []entry) string {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "blacklist.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadCanonicalizesEvmAddressesCaseInsensitively(t *testing.T) {
	path := writeBlacklistFile(t, []entry{{AccountType: "evm", Wallet: "0xABCDEF1234567890ABCDEF1234567890ABCDEF12", Reason: "sanctioned"}})

	bl, err := Load(path, true)
	require.NoError(t, err)

	reason, blocked := bl.IsEvmBlocked("0xabcdef1234567890abcdef1234567890abcdef12")
	assert.True(t, blocked)
	assert.Equal(t, "sanctioned", reason)
}

func TestLoadSolanaAddressesAreExactMatch(t *testing.T) {
	path := writeBlacklistFile(t, []entry{{AccountType: "solana", Wallet: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Reason: "fraud"}})

	bl, err := Load(path, true)
	require.NoError(t, err)

	_, blocked := bl.IsSolanaBlocked("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	assert.True(t, blocked)
}

func TestLoadRejectsUnknownAccountType(t *testing.T) {
	path := writeBlacklistFile(t, []entry{{AccountType: "tron", Wallet: "T...", Reason: "x"}})
	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestLoadMissingFileNotRequired(t *testing.T) {
	bl, err := Load(filepath.Join(t.TempDir(), "missing.json"), false)
	require.NoError(t, err)
	evmEntries, solanaEntries, loadedAtStart := bl.Counters()
	assert.Zero(t, evmEntries)
	assert.Zero(t, solanaEntries)
	assert.False(t, loadedAtStart)
}

func TestLoadMissingFileRequiredIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), true)
	assert.Error(t, err)
}

func TestCheckPayerIsCheckedBeforeReceiver(t *testing.T) {
	path := writeBlacklistFile(t, []entry{
		{AccountType: "evm", Wallet: "0x1111111111111111111111111111111111111111", Reason: "payer blocked"},
		{AccountType: "evm", Wallet: "0x2222222222222222222222222222222222222222", Reason: "receiver blocked"},
	})
	bl, err := Load(path, true)
	require.NoError(t, err)

	err = bl.Check(types.FamilyEvm, "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payer blocked")
}

func TestCheckAllowsClean(t *testing.T) {
	bl := Empty()
	err := bl.Check(types.FamilyEvm, "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222")
	assert.NoError(t, err)
}
