// Package blacklist implements the sanctions/fraud filter (C3): two disjoint
// address sets, built once at startup and immutable thereafter. No pack
// example implements a comparable filter, so this follows only the general
// fail-fast config-loading convention the teacher's cmd/facilitator/config.go
// and CedrosPay-server's internal/config use elsewhere in this repository.
package blacklist

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/x402-labs/facilitator-core/types"
)

// entry is the on-disk shape of one blacklist record.
type entry struct {
	AccountType string `json:"account_type"` // "evm" | "solana"
	Wallet      string `json:"wallet"`
	Reason      string `json:"reason"`
}

// Blacklist holds two immutable hash sets, keyed by canonicalized address,
// plus provenance for introspection.
type Blacklist struct {
	evm           map[string]string
	solana        map[string]string
	loadedAtStart bool
}

// Empty returns a Blacklist with no entries and LoadedAtStartup=false, used
// when no blacklist file is configured and require_blacklist is false.
func Empty() *Blacklist {
	return &Blacklist{evm: map[string]string{}, solana: map[string]string{}}
}

// Load reads a JSON file of {account_type, wallet, reason} entries. If
// require is true, any error loading or parsing the file is returned to the
// caller, who MUST treat it as fatal (exit code 1 per the configuration
// surface). If require is false and the file does not exist, Load returns an
// empty Blacklist and no error.
func Load(path string, require bool) (*Blacklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !require {
			return Empty(), nil
		}
		return nil, fmt.Errorf("read blacklist file %q: %w", path, err)
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse blacklist file %q: %w", path, err)
	}

	bl := &Blacklist{
		evm:           make(map[string]string, len(entries)),
		solana:        make(map[string]string, len(entries)),
		loadedAtStart: true,
	}
	for _, e := range entries {
		switch strings.ToLower(e.AccountType) {
		case "evm":
			bl.evm[canonicalEvm(e.Wallet)] = e.Reason
		case "solana":
			bl.solana[e.Wallet] = e.Reason
		default:
			return nil, fmt.Errorf("blacklist entry %q has unknown account_type %q", e.Wallet, e.AccountType)
		}
	}
	return bl, nil
}

func canonicalEvm(addr string) string {
	return strings.ToLower(addr)
}

// IsEvmBlocked returns the reason an EVM address is blocked, if any.
func (b *Blacklist) IsEvmBlocked(addr string) (string, bool) {
	reason, ok := b.evm[canonicalEvm(addr)]
	return reason, ok
}

// IsSolanaBlocked returns the reason a Solana address is blocked, if any.
func (b *Blacklist) IsSolanaBlocked(addr string) (string, bool) {
	reason, ok := b.solana[addr]
	return reason, ok
}

// Check enforces the blacklist for both payer and receiver roles, payer
// first, matching §4.6's ordering. The first hit wins.
func (b *Blacklist) Check(family types.NetworkFamily, payer, receiver string) error {
	for _, role := range []struct {
		label string
		addr  string
	}{{"sender", payer}, {"receiver", receiver}} {
		var reason string
		var blocked bool
		switch family {
		case types.FamilyEvm:
			reason, blocked = b.IsEvmBlocked(role.addr)
		case types.FamilySolana:
			reason, blocked = b.IsSolanaBlocked(role.addr)
		}
		if blocked {
			return types.NewError(types.ErrBlockedAddress, "%s: %s", role.label, reason)
		}
	}
	return nil
}

// Counters returns the entry counts and load provenance for introspection
// (GET /blacklist) without exposing the underlying lists.
func (b *Blacklist) Counters() (evmEntries, solanaEntries int, loadedAtStart bool) {
	return len(b.evm), len(b.solana), b.loadedAtStart
}
