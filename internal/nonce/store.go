// Package nonce implements the Solana NonceStore: a map of (payer, nonce) to
// expiration, populated on successful settle and consulted on every verify.
// The interface is pluggable per §9's design note so an external KV (Redis)
// can back it without any provider code changing.
package nonce

import "context"

// Store tracks which (payer, key) pairs have already been settled. Key is
// the provider-chosen uniqueness token: for Solana, the transaction's
// recent blockhash.
type Store interface {
	// MarkUsed records (payer, key) as used with the given expiry in unix
	// seconds. Returns an error only on a backing-store failure.
	MarkUsed(ctx context.Context, payer, key string, expiresAt int64) error

	// IsUsed reports whether (payer, key) has already been marked used and
	// has not yet passed its expiration.
	IsUsed(ctx context.Context, payer, key string) (bool, error)
}
