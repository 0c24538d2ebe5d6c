// Package providercache implements the provider cache (C2): at startup, for
// every configured network, it takes the family-specific provider the caller
// has already constructed, wraps the provider's calls in a circuit breaker,
// and caches it under the network key. Lookup afterward is O(1) and
// lock-free; the cache is not synchronized, so every Register call happens
// during startup, before any lookup. Grounded on CedrosPay-server's
// internal/circuitbreaker manager for the breaker wiring.
package providercache

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/x402-labs/facilitator-core/types"
)

// Cache holds one breakerProvider per configured network.
type Cache struct {
	providers map[types.Network]*breakerProvider
}

// NetworkConfig is the per-network configuration the cache applies when
// wrapping a provider. The RPC endpoint and signer key are read by the caller
// from the resolved configuration surface when it builds the provider; the
// cache itself never reads configuration.
type NetworkConfig struct {
	Network       types.Network
	MaxInFlight   int // settle concurrency limit; 0 means unlimited
	BreakerConfig BreakerConfig
}

// BreakerConfig tunes the per-network gobreaker.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

func defaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// New builds an empty Cache. Use Register to populate it; construction is
// deliberately split from registration so the facilitator's startup
// sequence can fail fast per-network without losing providers it already
// built for other networks (a single unreachable RPC endpoint should not
// necessarily prevent other networks from serving requests, but the
// top-level cmd/facilitator wiring decides whether any missing network is
// fatal).
func New() *Cache {
	return &Cache{providers: make(map[types.Network]*breakerProvider)}
}

// Register wraps a constructed provider with a circuit breaker and a
// max-in-flight settle semaphore, then caches it. Calling Register twice for
// the same network replaces the entry; callers are expected to do all
// registration during startup before any request is served.
func (c *Cache) Register(cfg NetworkConfig, provider types.NetworkProvider) {
	bc := cfg.BreakerConfig
	if bc == (BreakerConfig{}) {
		bc = defaultBreakerConfig()
	}

	settings := gobreaker.Settings{
		Name:        string(cfg.Network),
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
	}

	maxInFlight := cfg.MaxInFlight
	var sem chan struct{}
	if maxInFlight > 0 {
		sem = make(chan struct{}, maxInFlight)
	}

	c.providers[cfg.Network] = &breakerProvider{
		inner:     provider,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		settleSem: sem,
	}
}

// Get returns the provider for a network, or UnsupportedNetwork if none was
// registered (distinct from the network being absent from the registry
// entirely: a network can be known to C1 but have no configured RPC
// endpoint, in which case it is UnsupportedNetwork here too per §4.3).
func (c *Cache) Get(network types.Network) (types.NetworkProvider, error) {
	p, ok := c.providers[network]
	if !ok {
		return nil, types.NewError(types.ErrUnsupportedNetwork, "no provider configured for network %q", network)
	}
	return p, nil
}

// Networks returns every network with a live, registered provider, for the
// discovery cross-product in §7's supplemented /supported behavior.
func (c *Cache) Networks() []types.Network {
	out := make([]types.Network, 0, len(c.providers))
	for n := range c.providers {
		out = append(out, n)
	}
	return out
}

// breakerProvider wraps a types.NetworkProvider so every RPC-backed call
// trips the breaker on repeated failure, and so concurrent Settle calls
// respect the per-network max-in-flight limit (§5's backpressure
// requirement, needed to avoid signer-nonce collisions on one EVM chain).
type breakerProvider struct {
	inner     types.NetworkProvider
	breaker   *gobreaker.CircuitBreaker
	settleSem chan struct{}
}

func (b *breakerProvider) Network() types.Network     { return b.inner.Network() }
func (b *breakerProvider) Family() types.NetworkFamily { return b.inner.Family() }

func (b *breakerProvider) Verify(ctx context.Context, payload types.PaymentPayload, req types.PaymentRequirements) (types.VerifyResult, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Verify(ctx, payload, req)
	})
	return asVerifyResult(out, err)
}

func (b *breakerProvider) Settle(ctx context.Context, payload types.PaymentPayload, req types.PaymentRequirements) (types.SettleResult, error) {
	if b.settleSem != nil {
		select {
		case b.settleSem <- struct{}{}:
			defer func() { <-b.settleSem }()
		case <-ctx.Done():
			return types.SettleResult{}, fmt.Errorf("settle: %w", ctx.Err())
		}
	}

	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Settle(ctx, payload, req)
	})
	return asSettleResult(out, err)
}

func asVerifyResult(out interface{}, err error) (types.VerifyResult, error) {
	if v, ok := out.(types.VerifyResult); ok {
		return v, err
	}
	return types.VerifyResult{}, err
}

func asSettleResult(out interface{}, err error) (types.SettleResult, error) {
	if v, ok := out.(types.SettleResult); ok {
		return v, err
	}
	return types.SettleResult{}, err
}

var _ types.NetworkProvider = (*breakerProvider)(nil)
