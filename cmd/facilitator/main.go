// Command facilitator runs the x402 exact-scheme payment facilitator HTTP
// server: it wires the network registry, blacklist, per-network providers,
// provider cache, and facilitator dispatch into an api.Server and serves it
// with graceful shutdown. Grounded on the teacher's cmd/client/main.go
// startup/shutdown shape, generalized from a single hardcoded network to the
// full multi-network surface described in this repository's configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/x402-labs/facilitator-core/api"
	"github.com/x402-labs/facilitator-core/facilitator"
	"github.com/x402-labs/facilitator-core/internal/blacklist"
	"github.com/x402-labs/facilitator-core/internal/escrow"
	"github.com/x402-labs/facilitator-core/internal/evm"
	"github.com/x402-labs/facilitator-core/internal/logging"
	"github.com/x402-labs/facilitator-core/internal/nonce"
	"github.com/x402-labs/facilitator-core/internal/providercache"
	"github.com/x402-labs/facilitator-core/internal/registry"
	"github.com/x402-labs/facilitator-core/internal/solana"
	"github.com/x402-labs/facilitator-core/types"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-h" || arg == "-help" || arg == "--help" {
			printUsage()
			os.Exit(0)
		}
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "facilitator", Version: "dev"})
	log.Logger = baseLogger

	bl, err := blacklist.Load(cfg.BlacklistPath, cfg.BlacklistRequired)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load blacklist, shutting down")
	}

	reg := registry.New(nil)
	escrowRouter := escrow.New(cfg.EnableEscrow)

	var nonceStore nonce.Store
	if cfg.RedisURL != "" {
		redisStore, err := nonce.NewRedisStore(cfg.RedisURL, "facilitator")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis, shutting down")
		}
		defer redisStore.Close()
		nonceStore = redisStore
		log.Info().Msg("using redis-backed nonce store")
	} else {
		nonceStore = nonce.NewMemoryStore()
		log.Info().Msg("using in-memory nonce store")
	}

	cache := providercache.New()
	for _, info := range reg.Networks() {
		rpcURL := cfg.RPCURLs[info.Network]
		if rpcURL == "" {
			log.Warn().Str("network", string(info.Network)).Msg("no RPC endpoint configured, network will be unavailable")
			continue
		}

		provider, err := buildProvider(info, rpcURL, cfg, reg, nonceStore, escrowRouter)
		if err != nil {
			log.Fatal().Err(err).Str("network", string(info.Network)).Msg("network is configured but its provider could not be built, shutting down")
		}

		cache.Register(providercache.NetworkConfig{
			Network:     info.Network,
			MaxInFlight: cfg.SettleMaxInFlight,
		}, provider)
		log.Info().Str("network", string(info.Network)).Msg("provider registered")
	}

	fac := facilitator.New(reg, cache, bl)
	server := api.NewServer(fac, bl, baseLogger)

	runServer(server, cfg.Port)
}

// buildProvider constructs the chain-family provider for one network,
// dialing its RPC endpoint and, for EVM, deriving a signer from the
// configured private key.
func buildProvider(info types.NetworkInfo, rpcURL string, cfg *Config, reg *registry.Registry, nonceStore nonce.Store, escrowRouter *escrow.Router) (types.NetworkProvider, error) {
	switch info.Family {
	case types.FamilyEvm:
		privateKey := cfg.PrivateKeyFor(types.FamilyEvm, info.Network)
		if privateKey == "" {
			return nil, fmt.Errorf("no signer private key configured for %s", info.Network)
		}
		signer, err := evm.NewSigner(evm.SignerConfig{RPCURL: rpcURL, ChainID: info.ChainID, PrivateKey: privateKey})
		if err != nil {
			return nil, fmt.Errorf("build signer: %w", err)
		}
		return evm.NewProvider(info.Network, reg, signer, escrowRouter), nil

	case types.FamilySolana:
		rpcClient := rpc.New(rpcURL)
		return solana.NewProvider(info.Network, reg, rpcClient, nonceStore), nil

	default:
		return nil, fmt.Errorf("network %s has no recognized chain family", info.Network)
	}
}

// runServer starts the HTTP server and blocks until SIGINT/SIGTERM, then
// drains in-flight requests before returning.
func runServer(server *api.Server, port int) {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: server,
	}

	go func() {
		log.Info().Int("port", port).Msg("starting facilitator server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
