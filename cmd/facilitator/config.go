package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/x402-labs/facilitator-core/types"
)

// networkEnvSuffix maps a registered Network to the suffix used in its
// RPC_URL_<suffix> and <FAMILY>_PRIVATE_KEY_<class> environment variables,
// per §6's configuration surface.
var networkEnvSuffix = map[types.Network]string{
	types.NetworkEthereum:      "ETHEREUM",
	types.NetworkBase:          "BASE",
	types.NetworkBaseSepolia:   "BASE_SEPOLIA",
	types.NetworkSolanaMainnet: "SOLANA_MAINNET",
	types.NetworkSolanaDevnet:  "SOLANA_DEVNET",
}

// mainnetNetworks classifies which networks draw their signer key from the
// MAINNET private key env vars rather than TESTNET.
var mainnetNetworks = map[types.Network]bool{
	types.NetworkEthereum:      true,
	types.NetworkBase:          true,
	types.NetworkSolanaMainnet: true,
}

// Config is the fully resolved configuration surface of §6.
type Config struct {
	Port int `koanf:"port"`

	RPCURLs map[types.Network]string

	EVMPrivateKeyMainnet    string `koanf:"evm_private_key_mainnet"`
	EVMPrivateKeyTestnet    string `koanf:"evm_private_key_testnet"`
	SolanaPrivateKeyMainnet string `koanf:"solana_private_key_mainnet"`
	SolanaPrivateKeyTestnet string `koanf:"solana_private_key_testnet"`

	BlacklistPath     string `koanf:"blacklist_path"`
	BlacklistRequired bool   `koanf:"blacklist_required"`
	EnableEscrow      bool   `koanf:"enable_escrow"`
	FacilitatorURL    string `koanf:"facilitator_url"`

	SettleMaxInFlight int `koanf:"settle_max_inflight"`

	// RedisURL selects the shared NonceStore backing when non-empty
	// (e.g. "redis://localhost:6379/0"). Empty means the in-memory,
	// single-process NonceStore.
	RedisURL string `koanf:"redis_url"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

// LoadConfig resolves configuration from, in ascending priority: defaults,
// a TOML config file, environment variables (prefixed FACILITATOR_), and
// command-line flags. Mirrors the teacher's cmd/client/config.go layering.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	k.Set("port", 9090)
	k.Set("blacklist_path", "blacklist.json")
	k.Set("blacklist_required", false)
	k.Set("enable_escrow", false)
	k.Set("settle_max_inflight", 4)
	k.Set("log_level", "info")
	k.Set("log_format", "json")

	f := pflag.NewFlagSet("config", pflag.ContinueOnError)
	f.String("config", "config.toml", "Path to configuration file")
	f.Int("port", 9090, "HTTP server port")
	f.String("blacklist-path", "blacklist.json", "Path to the blacklist JSON file")
	f.Bool("blacklist-required", false, "Fail startup if the blacklist file cannot be read")
	f.Bool("enable-escrow", false, "Enable the escrow routing extension")
	f.Int("settle-max-inflight", 4, "Maximum concurrent settle calls per network")
	f.String("redis-url", "", "Redis URL backing the Solana NonceStore (empty uses an in-memory store)")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "json", "Log format: json, console")
	if err := f.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	configPath, _ := f.GetString("config")
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %q: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("FACILITATOR_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "FACILITATOR_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.EVMPrivateKeyMainnet = os.Getenv("EVM_PRIVATE_KEY_MAINNET")
	cfg.EVMPrivateKeyTestnet = os.Getenv("EVM_PRIVATE_KEY_TESTNET")
	cfg.SolanaPrivateKeyMainnet = os.Getenv("SOLANA_PRIVATE_KEY_MAINNET")
	cfg.SolanaPrivateKeyTestnet = os.Getenv("SOLANA_PRIVATE_KEY_DEVNET")

	cfg.RPCURLs = make(map[types.Network]string, len(networkEnvSuffix))
	for network, suffix := range networkEnvSuffix {
		if url := os.Getenv("RPC_URL_" + suffix); url != "" {
			cfg.RPCURLs[network] = url
		}
	}

	return &cfg, nil
}

// PrivateKeyFor returns the signer hex key for a network's chain family,
// drawing from the mainnet or testnet env var per mainnetNetworks.
func (c *Config) PrivateKeyFor(family types.NetworkFamily, network types.Network) string {
	mainnet := mainnetNetworks[network]
	switch family {
	case types.FamilyEvm:
		if mainnet {
			return c.EVMPrivateKeyMainnet
		}
		return c.EVMPrivateKeyTestnet
	case types.FamilySolana:
		if mainnet {
			return c.SolanaPrivateKeyMainnet
		}
		return c.SolanaPrivateKeyTestnet
	default:
		return ""
	}
}

func printUsage() {
	println("Usage: facilitator [options]")
	println()
	println("x402 payment facilitator: verifies and settles exact-scheme payments")
	println("over EIP-3009 (EVM) and SPL token transfers (Solana).")
	println()
	println("Options:")
	println("  --config string              Path to configuration file (default \"config.toml\")")
	println("  --port int                   HTTP server port (default 9090)")
	println("  --blacklist-path string      Path to the blacklist JSON file")
	println("  --blacklist-required         Fail startup if the blacklist file cannot be read")
	println("  --enable-escrow              Enable the escrow routing extension")
	println("  --settle-max-inflight int    Maximum concurrent settle calls per network")
	println("  --redis-url string           Redis URL backing the Solana NonceStore (default: in-memory)")
	println("  --log-level string           debug, info, warn, error")
	println("  --log-format string          json, console")
	println("  -h, --help                   Show this help message")
	println()
	println("Signer keys and RPC endpoints are read directly from the environment:")
	println("  EVM_PRIVATE_KEY_MAINNET, EVM_PRIVATE_KEY_TESTNET")
	println("  SOLANA_PRIVATE_KEY_MAINNET, SOLANA_PRIVATE_KEY_DEVNET")
	println("  RPC_URL_ETHEREUM, RPC_URL_BASE, RPC_URL_BASE_SEPOLIA,")
	println("  RPC_URL_SOLANA_MAINNET, RPC_URL_SOLANA_DEVNET")
}
