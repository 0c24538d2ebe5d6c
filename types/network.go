package types

// Network is a closed identifier for a single chain instance. Mainnet and
// testnet are always distinct values, never the same Network parameterized
// by environment. Values are the short names used on the x402 wire (the
// same strings a PaymentPayload/PaymentRequirements carries in its
// "network" field), not CAIP-2 chain IDs.
type Network string

const (
	NetworkEthereum    Network = "ethereum"
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia"

	NetworkSolanaMainnet Network = "solana"
	NetworkSolanaDevnet  Network = "solana-devnet"
)

// NetworkInfo is the static, non-secret description of a Network held by the
// registry: everything needed to route a request to the right family and
// construct the right provider, but nothing environment-specific (RPC URLs,
// keys) — those live in configuration, not here.
type NetworkInfo struct {
	Network     Network
	Family      NetworkFamily
	DisplayName string
	// ChainID is set for EVM networks only; zero for Solana.
	ChainID int64
	Assets  map[string]AssetDeployment
}

// AssetDeployment is the on-chain address and metadata for one asset on one
// network. Decimals and the EIP-712 name/version (EVM only) are fixed at
// registration time; a PaymentRequirements' Extra field may override name and
// version for a single request without touching the registry.
type AssetDeployment struct {
	// Address is the on-chain address: "0x"+40 hex for EVM, base58 for Solana.
	Address  string
	Decimals uint8

	// EIP712Name and EIP712Version are the domain defaults for EVM assets
	// supporting EIP-3009 (e.g. "USD Coin" / "2" for USDC). Unused on Solana.
	EIP712Name    string
	EIP712Version string

	// SupportsEIP3009 gates whether the EVM provider may use the
	// transferWithAuthorization path for this asset at all.
	SupportsEIP3009 bool
}
