// Package registry is the static network table (C1 of the facilitator
// core): for every supported Network it holds the chain family, the EVM
// chain ID where applicable, and the registered asset deployments. Adding a
// network is a pure data change here; provider and family logic are reused
// unmodified.
package registry

import (
	"github.com/x402-labs/facilitator-core/types"
)

// Registry is an immutable, process-wide lookup table built once at startup.
type Registry struct {
	networks map[types.Network]types.NetworkInfo
}

// New builds a Registry from the built-in network table merged with any
// operator-supplied asset overrides (e.g. a non-default stablecoin
// deployment). Passing a nil overrides map uses the defaults verbatim.
func New(overrides map[types.Network]map[string]types.AssetDeployment) *Registry {
	networks := defaultNetworks()
	for network, assets := range overrides {
		info, ok := networks[network]
		if !ok {
			continue
		}
		for symbol, deployment := range assets {
			info.Assets[symbol] = deployment
		}
		networks[network] = info
	}
	return &Registry{networks: networks}
}

// Lookup returns the static info for a Network, or UnsupportedNetwork.
func (r *Registry) Lookup(network types.Network) (types.NetworkInfo, error) {
	info, ok := r.networks[network]
	if !ok {
		return types.NetworkInfo{}, types.NewError(types.ErrUnsupportedNetwork, "network %q is not registered", network)
	}
	return info, nil
}

// Asset returns the deployment for a (network, symbol) pair.
func (r *Registry) Asset(network types.Network, symbol string) (types.AssetDeployment, error) {
	info, err := r.Lookup(network)
	if err != nil {
		return types.AssetDeployment{}, err
	}
	asset, ok := info.Assets[symbol]
	if !ok {
		return types.AssetDeployment{}, types.NewError(types.ErrUnsupportedNetwork, "asset %q is not registered on %q", symbol, network)
	}
	return asset, nil
}

// Networks returns every registered Network, for discovery enumeration.
func (r *Registry) Networks() []types.NetworkInfo {
	out := make([]types.NetworkInfo, 0, len(r.networks))
	for _, info := range r.networks {
		out = append(out, info)
	}
	return out
}

func defaultNetworks() map[types.Network]types.NetworkInfo {
	usdcEvm := func(address, name, version string) types.AssetDeployment {
		return types.AssetDeployment{
			Address:         address,
			Decimals:        6,
			EIP712Name:      name,
			EIP712Version:   version,
			SupportsEIP3009: true,
		}
	}

	return map[types.Network]types.NetworkInfo{
		types.NetworkEthereum: {
			Network:     types.NetworkEthereum,
			Family:      types.FamilyEvm,
			DisplayName: "Ethereum",
			ChainID:     1,
			Assets: map[string]types.AssetDeployment{
				"USDC": usdcEvm("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "USD Coin", "2"),
			},
		},
		types.NetworkBase: {
			Network:     types.NetworkBase,
			Family:      types.FamilyEvm,
			DisplayName: "Base",
			ChainID:     8453,
			Assets: map[string]types.AssetDeployment{
				"USDC": usdcEvm("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "USD Coin", "2"),
			},
		},
		types.NetworkBaseSepolia: {
			Network:     types.NetworkBaseSepolia,
			Family:      types.FamilyEvm,
			DisplayName: "Base Sepolia",
			ChainID:     84532,
			Assets: map[string]types.AssetDeployment{
				"USDC": usdcEvm("0x036CbD53842c5426634e7929541eC2318f3dCF7e", "USDC", "2"),
			},
		},
		types.NetworkSolanaMainnet: {
			Network:     types.NetworkSolanaMainnet,
			Family:      types.FamilySolana,
			DisplayName: "Solana Mainnet",
			Assets: map[string]types.AssetDeployment{
				"USDC": {Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
			},
		},
		types.NetworkSolanaDevnet: {
			Network:     types.NetworkSolanaDevnet,
			Family:      types.FamilySolana,
			DisplayName: "Solana Devnet",
			Assets: map[string]types.AssetDeployment{
				"USDC": {Address: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", Decimals: 6},
			},
		},
	}
}
