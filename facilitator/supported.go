package facilitator

import (
	"sort"

	"github.com/x402-labs/facilitator-core/types"
)

// Supported implements GET /supported's discovery cross-product (§8 property
// 7, supplemented in full per the discovery expansion): the union of every
// registered network's asset table, intersected with the networks that
// currently have a live provider, since a network can be known to the
// registry but unconfigured at startup.
func (f *Facilitator) Supported() types.SupportedResponse {
	live := make(map[types.Network]bool)
	for _, n := range f.providers.Networks() {
		live[n] = true
	}

	var kinds []types.SupportedKind
	for _, info := range f.registry.Networks() {
		if !live[info.Network] {
			continue
		}
		for symbol := range info.Assets {
			kinds = append(kinds, types.SupportedKind{
				Scheme:  types.SchemeExact,
				Network: info.Network,
				Asset:   symbol,
			})
		}
	}

	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Network != kinds[j].Network {
			return kinds[i].Network < kinds[j].Network
		}
		return kinds[i].Asset < kinds[j].Asset
	})

	return types.SupportedResponse{Kinds: kinds}
}
