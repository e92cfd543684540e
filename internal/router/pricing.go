package router

// Tier identifies one of the model cost/quality levels a call can be
// routed to. Pricing lookups for unknown tiers fall back to sonnet.
type Tier string

const (
	TierOpus   Tier = "opus"
	TierSonnet Tier = "sonnet"
	TierHaiku  Tier = "haiku"
)

// Pricing holds per-token USD prices for one tier.
type Pricing struct {
	InputPerToken  float64
	OutputPerToken float64
}

// PricingTable maps tier identifiers to prices. The table is treated as
// immutable after construction; routers receive it as a value so tests can
// substitute pricing without touching shared state.
type PricingTable map[Tier]Pricing

// DefaultPricingTable returns current Anthropic API pricing.
//   - opus:   $15/M input, $75/M output
//   - sonnet: $3/M input, $15/M output
//   - haiku:  $0.25/M input, $1.25/M output
func DefaultPricingTable() PricingTable {
	return PricingTable{
		TierOpus:   {InputPerToken: 0.000015, OutputPerToken: 0.000075},
		TierSonnet: {InputPerToken: 0.000003, OutputPerToken: 0.000015},
		TierHaiku:  {InputPerToken: 0.00000025, OutputPerToken: 0.00000125},
	}
}

// lookup resolves pricing for a tier, substituting the sonnet entry when
// the tier is absent. Unknown models therefore cost as mid-tier, which is
// an accuracy risk but never a failure.
func (p PricingTable) lookup(tier Tier) Pricing {
	if entry, ok := p[tier]; ok {
		return entry
	}
	return p[TierSonnet]
}
