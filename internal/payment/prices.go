package payment

import "math/big"

// Base per-task prices per spec.md §4.1, in atomic units of a 6-decimal
// stablecoin asset (1_000_000 == $1).
const (
	PriceAgentChat      = "5000"
	PriceMCPToolRead    = "1000"
	PriceToolTransaction = "5000"
	PriceImageGenFlux   = "100000"
	PriceImageGenSDXL   = "50000"
	PriceAudioTTS       = "20000"
	PriceAudioASR       = "15000"
	PriceVideoGen       = "500000"
	PriceMemSearch      = "500"
	PriceMemAdd         = "1000"
)

// PlatformFeePerMillionTokensAtomic is the flat markup on top of provider
// cost, per spec.md §4.1 ("$0.10 per million tokens").
const PlatformFeePerMillionTokensAtomic = 100000

// ProviderPricing mirrors a registry.ModelInfo's pricing side-table entry.
type ProviderPricing struct {
	InputPerMillion  int64 // atomic units per 1M input tokens
	OutputPerMillion int64 // atomic units per 1M output tokens
}

// CostBreakdown is the settled amount and its components.
type CostBreakdown struct {
	ProviderCostAtomic int64
	PlatformFeeAtomic  int64
	TotalAtomic        int64
}

// CalculateInferenceCost implements spec.md §4.1's metering formula:
// providerCost = (inputTokens/1e6)*input$ + (outputTokens/1e6)*output$;
// platformFee = (totalTokens/1e6)*$0.10; total = providerCost + platformFee.
// A model with no pricing entry (zero pricing) is billed only platformFee.
func CalculateInferenceCost(inputTokens, outputTokens int64, pricing ProviderPricing) CostBreakdown {
	providerCost := mulDiv(inputTokens, pricing.InputPerMillion) + mulDiv(outputTokens, pricing.OutputPerMillion)
	totalTokens := inputTokens + outputTokens
	fee := mulDiv(totalTokens, PlatformFeePerMillionTokensAtomic)
	return CostBreakdown{
		ProviderCostAtomic: providerCost,
		PlatformFeeAtomic:  fee,
		TotalAtomic:        providerCost + fee,
	}
}

// CapAtCeiling enforces spec.md §8's boundary rule: a call whose computed
// cost exceeds the authorized ceiling still settles, but never above the
// ceiling.
func CapAtCeiling(total int64, ceilingAtomic string) int64 {
	ceiling := new(big.Int)
	if _, ok := ceiling.SetString(ceilingAtomic, 10); !ok {
		return total
	}
	if big.NewInt(total).Cmp(ceiling) > 0 {
		return ceiling.Int64()
	}
	return total
}

func mulDiv(tokens, perMillion int64) int64 {
	if tokens <= 0 || perMillion <= 0 {
		return 0
	}
	v := new(big.Int).Mul(big.NewInt(tokens), big.NewInt(perMillion))
	v.Div(v, big.NewInt(1_000_000))
	return v.Int64()
}
