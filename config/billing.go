package config

import (
	"os"
	"strconv"
)

// BillingPolicy carries the contractor-billing constants. The blending
// weights and the contract-rate cap came from the business side without a
// documented rationale, so they are env-tunable rather than hard-coded.
type BillingPolicy struct {
	// MarketDailyRate is the reference labour-day rate used as the
	// blending baseline.
	MarketDailyRate float64
	// ContractRateCap is the upper bound beyond which a negotiated rate
	// is ignored as implausible.
	ContractRateCap float64
	// ReferenceWeight and ContractWeight blend the market and contract
	// rates; reference is weighted more heavily to resist contract-rate
	// manipulation.
	ReferenceWeight float64
	ContractWeight  float64
	// GSTRatePercent is applied on the taxable amount.
	GSTRatePercent float64
}

// DefaultBillingPolicy holds the production defaults.
var DefaultBillingPolicy = BillingPolicy{
	MarketDailyRate: 800.00,
	ContractRateCap: 1500.00,
	ReferenceWeight: 0.7,
	ContractWeight:  0.3,
	GSTRatePercent:  18.0,
}

// LoadBillingPolicy reads BILLING_* overrides from the environment,
// falling back to the defaults for anything unset or unparsable.
func LoadBillingPolicy() BillingPolicy {
	p := DefaultBillingPolicy
	p.MarketDailyRate = envFloat("BILLING_MARKET_DAILY_RATE", p.MarketDailyRate)
	p.ContractRateCap = envFloat("BILLING_CONTRACT_RATE_CAP", p.ContractRateCap)
	p.ReferenceWeight = envFloat("BILLING_REFERENCE_WEIGHT", p.ReferenceWeight)
	p.ContractWeight = envFloat("BILLING_CONTRACT_WEIGHT", p.ContractWeight)
	p.GSTRatePercent = envFloat("BILLING_GST_RATE", p.GSTRatePercent)
	return p
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
