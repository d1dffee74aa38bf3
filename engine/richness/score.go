// Package richness computes a 0..1 completeness score for a decoded record.
// The score biases disclosure-level suggestion and is never shown to users.
package richness

import "github.com/VinsightAI/vinsight-mvp/engine/domain"

// Group weights. Premium extras carry their own sub-weights: market value and
// history dominate, a non-empty feature list counts for less.
const (
	weightEssential = 0.30
	weightStandard  = 0.25
	weightDetailed  = 0.25
	weightPremium   = 0.20

	premiumMarketValue = 0.4
	premiumHistory     = 0.4
	premiumFeatures    = 0.2
)

// Score returns the weighted field-group completeness of record in [0,1].
// Each group contributes the fraction of its fields present, scaled by the
// group weight; the sum is normalized by the total weight evaluated.
func Score(record *domain.VehicleRecord) float64 {
	if record == nil || len(record.Attributes) == 0 {
		return 0
	}

	total := 0.0
	used := 0.0

	total += weightEssential * presentFraction(record.Attributes, domain.EssentialFields)
	used += weightEssential
	total += weightStandard * presentFraction(record.Attributes, domain.StandardFields)
	used += weightStandard
	total += weightDetailed * presentFraction(record.Attributes, domain.DetailedFields)
	used += weightDetailed

	premium := 0.0
	if record.MarketValue != nil {
		premium += premiumMarketValue
	}
	if record.History != nil {
		premium += premiumHistory
	}
	if len(record.Attributes.GetList(domain.AttrFeatures)) > 0 {
		premium += premiumFeatures
	}
	total += weightPremium * premium
	used += weightPremium

	score := total / used
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func presentFraction(attrs domain.Attributes, fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	present := 0
	for _, f := range fields {
		if attrs.Has(f) {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}
