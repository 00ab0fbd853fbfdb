package domain

import "math"

// Strength score bucket caps. The three buckets are independent and each
// saturates on its own; the sum is clamped to [0, 100].
const (
	volumeBucketMax    = 45.0
	priceBucketMax     = 30.0
	liquidityBucketMax = 25.0

	// Saturation points: a 5× volume spike, a +10% 5m move and
	// $100k of liquidity each fill their bucket completely.
	volumeSaturationRatio = 5.0
	priceSaturationPct    = 10.0
	liquiditySaturation   = 100_000.0
)

// StrengthScore computes the 0..100 signal strength from the three entry
// metrics. Used for display and ranking only, never for gating.
func StrengthScore(volumeRatio, priceChange5m, liquidityUSD float64) int {
	v := math.Min(math.Max(volumeRatio, 0)/volumeSaturationRatio, 1) * volumeBucketMax
	p := math.Min(math.Max(priceChange5m, 0)/priceSaturationPct, 1) * priceBucketMax
	l := math.Min(math.Max(liquidityUSD, 0)/liquiditySaturation, 1) * liquidityBucketMax

	score := v + p + l
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
