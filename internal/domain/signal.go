package domain

import "time"

// Signal is a detected entry opportunity with precomputed exit targets.
// Immutable once created; consumed once by the risk gate.
type Signal struct {
	Chain        Chain
	PairAddress  string
	TokenAddress string
	TokenSymbol  string

	EntryPrice    float64
	VolumeRatio   float64 // 5m volume / trailing average
	PriceChange5m float64 // percent

	TakeProfit   float64   // entry × tp multiplier
	StopLoss     float64   // entry × (1 - sl percent)
	MaxHoldUntil time.Time // hard exit deadline

	LiquidityUSD float64
	Volume24h    float64

	Strength  int // 0..100, display/ranking only
	CreatedAt time.Time
}

// Valid reports whether the signal's targets bracket the entry price.
func (s Signal) Valid() bool {
	return s.StopLoss < s.EntryPrice && s.EntryPrice < s.TakeProfit
}
