package domain

import "time"

// Candle is a fixed-width OHLCV aggregate for one pair.
// The newest candle of a window is mutated in place while its period is
// current; everything older is read-only.
type Candle struct {
	PeriodStart time.Time // aligned to the configured interval
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64 // USD volume attributed to the period
}

// CandleStats is the rolling-window summary the signal detector consumes.
type CandleStats struct {
	TrailingAvgVolume float64 // mean volume of the trailing lookback window
	PriceChangePct    float64 // close-to-close change across the window
	Candles           int     // candles currently retained for the pair
}
