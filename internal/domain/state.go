package domain

import "time"

// WatchItem is one (chain, pair) entry of the scan loop's watch list.
type WatchItem struct {
	Chain       Chain
	PairAddress string
	TokenSymbol string
	AddedAt     time.Time
}

// StateSnapshot is the persisted view of the mutable trading state.
// Candles are deliberately absent: they rebuild from live data after a
// restart.
type StateSnapshot struct {
	Balances  map[Chain]float64
	Positions []Position
	Watchlist []WatchItem
	SavedAt   time.Time
}
