package domain

import "time"

// Chain identifies a supported blockchain.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBSC      Chain = "bsc"
	ChainBase     Chain = "base"
	ChainSolana   Chain = "solana"
)

// TokenInfo identifies one side of a trading pair.
type TokenInfo struct {
	Address string
	Symbol  string
	Name    string
}

// PeriodValues holds a metric over the standard lookback windows
// reported by the market-data provider.
type PeriodValues struct {
	M5  float64
	H1  float64
	H6  float64
	H24 float64
}

// TxnCounts holds 24h buy/sell transaction counts.
type TxnCounts struct {
	Buys  int
	Sells int
}

// MarketSnapshot is a point-in-time view of a pair as reported by the
// market-data provider. Immutable once produced; cadence is best-effort.
type MarketSnapshot struct {
	Chain       Chain
	PairAddress string
	BaseToken   TokenInfo
	QuoteToken  TokenInfo

	PriceNative  float64 // price in the chain's native coin
	PriceUSD     float64
	PriceChange  PeriodValues // percent, signed
	Volume       PeriodValues // USD
	LiquidityUSD float64
	Txns24h      TxnCounts

	PairCreatedAt time.Time
	FetchedAt     time.Time
}

// Age returns how long ago the pair was created. Zero if unknown.
func (s MarketSnapshot) Age(now time.Time) time.Duration {
	if s.PairCreatedAt.IsZero() {
		return 0
	}
	return now.Sub(s.PairCreatedAt)
}

// BuySellRatio returns 24h buys / sells. Returns buys if there are no sells.
func (s MarketSnapshot) BuySellRatio() float64 {
	if s.Txns24h.Sells == 0 {
		return float64(s.Txns24h.Buys)
	}
	return float64(s.Txns24h.Buys) / float64(s.Txns24h.Sells)
}
