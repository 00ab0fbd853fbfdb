package dexscreener

import (
	"strconv"
	"time"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// mapPair converts a DexScreener pair object into the domain snapshot.
// Unparseable prices degrade to 0 — the detector's floors reject them.
func mapPair(p pairJSON, fetchedAt time.Time) domain.MarketSnapshot {
	var createdAt time.Time
	if p.PairCreatedAt > 0 {
		createdAt = time.UnixMilli(p.PairCreatedAt).UTC()
	}

	return domain.MarketSnapshot{
		Chain:       domain.Chain(p.ChainID),
		PairAddress: p.PairAddress,
		BaseToken: domain.TokenInfo{
			Address: p.BaseToken.Address,
			Symbol:  p.BaseToken.Symbol,
			Name:    p.BaseToken.Name,
		},
		QuoteToken: domain.TokenInfo{
			Address: p.QuoteToken.Address,
			Symbol:  p.QuoteToken.Symbol,
			Name:    p.QuoteToken.Name,
		},
		PriceNative: parsePrice(p.PriceNative),
		PriceUSD:    parsePrice(p.PriceUSD),
		PriceChange: domain.PeriodValues{
			M5:  p.PriceChange.M5,
			H1:  p.PriceChange.H1,
			H6:  p.PriceChange.H6,
			H24: p.PriceChange.H24,
		},
		Volume: domain.PeriodValues{
			M5:  p.Volume.M5,
			H1:  p.Volume.H1,
			H6:  p.Volume.H6,
			H24: p.Volume.H24,
		},
		LiquidityUSD: p.Liquidity.USD,
		Txns24h: domain.TxnCounts{
			Buys:  p.Txns.H24.Buys,
			Sells: p.Txns.H24.Sells,
		},
		PairCreatedAt: createdAt,
		FetchedAt:     fetchedAt,
	}
}

func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
