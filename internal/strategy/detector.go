package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/scalpbot/internal/domain"
	"github.com/alejandrodnm/scalpbot/internal/ports"
)

// DetectorConfig holds the tunable entry rules.
type DetectorConfig struct {
	// Entry condition: both must hold at once (AND, deliberately not OR).
	VolumeMultiplier  float64 // 5m volume ÷ trailing average must reach this
	MinPriceChangePct float64 // 5m price change floor, percent

	// Cheap pre-filters, checked before anything else.
	MinLiquidityUSD float64
	MinVolume24hUSD float64

	// Exit targets stamped onto the signal.
	TakeProfitMult float64 // take profit = entry × this
	StopLossPct    float64 // stop loss = entry × (1 - this/100)
	MaxHold        time.Duration
}

// DefaultDetectorConfig returns sane production entry rules.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		VolumeMultiplier:  3.0,
		MinPriceChangePct: 5.0,
		MinLiquidityUSD:   30_000,
		MinVolume24hUSD:   50_000,
		TakeProfitMult:    1.5,
		StopLossPct:       7.0,
		MaxHold:           30 * time.Minute,
	}
}

// Detector evaluates snapshots against the entry rules and emits scored
// signals with precomputed exit targets. Stateless apart from its
// collaborators; the candle window lives in the aggregator.
type Detector struct {
	cfg    DetectorConfig
	safety ports.SafetyChecker
	clock  domain.Clock
}

// NewDetector creates a Detector.
func NewDetector(cfg DetectorConfig, safety ports.SafetyChecker, clock domain.Clock) *Detector {
	return &Detector{cfg: cfg, safety: safety, clock: clock}
}

// Evaluate returns a Signal if the snapshot passes every filter and the
// entry condition, nil otherwise. Filter rejections are "no action", not
// errors; a failed safety lookup skips the pair for this cycle.
func (d *Detector) Evaluate(ctx context.Context, snap domain.MarketSnapshot, stats domain.CandleStats) *domain.Signal {
	// Cheapest filters first, short-circuit.
	if snap.LiquidityUSD < d.cfg.MinLiquidityUSD {
		return nil
	}
	if snap.Volume.H24 < d.cfg.MinVolume24hUSD {
		return nil
	}

	verdict, err := d.safety.Check(ctx, snap.Chain, snap.BaseToken.Address)
	if err != nil {
		slog.Debug("safety check unavailable, skipping pair",
			"chain", snap.Chain, "pair", snap.PairAddress, "err", err)
		return nil
	}
	if verdict.Unsafe() {
		slog.Debug("token rejected by safety verdict",
			"chain", snap.Chain, "token", snap.BaseToken.Symbol,
			"honeypot", verdict.Honeypot, "high_risk", verdict.HighRisk)
		return nil
	}

	if stats.TrailingAvgVolume <= 0 {
		return nil // no candle history yet for this pair
	}
	volumeRatio := snap.Volume.M5 / stats.TrailingAvgVolume

	if volumeRatio < d.cfg.VolumeMultiplier {
		return nil
	}
	if snap.PriceChange.M5 < d.cfg.MinPriceChangePct {
		return nil
	}

	now := d.clock.Now()
	entry := snap.PriceUSD

	return &domain.Signal{
		Chain:         snap.Chain,
		PairAddress:   snap.PairAddress,
		TokenAddress:  snap.BaseToken.Address,
		TokenSymbol:   snap.BaseToken.Symbol,
		EntryPrice:    entry,
		VolumeRatio:   volumeRatio,
		PriceChange5m: snap.PriceChange.M5,
		TakeProfit:    entry * d.cfg.TakeProfitMult,
		StopLoss:      entry * (1 - d.cfg.StopLossPct/100),
		MaxHoldUntil:  now.Add(d.cfg.MaxHold),
		LiquidityUSD:  snap.LiquidityUSD,
		Volume24h:     snap.Volume.H24,
		Strength:      domain.StrengthScore(volumeRatio, snap.PriceChange.M5, snap.LiquidityUSD),
		CreatedAt:     now,
	}
}
