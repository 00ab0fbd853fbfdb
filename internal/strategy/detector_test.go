package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeSafety returns a canned verdict or error.
type fakeSafety struct {
	verdict domain.SafetyVerdict
	err     error
}

func (f fakeSafety) Check(context.Context, domain.Chain, string) (domain.SafetyVerdict, error) {
	return f.verdict, f.err
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDetector(safety fakeSafety) *Detector {
	return NewDetector(DefaultDetectorConfig(), safety, fixedClock{testNow})
}

// goodSnapshot passes every default filter with a 5x spike and +8% move.
func goodSnapshot() domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Chain:        domain.ChainBase,
		PairAddress:  "0xpair",
		BaseToken:    domain.TokenInfo{Address: "0xtoken", Symbol: "PEPE"},
		PriceUSD:     1.0,
		PriceChange:  domain.PeriodValues{M5: 8.0},
		Volume:       domain.PeriodValues{M5: 5000, H24: 200_000},
		LiquidityUSD: 80_000,
	}
}

func goodStats() domain.CandleStats {
	return domain.CandleStats{TrailingAvgVolume: 1000, Candles: 12}
}

func TestEvaluate_EmitsSignal(t *testing.T) {
	d := newTestDetector(fakeSafety{})

	sig := d.Evaluate(context.Background(), goodSnapshot(), goodStats())
	require.NotNil(t, sig)

	assert.Equal(t, domain.ChainBase, sig.Chain)
	assert.InDelta(t, 5.0, sig.VolumeRatio, 1e-9)
	assert.InDelta(t, 1.5, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 0.93, sig.StopLoss, 1e-9)
	assert.Equal(t, testNow.Add(30*time.Minute), sig.MaxHoldUntil)
	assert.True(t, sig.Valid(), "stop < entry < take profit must hold")
	assert.True(t, sig.MaxHoldUntil.After(sig.CreatedAt))
	assert.GreaterOrEqual(t, sig.Strength, 0)
	assert.LessOrEqual(t, sig.Strength, 100)
}

func TestEvaluate_LiquidityFloor(t *testing.T) {
	d := newTestDetector(fakeSafety{})
	snap := goodSnapshot()
	snap.LiquidityUSD = 10_000

	assert.Nil(t, d.Evaluate(context.Background(), snap, goodStats()))
}

func TestEvaluate_Volume24hFloor(t *testing.T) {
	d := newTestDetector(fakeSafety{})
	snap := goodSnapshot()
	snap.Volume.H24 = 5_000

	assert.Nil(t, d.Evaluate(context.Background(), snap, goodStats()))
}

func TestEvaluate_HoneypotRejected(t *testing.T) {
	d := newTestDetector(fakeSafety{verdict: domain.SafetyVerdict{Honeypot: true}})
	assert.Nil(t, d.Evaluate(context.Background(), goodSnapshot(), goodStats()))
}

func TestEvaluate_SafetyLookupFailureSkips(t *testing.T) {
	d := newTestDetector(fakeSafety{err: errors.New("timeout")})
	assert.Nil(t, d.Evaluate(context.Background(), goodSnapshot(), goodStats()))
}

func TestEvaluate_EntryConditionIsAND(t *testing.T) {
	d := newTestDetector(fakeSafety{})

	// Volume spike without the price move: no signal.
	snap := goodSnapshot()
	snap.PriceChange.M5 = 2.0
	assert.Nil(t, d.Evaluate(context.Background(), snap, goodStats()))

	// Price move without the volume spike: no signal.
	snap = goodSnapshot()
	snap.Volume.M5 = 1500
	assert.Nil(t, d.Evaluate(context.Background(), snap, goodStats()))
}

func TestEvaluate_NoCandleHistory(t *testing.T) {
	d := newTestDetector(fakeSafety{})
	assert.Nil(t, d.Evaluate(context.Background(), goodSnapshot(), domain.CandleStats{}))
}
