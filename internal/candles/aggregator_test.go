package candles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// fakeClock lets tests step through candle periods.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func snap(price, vol5m float64) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		PriceUSD: price,
		Volume:   domain.PeriodValues{M5: vol5m},
	}
}

func newTestAggregator(max int) (*Aggregator, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(5*time.Minute, max, clock), clock
}

func TestUpdate_SamePeriodMutatesInPlace(t *testing.T) {
	agg, clock := newTestAggregator(100)

	agg.Update(domain.ChainBase, "0xpair", snap(1.00, 100))
	clock.advance(time.Minute)
	agg.Update(domain.ChainBase, "0xpair", snap(1.20, 250))
	clock.advance(time.Minute)
	agg.Update(domain.ChainBase, "0xpair", snap(0.90, 300))

	candles := agg.Candles(domain.ChainBase, "0xpair", 0)
	require.Len(t, candles, 1)

	c := candles[0]
	assert.Equal(t, 1.00, c.Open)
	assert.Equal(t, 1.20, c.High)
	assert.Equal(t, 0.90, c.Low)
	assert.Equal(t, 0.90, c.Close)
	assert.Equal(t, 300.0, c.Volume)
}

func TestUpdate_RolloverAppendsNewCandle(t *testing.T) {
	agg, clock := newTestAggregator(100)

	agg.Update(domain.ChainBase, "0xpair", snap(1.00, 100))
	clock.advance(5 * time.Minute)
	agg.Update(domain.ChainBase, "0xpair", snap(1.10, 150))

	candles := agg.Candles(domain.ChainBase, "0xpair", 0)
	require.Len(t, candles, 2)
	assert.Equal(t, 1.00, candles[0].Close)
	assert.Equal(t, 1.10, candles[1].Open)
	assert.True(t, candles[1].PeriodStart.After(candles[0].PeriodStart))
}

func TestUpdate_WindowNeverExceedsBound(t *testing.T) {
	agg, clock := newTestAggregator(5)

	for i := 0; i < 20; i++ {
		agg.Update(domain.ChainBSC, "0xpair", snap(float64(i+1), 10))
		clock.advance(5 * time.Minute)
	}

	candles := agg.Candles(domain.ChainBSC, "0xpair", 0)
	require.Len(t, candles, 5)
	// Oldest retained candle is the 16th fed in.
	assert.Equal(t, 16.0, candles[0].Close)
	assert.Equal(t, 20.0, candles[4].Close)
}

func TestUpdate_OneCurrentCandlePerPair(t *testing.T) {
	agg, clock := newTestAggregator(100)

	for i := 0; i < 10; i++ {
		agg.Update(domain.ChainSolana, "pairA", snap(2.0, 50))
		clock.advance(time.Minute)
	}

	current := clock.now.Truncate(5 * time.Minute)
	matches := 0
	for _, c := range agg.Candles(domain.ChainSolana, "pairA", 0) {
		if c.PeriodStart.Equal(current) {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestAverageVolume(t *testing.T) {
	agg, clock := newTestAggregator(100)

	for _, vol := range []float64{100, 200, 300} {
		agg.Update(domain.ChainBase, "0xpair", snap(1.0, vol))
		clock.advance(5 * time.Minute)
	}

	assert.InDelta(t, 200.0, agg.AverageVolume(domain.ChainBase, "0xpair", 3), 1e-9)
	assert.InDelta(t, 250.0, agg.AverageVolume(domain.ChainBase, "0xpair", 2), 1e-9)
}

func TestAverageVolume_NoData(t *testing.T) {
	agg, _ := newTestAggregator(100)
	assert.Equal(t, 0.0, agg.AverageVolume(domain.ChainBase, "unknown", 12))
}

func TestPriceChange(t *testing.T) {
	agg, clock := newTestAggregator(100)

	for _, price := range []float64{1.00, 1.10, 1.25} {
		agg.Update(domain.ChainBase, "0xpair", snap(price, 10))
		clock.advance(5 * time.Minute)
	}

	assert.InDelta(t, 25.0, agg.PriceChange(domain.ChainBase, "0xpair", 3), 1e-9)
}

func TestPriceChange_SingleCandle(t *testing.T) {
	agg, _ := newTestAggregator(100)
	agg.Update(domain.ChainBase, "0xpair", snap(1.0, 10))
	assert.Equal(t, 0.0, agg.PriceChange(domain.ChainBase, "0xpair", 3))
}

func TestTrailingAverageVolume_SkipsCurrentCandle(t *testing.T) {
	agg, clock := newTestAggregator(100)

	agg.Update(domain.ChainBase, "0xpair", snap(1.0, 100))
	clock.advance(5 * time.Minute)
	agg.Update(domain.ChainBase, "0xpair", snap(1.0, 500))

	// The 500-volume candle is still in progress and must not count.
	assert.InDelta(t, 100.0, agg.TrailingAverageVolume(domain.ChainBase, "0xpair", 12), 1e-9)

	clock.advance(5 * time.Minute)
	assert.InDelta(t, 300.0, agg.TrailingAverageVolume(domain.ChainBase, "0xpair", 12), 1e-9)
}

func TestTrailingAverageVolume_OnlyCurrentCandle(t *testing.T) {
	agg, _ := newTestAggregator(100)
	agg.Update(domain.ChainBase, "0xpair", snap(1.0, 500))
	assert.Equal(t, 0.0, agg.TrailingAverageVolume(domain.ChainBase, "0xpair", 12))
}

func TestStats(t *testing.T) {
	agg, clock := newTestAggregator(100)

	for _, vol := range []float64{100, 100, 400} {
		agg.Update(domain.ChainBase, "0xpair", snap(1.0, vol))
		clock.advance(5 * time.Minute)
	}

	stats := agg.Stats(domain.ChainBase, "0xpair", 12)
	assert.InDelta(t, 200.0, stats.TrailingAvgVolume, 1e-9)
	assert.Equal(t, 3, stats.Candles)
}

func TestCandles_ReturnsCopy(t *testing.T) {
	agg, _ := newTestAggregator(100)
	agg.Update(domain.ChainBase, "0xpair", snap(1.0, 10))

	candles := agg.Candles(domain.ChainBase, "0xpair", 0)
	candles[0].Close = 999

	again := agg.Candles(domain.ChainBase, "0xpair", 0)
	assert.Equal(t, 1.0, again[0].Close)
}

func TestWindows_IndependentPerPair(t *testing.T) {
	agg, _ := newTestAggregator(100)
	agg.Update(domain.ChainBase, "pairA", snap(1.0, 10))
	agg.Update(domain.ChainBSC, "pairA", snap(2.0, 20))

	a := agg.Candles(domain.ChainBase, "pairA", 0)
	b := agg.Candles(domain.ChainBSC, "pairA", 0)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, 1.0, a[0].Close)
	assert.Equal(t, 2.0, b[0].Close)
}
