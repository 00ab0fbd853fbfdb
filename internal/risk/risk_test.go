package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

var day1 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestGate(balance float64) (*Gate, *fakeClock) {
	clock := &fakeClock{now: day1}
	return NewGate(DefaultConfig(), balance, clock), clock
}

func strongSignal() domain.Signal {
	return domain.Signal{
		EntryPrice:   1.0,
		TakeProfit:   1.5,
		StopLoss:     0.93,
		Strength:     75,
		LiquidityUSD: 80_000,
	}
}

func TestCanTrade_FreshDay(t *testing.T) {
	g, _ := newTestGate(1000)
	assert.True(t, g.CanTrade().Allowed)
}

func TestCanTrade_DailyTradeLimit(t *testing.T) {
	g, _ := newTestGate(1000)

	for i := 0; i < DefaultConfig().MaxTradesPerDay; i++ {
		g.RecordClosedTrade(1)
	}

	v := g.CanTrade()
	assert.False(t, v.Allowed)
	assert.Contains(t, v.Reason, "trade limit")
}

func TestCanTrade_DrawdownLimit(t *testing.T) {
	g, _ := newTestGate(1000)

	g.RecordClosedTrade(-100) // -10% of the day's starting balance

	v := g.CanTrade()
	assert.False(t, v.Allowed)
	assert.Contains(t, v.Reason, "drawdown")
}

func TestCanTrade_SmallLossStillAllowed(t *testing.T) {
	g, _ := newTestGate(1000)
	g.RecordClosedTrade(-50) // -5%, under the 10% limit
	assert.True(t, g.CanTrade().Allowed)
}

func TestRollover_ResetsCountersAndRollsPnL(t *testing.T) {
	g, clock := newTestGate(1000)

	for i := 0; i < DefaultConfig().MaxTradesPerDay; i++ {
		g.RecordClosedTrade(5)
	}
	require.False(t, g.CanTrade().Allowed)

	clock.now = day1.Add(24 * time.Hour)

	assert.True(t, g.CanTrade().Allowed)
	st := g.State()
	assert.Equal(t, 0, st.Trades)
	assert.Equal(t, 0.0, st.PnLUSD)
	assert.InDelta(t, 1050.0, st.StartBalance, 1e-9) // previous start + previous PnL
}

func TestSizePosition_RiskBased(t *testing.T) {
	g, _ := newTestGate(1000)

	// 2% risk on $1000 = $20; 7% stop distance → $285.71 position.
	s := g.SizePosition(1000, 1.0, 0.93)
	assert.InDelta(t, 20.0, s.RiskUSD, 1e-9)
	assert.InDelta(t, 285.71, s.SizeUSD, 0.01)
	assert.InDelta(t, 285.71, s.TokenAmount, 0.01)
}

func TestSizePosition_CappedAt25Percent(t *testing.T) {
	g, _ := newTestGate(1000)

	// 1% stop distance would imply a $2000 position; the cap wins.
	s := g.SizePosition(1000, 1.0, 0.99)
	assert.InDelta(t, 250.0, s.SizeUSD, 1e-9)
}

func TestSizePosition_DegenerateInputs(t *testing.T) {
	g, _ := newTestGate(1000)

	assert.Zero(t, g.SizePosition(0, 1.0, 0.93).SizeUSD)
	assert.Zero(t, g.SizePosition(1000, 0, 0.93).SizeUSD)
	assert.Zero(t, g.SizePosition(1000, 1.0, 1.0).SizeUSD) // stop at entry
}

func TestValidate_Approves(t *testing.T) {
	g, _ := newTestGate(1000)

	d := g.Validate(strongSignal(), 1000)
	require.True(t, d.Approved)
	assert.Greater(t, d.Sizing.SizeUSD, 0.0)
	assert.LessOrEqual(t, d.Sizing.SizeUSD, 250.0)
}

func TestValidate_WeakSignal(t *testing.T) {
	g, _ := newTestGate(1000)

	sig := strongSignal()
	sig.Strength = 15

	d := g.Validate(sig, 1000)
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reason, "weak")
}

func TestValidate_PositionTooSmall(t *testing.T) {
	g, _ := newTestGate(1000)

	d := g.Validate(strongSignal(), 20) // $20 balance → sub-$10 position
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reason, "small")
}

func TestValidate_LiquidityShare(t *testing.T) {
	g, _ := newTestGate(1000)

	sig := strongSignal()
	sig.LiquidityUSD = 2_000 // 5% share = $100, sizing wants ~$285

	d := g.Validate(sig, 1000)
	assert.False(t, d.Approved)
	assert.Contains(t, d.Reason, "liquidity")
}

func TestValidate_RespectsDailyGate(t *testing.T) {
	g, _ := newTestGate(1000)
	g.RecordClosedTrade(-100)

	d := g.Validate(strongSignal(), 1000)
	assert.False(t, d.Approved)
}
