// Package risk gates new trades against daily limits and sizes positions
// from stop-loss distance. One Gate per account; all counters live on the
// Gate itself so independent accounts (or tests) get independent risk
// contexts.
package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// Hard floors and caps that are not worth tuning per deployment.
const (
	minStrength       = 20   // signals weaker than this are noise
	minPositionUSD    = 10.0 // below this, fees eat the trade
	maxBalanceRatio   = 0.25 // single position ≤ 25% of balance
	maxLiquidityShare = 0.05 // position ≤ 5% of pool liquidity
)

// Config holds the per-day limits and sizing inputs.
type Config struct {
	MaxTradesPerDay int
	RiskPerTradePct float64 // fraction of balance at risk per trade
	MaxDrawdownPct  float64 // daily loss limit vs day-start balance
}

// DefaultConfig returns conservative production limits.
func DefaultConfig() Config {
	return Config{
		MaxTradesPerDay: 10,
		RiskPerTradePct: 2.0,
		MaxDrawdownPct:  10.0,
	}
}

// DayState is the per-calendar-day counter set. The day boundary is UTC
// midnight; local-time resets would make the limits depend on where the
// process happens to run.
type DayState struct {
	Day          time.Time // UTC midnight of the current day
	Trades       int
	PnLUSD       float64
	StartBalance float64
}

// Verdict is the gate's answer to "may I trade now?".
type Verdict struct {
	Allowed bool
	Reason  string // set when not allowed
}

// Decision is the full validation outcome for a signal.
type Decision struct {
	Approved bool
	Reason   string
	Sizing   domain.Sizing
}

// Gate enforces the daily limits. Safe for concurrent use; the single
// mutex also serializes rollovers against trade recording.
type Gate struct {
	cfg   Config
	clock domain.Clock

	mu  sync.Mutex
	day DayState
}

// NewGate creates a Gate starting a fresh day at the given balance.
func NewGate(cfg Config, startBalance float64, clock domain.Clock) *Gate {
	g := &Gate{cfg: cfg, clock: clock}
	g.day = DayState{
		Day:          utcDay(clock.Now()),
		StartBalance: startBalance,
	}
	return g
}

// CanTrade reports whether a new trade may be opened today.
func (g *Gate) CanTrade() Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canTradeLocked()
}

func (g *Gate) canTradeLocked() Verdict {
	g.rolloverLocked()

	if g.day.Trades >= g.cfg.MaxTradesPerDay {
		return Verdict{Reason: fmt.Sprintf("daily trade limit reached (%d/%d)",
			g.day.Trades, g.cfg.MaxTradesPerDay)}
	}

	if g.day.StartBalance > 0 {
		drawdown := g.day.PnLUSD / g.day.StartBalance * 100
		if drawdown <= -g.cfg.MaxDrawdownPct {
			return Verdict{Reason: fmt.Sprintf("daily drawdown limit hit (%.1f%% ≤ -%.1f%%)",
				drawdown, g.cfg.MaxDrawdownPct)}
		}
	}

	return Verdict{Allowed: true}
}

// SizePosition computes the position size from balance, entry price and
// stop distance: risk a fixed fraction of the balance, then scale so that
// hitting the stop loses exactly that amount. Capped at 25% of balance.
func (g *Gate) SizePosition(balance, entryPrice, stopLoss float64) domain.Sizing {
	if balance <= 0 || entryPrice <= 0 {
		return domain.Sizing{}
	}

	riskUSD := balance * g.cfg.RiskPerTradePct / 100
	stopDistPct := math.Abs(entryPrice-stopLoss) / entryPrice * 100
	if stopDistPct <= 0 {
		return domain.Sizing{}
	}

	sizeUSD := riskUSD / (stopDistPct / 100)
	if cap := balance * maxBalanceRatio; sizeUSD > cap {
		sizeUSD = cap
	}

	return domain.Sizing{
		SizeUSD:     sizeUSD,
		TokenAmount: sizeUSD / entryPrice,
		RiskUSD:     riskUSD,
	}
}

// Validate runs the full approval pipeline for a signal: daily limits,
// strength floor, then sizing sanity against balance and pool liquidity.
// Side-effect free; counters move only through RecordClosedTrade.
func (g *Gate) Validate(sig domain.Signal, balance float64) Decision {
	g.mu.Lock()
	verdict := g.canTradeLocked()
	g.mu.Unlock()

	if !verdict.Allowed {
		return Decision{Reason: verdict.Reason}
	}

	if sig.Strength < minStrength {
		return Decision{Reason: fmt.Sprintf("signal too weak (%d < %d)", sig.Strength, minStrength)}
	}

	sizing := g.SizePosition(balance, sig.EntryPrice, sig.StopLoss)
	if sizing.SizeUSD < minPositionUSD {
		return Decision{Reason: fmt.Sprintf("position too small ($%.2f < $%.2f)",
			sizing.SizeUSD, minPositionUSD)}
	}
	if sig.LiquidityUSD > 0 && sizing.SizeUSD > sig.LiquidityUSD*maxLiquidityShare {
		return Decision{Reason: fmt.Sprintf("position exceeds %.0f%% of pool liquidity",
			maxLiquidityShare*100)}
	}

	return Decision{Approved: true, Sizing: sizing}
}

// RecordClosedTrade folds a realized PnL into the day's counters. The sole
// mutator of daily state.
func (g *Gate) RecordClosedTrade(pnlUSD float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rolloverLocked()
	g.day.Trades++
	g.day.PnLUSD += pnlUSD
}

// State returns a copy of the current day's counters.
func (g *Gate) State() DayState {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rolloverLocked()
	return g.day
}

// rolloverLocked resets the counters when the UTC day has changed, rolling
// the previous day's PnL into the new starting balance.
func (g *Gate) rolloverLocked() {
	today := utcDay(g.clock.Now())
	if g.day.Day.Equal(today) {
		return
	}
	g.day = DayState{
		Day:          today,
		StartBalance: g.day.StartBalance + g.day.PnLUSD,
	}
}

func utcDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
