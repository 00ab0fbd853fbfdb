package strategy

import (
	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// ExitEvaluator decides whether an open position should close. A position
// is a two-state machine (open → closed) with three alternative closing
// transitions, checked in priority order: take profit, stop loss, time
// limit. First match wins; no re-entry.
type ExitEvaluator struct {
	clock domain.Clock
}

// NewExitEvaluator creates an ExitEvaluator.
func NewExitEvaluator(clock domain.Clock) *ExitEvaluator {
	return &ExitEvaluator{clock: clock}
}

// Evaluate returns the exit decision for the position given a fresh
// snapshot, or nil if the position should stay open.
func (e *ExitEvaluator) Evaluate(pos domain.Position, snap domain.MarketSnapshot) *domain.ExitDecision {
	price := snap.PriceUSD

	switch {
	case price >= pos.TakeProfit:
		return decision(pos, domain.ExitTakeProfit, price)
	case price <= pos.StopLoss:
		return decision(pos, domain.ExitStopLoss, price)
	case !e.clock.Now().Before(pos.MaxHoldUntil):
		return decision(pos, domain.ExitTimeLimit, price)
	}
	return nil
}

func decision(pos domain.Position, reason domain.ExitReason, price float64) *domain.ExitDecision {
	_, pct := pos.PnLAt(price)
	return &domain.ExitDecision{
		Reason:        reason,
		ExitPrice:     price,
		ProfitPercent: pct,
	}
}
