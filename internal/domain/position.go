package domain

import "time"

// ExitReason says why a position was closed.
type ExitReason string

const (
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTimeLimit  ExitReason = "time_limit"
	ExitManual     ExitReason = "manual"
)

// Position is an open holding produced by an executed buy.
// Created by the execution layer, closed only through the store's
// ClosePosition transition.
type Position struct {
	ID           string
	Chain        Chain
	PairAddress  string
	TokenAddress string
	TokenSymbol  string

	EntryPrice  float64
	TokenAmount float64
	SizeUSD     float64

	TakeProfit   float64
	StopLoss     float64
	MaxHoldUntil time.Time

	Signal   *Signal // originating signal, retained for audit
	OpenedAt time.Time
}

// PnLAt returns the unrealized PnL in USD and percent at the given price.
func (p Position) PnLAt(price float64) (usd, pct float64) {
	usd = (price - p.EntryPrice) * p.TokenAmount
	if p.EntryPrice > 0 {
		pct = (price - p.EntryPrice) / p.EntryPrice * 100
	}
	return usd, pct
}

// Trade is the append-only record of a closed position.
type Trade struct {
	Position

	ExitPrice  float64
	Reason     ExitReason
	PnLUSD     float64
	PnLPercent float64
	HoldTime   time.Duration
	ClosedAt   time.Time
}

// Won reports whether the trade closed at a profit.
func (t Trade) Won() bool {
	return t.PnLUSD > 0
}

// ExitDecision is the exit evaluator's verdict for an open position.
type ExitDecision struct {
	Reason        ExitReason
	ExitPrice     float64
	ProfitPercent float64
}

// Sizing is the risk gate's position-size answer for an approved signal.
type Sizing struct {
	SizeUSD     float64 // capital to deploy
	TokenAmount float64 // SizeUSD / entry price
	RiskUSD     float64 // capital at risk if the stop is hit
}
