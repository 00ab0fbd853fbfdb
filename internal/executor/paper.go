package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/scalpbot/internal/domain"
	"github.com/alejandrodnm/scalpbot/internal/risk"
	"github.com/alejandrodnm/scalpbot/internal/state"
)

// Slippage band: fills are always adverse to the trader, with the
// magnitude drawn uniformly from [min, max) percent.
const (
	minSlippagePct = 0.1
	maxSlippagePct = 0.5
)

var errSimulatedFailure = errors.New("simulated execution failure")

// Paper simulates execution against the in-memory ledger: adverse
// randomized slippage, injected latency/failures, balance debits and
// credits. Produces the same ExecutionResult shape as the live path.
type Paper struct {
	store  *state.Store
	gate   *risk.Gate
	retry  RetryConfig
	faults FaultPolicy
	clock  domain.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPaper creates a paper executor. The rng drives slippage draws; seed
// it deterministically in tests.
func NewPaper(store *state.Store, gate *risk.Gate, retry RetryConfig, faults FaultPolicy, rng *rand.Rand, clock domain.Clock) *Paper {
	return &Paper{
		store:  store,
		gate:   gate,
		retry:  retry,
		faults: faults,
		clock:  clock,
		rng:    rng,
	}
}

// Buy debits the signal's chain balance and opens a position at the
// slipped entry price. The full size is deducted before slippage; slippage
// only reduces the tokens received.
func (p *Paper) Buy(ctx context.Context, sig domain.Signal, sizing domain.Sizing) domain.ExecutionResult {
	pos, attempts, err := retryDo(ctx, p.retry, func(ctx context.Context) (*domain.Position, error) {
		return p.tryBuy(ctx, sig, sizing)
	})
	if err != nil {
		return domain.ExecutionResult{Attempts: attempts, Reason: err.Error()}
	}
	return domain.ExecutionResult{
		Success:       true,
		Position:      pos,
		ExecutedPrice: pos.EntryPrice,
		Attempts:      attempts,
	}
}

func (p *Paper) tryBuy(ctx context.Context, sig domain.Signal, sizing domain.Sizing) (*domain.Position, error) {
	if err := p.simulateAttempt(ctx); err != nil {
		return nil, err
	}

	if err := p.store.UpdateBalance(ctx, sig.Chain, -sizing.SizeUSD); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return nil, fmt.Errorf("buy %s: %w", sig.TokenSymbol, state.ErrInsufficientBalance)
		}
		return nil, err
	}

	execPrice := sig.EntryPrice * (1 + p.slippage()/100) // buys fill worse than quoted
	pos := domain.Position{
		ID:           uuid.NewString(),
		Chain:        sig.Chain,
		PairAddress:  sig.PairAddress,
		TokenAddress: sig.TokenAddress,
		TokenSymbol:  sig.TokenSymbol,
		EntryPrice:   execPrice,
		TokenAmount:  sizing.SizeUSD / execPrice,
		SizeUSD:      sizing.SizeUSD,
		TakeProfit:   sig.TakeProfit,
		StopLoss:     sig.StopLoss,
		MaxHoldUntil: sig.MaxHoldUntil,
		Signal:       &sig,
		OpenedAt:     p.clock.Now(),
	}
	p.store.AddPosition(ctx, pos)

	slog.Debug("paper buy filled",
		"token", sig.TokenSymbol,
		"quoted", sig.EntryPrice,
		"filled", execPrice,
		"tokens", pos.TokenAmount,
	)
	return &pos, nil
}

// Sell closes the position at the slipped exit price, credits the
// proceeds and forwards the realized PnL to the risk gate.
func (p *Paper) Sell(ctx context.Context, pos domain.Position, exitPrice float64, reason domain.ExitReason) domain.ExecutionResult {
	trade, attempts, err := retryDo(ctx, p.retry, func(ctx context.Context) (*domain.Trade, error) {
		return p.trySell(ctx, pos, exitPrice, reason)
	})
	if err != nil {
		return domain.ExecutionResult{Attempts: attempts, Reason: err.Error()}
	}

	p.gate.RecordClosedTrade(trade.PnLUSD)
	return domain.ExecutionResult{
		Success:       true,
		Trade:         trade,
		ExecutedPrice: trade.ExitPrice,
		Attempts:      attempts,
	}
}

func (p *Paper) trySell(ctx context.Context, pos domain.Position, exitPrice float64, reason domain.ExitReason) (*domain.Trade, error) {
	if err := p.simulateAttempt(ctx); err != nil {
		return nil, err
	}

	execPrice := exitPrice * (1 - p.slippage()/100) // sells fill worse than quoted
	return p.store.ClosePosition(ctx, pos.ID, execPrice, reason)
}

// simulateAttempt applies the fault policy: artificial latency, then an
// independent failure draw.
func (p *Paper) simulateAttempt(ctx context.Context) error {
	if lat := p.faults.Latency(); lat > 0 {
		select {
		case <-time.After(lat):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.faults.Fail() {
		return errSimulatedFailure
	}
	return nil
}

// slippage draws an adverse slippage magnitude in percent.
func (p *Paper) slippage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return minSlippagePct + p.rng.Float64()*(maxSlippagePct-minSlippagePct)
}
