package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alejandrodnm/scalpbot/internal/domain"
	"github.com/alejandrodnm/scalpbot/internal/ports"
	"github.com/alejandrodnm/scalpbot/internal/risk"
	"github.com/alejandrodnm/scalpbot/internal/state"
)

// Live delegates execution to per-chain swap capabilities (quote →
// execute → confirm) and mirrors the fills into the same ledger the paper
// path uses, so everything upstream stays executor-agnostic.
type Live struct {
	swappers    map[domain.Chain]ports.Swapper
	store       *state.Store
	gate        *risk.Gate
	retry       RetryConfig
	slippageTol float64 // percent bound on quote vs minimum acceptable out
	clock       domain.Clock
}

// NewLive creates a live executor over the given per-chain capabilities.
func NewLive(swappers map[domain.Chain]ports.Swapper, store *state.Store, gate *risk.Gate, retry RetryConfig, slippageTolPct float64, clock domain.Clock) *Live {
	return &Live{
		swappers:    swappers,
		store:       store,
		gate:        gate,
		retry:       retry,
		slippageTol: slippageTolPct,
		clock:       clock,
	}
}

// Buy swaps sizing.SizeUSD into the signal's token and opens a position at
// the realized fill.
func (l *Live) Buy(ctx context.Context, sig domain.Signal, sizing domain.Sizing) domain.ExecutionResult {
	sw, ok := l.swappers[sig.Chain]
	if !ok {
		return domain.ExecutionResult{Reason: fmt.Sprintf("no swap capability for chain %s", sig.Chain)}
	}

	req := domain.SwapRequest{
		Chain:        sig.Chain,
		PairAddress:  sig.PairAddress,
		TokenAddress: sig.TokenAddress,
		Side:         domain.SwapSideBuy,
		AmountUSD:    sizing.SizeUSD,
	}

	res, attempts, err := retryDo(ctx, l.retry, func(ctx context.Context) (*domain.SwapResult, error) {
		return l.swap(ctx, sw, req)
	})
	if err != nil {
		return domain.ExecutionResult{Attempts: attempts, Reason: err.Error()}
	}

	if err := l.store.UpdateBalance(ctx, sig.Chain, -sizing.SizeUSD); err != nil {
		// The swap already happened; the ledger mirror is best-effort.
		slog.Warn("live buy: ledger debit failed", "chain", sig.Chain, "err", err)
	}

	pos := domain.Position{
		ID:           uuid.NewString(),
		Chain:        sig.Chain,
		PairAddress:  sig.PairAddress,
		TokenAddress: sig.TokenAddress,
		TokenSymbol:  sig.TokenSymbol,
		EntryPrice:   res.Price,
		TokenAmount:  res.AmountOut,
		SizeUSD:      sizing.SizeUSD,
		TakeProfit:   sig.TakeProfit,
		StopLoss:     sig.StopLoss,
		MaxHoldUntil: sig.MaxHoldUntil,
		Signal:       &sig,
		OpenedAt:     l.clock.Now(),
	}
	l.store.AddPosition(ctx, pos)

	slog.Info("live buy confirmed",
		"token", sig.TokenSymbol, "tx", res.TxHash, "price", res.Price)
	return domain.ExecutionResult{
		Success:       true,
		Position:      &pos,
		ExecutedPrice: res.Price,
		Attempts:      attempts,
	}
}

// Sell swaps the position back and closes it at the realized price.
func (l *Live) Sell(ctx context.Context, pos domain.Position, exitPrice float64, reason domain.ExitReason) domain.ExecutionResult {
	sw, ok := l.swappers[pos.Chain]
	if !ok {
		return domain.ExecutionResult{Reason: fmt.Sprintf("no swap capability for chain %s", pos.Chain)}
	}

	req := domain.SwapRequest{
		Chain:        pos.Chain,
		PairAddress:  pos.PairAddress,
		TokenAddress: pos.TokenAddress,
		Side:         domain.SwapSideSell,
		TokenAmount:  pos.TokenAmount,
	}

	res, attempts, err := retryDo(ctx, l.retry, func(ctx context.Context) (*domain.SwapResult, error) {
		return l.swap(ctx, sw, req)
	})
	if err != nil {
		return domain.ExecutionResult{Attempts: attempts, Reason: err.Error()}
	}

	// ClosePosition credits exit price × amount; the realized price from
	// the swap already reflects on-chain slippage.
	trade, err := l.store.ClosePosition(ctx, pos.ID, res.Price, reason)
	if err != nil {
		return domain.ExecutionResult{Attempts: attempts, Reason: err.Error()}
	}

	l.gate.RecordClosedTrade(trade.PnLUSD)
	slog.Info("live sell confirmed",
		"token", pos.TokenSymbol, "tx", res.TxHash, "price", res.Price, "reason", reason)
	return domain.ExecutionResult{
		Success:       true,
		Trade:         trade,
		ExecutedPrice: res.Price,
		Attempts:      attempts,
	}
}

// swap is one quote→execute round. The minimum acceptable output is the
// quote reduced by the configured slippage tolerance.
func (l *Live) swap(ctx context.Context, sw ports.Swapper, req domain.SwapRequest) (*domain.SwapResult, error) {
	quote, err := sw.QuoteSwap(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}

	minOut := quote.ExpectedOut * (1 - l.slippageTol/100)
	res, err := sw.ExecuteSwap(ctx, req, minOut)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	if !res.Confirmed {
		return nil, fmt.Errorf("swap %s not confirmed", res.TxHash)
	}
	return res, nil
}
