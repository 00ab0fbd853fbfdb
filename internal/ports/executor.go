package ports

import (
	"context"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// Executor turns approved signals into positions and open positions into
// closed trades. Two implementations share this contract: the paper
// executor (simulated fills against the in-memory ledger) and the live
// executor (delegates to a per-chain Swapper). Both wrap their attempts in
// the same retry driver and report through domain.ExecutionResult.
type Executor interface {
	// Buy opens a position for the signal with the given sizing.
	Buy(ctx context.Context, signal domain.Signal, sizing domain.Sizing) domain.ExecutionResult

	// Sell closes the position at (or near) exitPrice for the given reason.
	Sell(ctx context.Context, position domain.Position, exitPrice float64, reason domain.ExitReason) domain.ExecutionResult
}

// Swapper is the opaque per-chain swap capability used in live mode.
// Quote → build → sign → broadcast → confirm happens behind ExecuteSwap;
// chain-specific nuances (EVM router calls, Solana aggregator routes) are
// interchangeable implementations.
type Swapper interface {
	// QuoteSwap prices the request without executing it.
	QuoteSwap(ctx context.Context, req domain.SwapRequest) (*domain.SwapQuote, error)

	// ExecuteSwap performs the swap, failing if the realized output would
	// fall below minOut.
	ExecuteSwap(ctx context.Context, req domain.SwapRequest, minOut float64) (*domain.SwapResult, error)
}

// SafetyChecker is the external contract-safety collaborator.
type SafetyChecker interface {
	// Check returns the safety verdict for a token. Implementations should
	// fail open only by explicit choice (see safety.Permissive).
	Check(ctx context.Context, chain domain.Chain, tokenAddress string) (domain.SafetyVerdict, error)
}
