package ports

import (
	"context"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// Notifier receives fire-and-forget lifecycle events. The core never waits
// on acknowledgment; a nil-op implementation is valid.
type Notifier interface {
	// SignalDetected reports a new entry signal, whether or not it was
	// eventually traded.
	SignalDetected(ctx context.Context, signal domain.Signal)

	// TradeOpened reports a successful buy.
	TradeOpened(ctx context.Context, position domain.Position)

	// TradeClosed reports a completed exit.
	TradeClosed(ctx context.Context, trade domain.Trade)
}
