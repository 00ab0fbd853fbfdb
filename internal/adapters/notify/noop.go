package notify

import (
	"context"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// Noop discards all events. Useful in tests and headless deployments.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) SignalDetected(context.Context, domain.Signal) {}
func (Noop) TradeOpened(context.Context, domain.Position)  {}
func (Noop) TradeClosed(context.Context, domain.Trade)     {}
