package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// Storage is the persistence collaborator: an opaque snapshot store, not a
// transactional database. The core flushes after every mutation and carries
// on if a flush fails.
type Storage interface {
	// Load restores the last saved state. Returns (nil, nil) on first run.
	Load(ctx context.Context) (*domain.StateSnapshot, error)

	// Save persists the full mutable state.
	Save(ctx context.Context, state *domain.StateSnapshot) error

	// AppendTrade records a closed trade in the append-only history.
	AppendTrade(ctx context.Context, trade domain.Trade) error

	// RecentTrades returns closed trades from the given time onward,
	// newest first.
	RecentTrades(ctx context.Context, since time.Time) ([]domain.Trade, error)

	// Close releases the underlying store cleanly.
	Close() error
}
