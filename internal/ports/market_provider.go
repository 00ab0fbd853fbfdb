package ports

import (
	"context"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// MarketProvider is the market-data collaborator. Best-effort and
// rate-limited; snapshots may be stale or missing.
type MarketProvider interface {
	// Snapshot fetches the current view of one pair.
	// Returns (nil, nil) when the provider has no data for the pair.
	Snapshot(ctx context.Context, chain domain.Chain, pairAddress string) (*domain.MarketSnapshot, error)

	// DiscoverPairs returns trending pairs on a chain, used only to seed
	// the watch list.
	DiscoverPairs(ctx context.Context, chain domain.Chain) ([]domain.MarketSnapshot, error)
}
