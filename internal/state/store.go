// Package state owns the authoritative mutable trading state: balances,
// open positions, closed-trade history and the watch list. A single mutex
// serializes the scan and monitor loops; every mutation is followed by a
// flush to the persistence collaborator that logs and continues on failure.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandrodnm/scalpbot/internal/domain"
	"github.com/alejandrodnm/scalpbot/internal/ports"
)

// ErrInsufficientBalance is returned when a debit would take a chain's
// balance below zero.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Store is the position/state store. Safe for concurrent use.
type Store struct {
	storage ports.Storage // nil disables persistence
	clock   domain.Clock

	mu        sync.Mutex
	balances  map[domain.Chain]float64
	positions map[string]domain.Position
	history   []domain.Trade // session-local, append-only
	watchlist []domain.WatchItem
}

// New creates an empty Store backed by the given persistence collaborator.
func New(storage ports.Storage, clock domain.Clock) *Store {
	return &Store{
		storage:   storage,
		clock:     clock,
		balances:  make(map[domain.Chain]float64),
		positions: make(map[string]domain.Position),
	}
}

// Restore loads the last persisted snapshot. A missing snapshot is a
// normal first run, not an error.
func (s *Store) Restore(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	snap, err := s.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("state.Restore: %w", err)
	}
	if snap == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for chain, bal := range snap.Balances {
		s.balances[chain] = bal
	}
	for _, pos := range snap.Positions {
		s.positions[pos.ID] = pos
	}
	s.watchlist = append(s.watchlist, snap.Watchlist...)

	slog.Info("state restored",
		"balances", len(snap.Balances),
		"open_positions", len(snap.Positions),
		"watchlist", len(snap.Watchlist),
	)
	return nil
}

// SeedBalance sets a chain's balance only if nothing was restored for it.
func (s *Store) SeedBalance(chain domain.Chain, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[chain]; !ok {
		s.balances[chain] = amount
	}
}

// Balance returns the current balance for a chain.
func (s *Store) Balance(chain domain.Chain) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[chain]
}

// UpdateBalance applies a signed delta to a chain's balance. A debit past
// zero fails with ErrInsufficientBalance and leaves the balance unchanged.
func (s *Store) UpdateBalance(ctx context.Context, chain domain.Chain, delta float64) error {
	s.mu.Lock()
	if s.balances[chain]+delta < 0 {
		s.mu.Unlock()
		return fmt.Errorf("state.UpdateBalance: %s: %w", chain, ErrInsufficientBalance)
	}
	s.balances[chain] += delta
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.flush(ctx, snap)
	return nil
}

// AddPosition registers a newly opened position, assigning an id if the
// executor did not. Returns the id.
func (s *Store) AddPosition(ctx context.Context, pos domain.Position) string {
	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.positions[pos.ID] = pos
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.flush(ctx, snap)
	return pos.ID
}

// ClosePosition is the single atomic open→closed transition: compute PnL,
// append the trade, credit the proceeds and remove the open entry, all
// under one lock. No reader ever observes a position both open and in the
// trade history.
func (s *Store) ClosePosition(ctx context.Context, id string, exitPrice float64, reason domain.ExitReason) (*domain.Trade, error) {
	now := s.clock.Now()

	s.mu.Lock()
	pos, ok := s.positions[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("state.ClosePosition: unknown position %q", id)
	}

	pnlUSD, pnlPct := pos.PnLAt(exitPrice)
	trade := domain.Trade{
		Position:   pos,
		ExitPrice:  exitPrice,
		Reason:     reason,
		PnLUSD:     pnlUSD,
		PnLPercent: pnlPct,
		HoldTime:   now.Sub(pos.OpenedAt),
		ClosedAt:   now,
	}

	s.history = append(s.history, trade)
	s.balances[pos.Chain] += exitPrice * pos.TokenAmount
	delete(s.positions, id)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.AppendTrade(ctx, trade); err != nil {
			slog.Warn("trade history flush failed", "position", id, "err", err)
		}
	}
	s.flush(ctx, snap)
	return &trade, nil
}

// HasOpenPosition reports whether a position is already open for the pair.
func (s *Store) HasOpenPosition(chain domain.Chain, pairAddress string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pos := range s.positions {
		if pos.Chain == chain && pos.PairAddress == pairAddress {
			return true
		}
	}
	return false
}

// OpenPositions returns the open positions, unordered.
func (s *Store) OpenPositions() []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	return out
}

// TradeHistory returns the trades closed during this session, oldest first.
func (s *Store) TradeHistory() []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Trade, len(s.history))
	copy(out, s.history)
	return out
}

// Watchlist returns the scan loop's (chain, pair) entries.
func (s *Store) Watchlist() []domain.WatchItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.WatchItem, len(s.watchlist))
	copy(out, s.watchlist)
	return out
}

// AddToWatchlist appends an item, deduplicating by chain+pair. Reports
// whether the item was added.
func (s *Store) AddToWatchlist(ctx context.Context, item domain.WatchItem) bool {
	s.mu.Lock()
	for _, w := range s.watchlist {
		if w.Chain == item.Chain && w.PairAddress == item.PairAddress {
			s.mu.Unlock()
			return false
		}
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = s.clock.Now()
	}
	s.watchlist = append(s.watchlist, item)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.flush(ctx, snap)
	return true
}

// snapshotLocked builds a persistable copy of the state. Callers hold s.mu.
func (s *Store) snapshotLocked() *domain.StateSnapshot {
	snap := &domain.StateSnapshot{
		Balances:  make(map[domain.Chain]float64, len(s.balances)),
		Positions: make([]domain.Position, 0, len(s.positions)),
		Watchlist: make([]domain.WatchItem, len(s.watchlist)),
		SavedAt:   s.clock.Now(),
	}
	for chain, bal := range s.balances {
		snap.Balances[chain] = bal
	}
	for _, pos := range s.positions {
		snap.Positions = append(snap.Positions, pos)
	}
	copy(snap.Watchlist, s.watchlist)
	return snap
}

// flush persists the snapshot. Failures are logged and swallowed: the
// in-memory state stays correct and the next mutation retries.
func (s *Store) flush(ctx context.Context, snap *domain.StateSnapshot) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(ctx, snap); err != nil {
		slog.Warn("state flush failed", "err", err)
	}
}
