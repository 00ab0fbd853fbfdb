package engine

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/scalpbot/internal/candles"
	"github.com/alejandrodnm/scalpbot/internal/domain"
	"github.com/alejandrodnm/scalpbot/internal/executor"
	"github.com/alejandrodnm/scalpbot/internal/risk"
	"github.com/alejandrodnm/scalpbot/internal/state"
	"github.com/alejandrodnm/scalpbot/internal/strategy"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeMarket serves one scripted snapshot per (chain, pair).
type fakeMarket struct {
	mu    sync.Mutex
	snaps map[string]*domain.MarketSnapshot
}

func (m *fakeMarket) set(snap domain.MarketSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snaps == nil {
		m.snaps = make(map[string]*domain.MarketSnapshot)
	}
	m.snaps[string(snap.Chain)+"|"+snap.PairAddress] = &snap
}

func (m *fakeMarket) Snapshot(_ context.Context, chain domain.Chain, pair string) (*domain.MarketSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snaps[string(chain)+"|"+pair], nil
}

func (m *fakeMarket) DiscoverPairs(context.Context, domain.Chain) ([]domain.MarketSnapshot, error) {
	return nil, nil
}

// recordingNotifier counts lifecycle events.
type recordingNotifier struct {
	mu      sync.Mutex
	signals []domain.Signal
	opened  []domain.Position
	closed  []domain.Trade
}

func (n *recordingNotifier) SignalDetected(_ context.Context, s domain.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, s)
}

func (n *recordingNotifier) TradeOpened(_ context.Context, p domain.Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, p)
}

func (n *recordingNotifier) TradeClosed(_ context.Context, t domain.Trade) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, t)
}

type passSafety struct{}

func (passSafety) Check(context.Context, domain.Chain, string) (domain.SafetyVerdict, error) {
	return domain.SafetyVerdict{}, nil
}

type fixture struct {
	engine   *Engine
	market   *fakeMarket
	store    *state.Store
	clock    *fakeClock
	notifier *recordingNotifier
	agg      *candles.Aggregator
}

func newFixture(t *testing.T, mode Mode) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := state.New(nil, clock)
	store.SeedBalance(domain.ChainBase, 1000)

	gate := risk.NewGate(risk.DefaultConfig(), 1000, clock)
	agg := candles.New(5*time.Minute, 100, clock)
	detector := strategy.NewDetector(strategy.DefaultDetectorConfig(), passSafety{}, clock)
	exits := strategy.NewExitEvaluator(clock)
	market := &fakeMarket{}
	notifier := &recordingNotifier{}

	exec := executor.NewPaper(store, gate,
		executor.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond},
		executor.NoFaults{}, rand.New(rand.NewSource(7)), clock)

	cfg := DefaultConfig()
	cfg.Mode = mode

	return &fixture{
		engine:   New(cfg, market, agg, detector, exits, gate, store, exec, notifier),
		market:   market,
		store:    store,
		clock:    clock,
		notifier: notifier,
		agg:      agg,
	}
}

// spikeSnapshot passes every default detector filter.
func spikeSnapshot(price float64) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Chain:        domain.ChainBase,
		PairAddress:  "0xpair",
		BaseToken:    domain.TokenInfo{Address: "0xtoken", Symbol: "PEPE"},
		PriceUSD:     price,
		PriceChange:  domain.PeriodValues{M5: 8.0},
		Volume:       domain.PeriodValues{M5: 5000, H24: 200_000},
		LiquidityUSD: 80_000,
	}
}

func (f *fixture) watch(t *testing.T) {
	t.Helper()
	added := f.store.AddToWatchlist(context.Background(),
		domain.WatchItem{Chain: domain.ChainBase, PairAddress: "0xpair", TokenSymbol: "PEPE"})
	require.True(t, added)
}

// seedHistory gives the pair a prior candle with baseline volume so the
// next snapshot registers as a spike.
func (f *fixture) seedHistory() {
	base := spikeSnapshot(1.0)
	base.Volume.M5 = 1000
	f.agg.Update(domain.ChainBase, "0xpair", base)
	f.clock.advance(5 * time.Minute)
}

func TestScanCycle_OpensPositionOnSpike(t *testing.T) {
	f := newFixture(t, ModePaper)
	f.watch(t)
	f.seedHistory()
	f.market.set(spikeSnapshot(1.0))

	f.engine.ScanCycle(context.Background())

	require.Len(t, f.notifier.signals, 1)
	require.Len(t, f.notifier.opened, 1)
	assert.Len(t, f.store.OpenPositions(), 1)
	assert.Less(t, f.store.Balance(domain.ChainBase), 1000.0)
}

func TestScanCycle_ReadOnlyNeverExecutes(t *testing.T) {
	f := newFixture(t, ModeReadOnly)
	f.watch(t)
	f.seedHistory()
	f.market.set(spikeSnapshot(1.0))

	f.engine.ScanCycle(context.Background())

	assert.Len(t, f.notifier.signals, 1, "signals are still reported")
	assert.Empty(t, f.notifier.opened)
	assert.Empty(t, f.store.OpenPositions())
	assert.Equal(t, 1000.0, f.store.Balance(domain.ChainBase))
}

func TestScanCycle_SkipsPairAlreadyHeld(t *testing.T) {
	f := newFixture(t, ModePaper)
	f.watch(t)
	f.seedHistory()
	f.market.set(spikeSnapshot(1.0))

	f.engine.ScanCycle(context.Background())
	f.engine.ScanCycle(context.Background())

	assert.Len(t, f.store.OpenPositions(), 1, "second spike on a held pair must not double up")
}

func TestMonitorCycle_TakeProfitExit(t *testing.T) {
	f := newFixture(t, ModePaper)
	f.watch(t)
	f.seedHistory()
	f.market.set(spikeSnapshot(1.0))
	f.engine.ScanCycle(context.Background())
	require.Len(t, f.store.OpenPositions(), 1)

	// Price rips past the 1.5x take profit.
	f.market.set(spikeSnapshot(1.60))
	f.engine.MonitorCycle(context.Background())

	require.Len(t, f.notifier.closed, 1)
	trade := f.notifier.closed[0]
	assert.Equal(t, domain.ExitTakeProfit, trade.Reason)
	assert.Greater(t, trade.PnLUSD, 0.0)
	assert.Empty(t, f.store.OpenPositions())
}

func TestMonitorCycle_TimeLimitExit(t *testing.T) {
	f := newFixture(t, ModePaper)
	f.watch(t)
	f.seedHistory()
	f.market.set(spikeSnapshot(1.0))
	f.engine.ScanCycle(context.Background())
	require.Len(t, f.store.OpenPositions(), 1)

	f.clock.advance(31 * time.Minute)
	f.market.set(spikeSnapshot(1.02))
	f.engine.MonitorCycle(context.Background())

	require.Len(t, f.notifier.closed, 1)
	assert.Equal(t, domain.ExitTimeLimit, f.notifier.closed[0].Reason)
}

func TestMonitorCycle_MissingSnapshotSkips(t *testing.T) {
	f := newFixture(t, ModePaper)
	f.watch(t)
	f.seedHistory()
	f.market.set(spikeSnapshot(1.0))
	f.engine.ScanCycle(context.Background())

	// Market data goes dark for the pair: the position must survive.
	f.market.mu.Lock()
	f.market.snaps = nil
	f.market.mu.Unlock()

	f.engine.MonitorCycle(context.Background())
	assert.Len(t, f.store.OpenPositions(), 1)
}

func TestRun_CooperativeShutdown(t *testing.T) {
	f := newFixture(t, ModePaper)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = f.engine.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"READ_ONLY", "PAPER", "LIVE"} {
		m, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), m)
	}

	_, err := ParseMode("YOLO")
	assert.Error(t, err)
}
