// Package engine wires the scan and monitor loops: two independent tickers
// that pull snapshots, feed the candle aggregator, run the detector and
// exit evaluator, and drive execution through the risk gate.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/scalpbot/internal/candles"
	"github.com/alejandrodnm/scalpbot/internal/domain"
	"github.com/alejandrodnm/scalpbot/internal/ports"
	"github.com/alejandrodnm/scalpbot/internal/risk"
	"github.com/alejandrodnm/scalpbot/internal/state"
	"github.com/alejandrodnm/scalpbot/internal/strategy"
)

// Mode selects how far the engine goes with a detected signal.
type Mode string

const (
	// ModeReadOnly detects and reports signals without executing.
	ModeReadOnly Mode = "READ_ONLY"
	// ModePaper executes against the simulated ledger.
	ModePaper Mode = "PAPER"
	// ModeLive forwards execution to the per-chain swap capabilities.
	ModeLive Mode = "LIVE"
)

// ParseMode validates an operating-mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReadOnly, ModePaper, ModeLive:
		return Mode(s), nil
	}
	return "", fmt.Errorf("engine.ParseMode: unknown mode %q (want READ_ONLY, PAPER or LIVE)", s)
}

// Config holds the loop cadences and lookback window.
type Config struct {
	Mode            Mode
	ScanInterval    time.Duration
	MonitorInterval time.Duration
	LookbackCandles int // trailing candles behind the volume-ratio average
}

// DefaultConfig returns production cadences.
func DefaultConfig() Config {
	return Config{
		Mode:            ModePaper,
		ScanInterval:    60 * time.Second,
		MonitorInterval: 15 * time.Second,
		LookbackCandles: 12,
	}
}

// Engine orchestrates the signal and position lifecycle.
type Engine struct {
	cfg      Config
	market   ports.MarketProvider
	agg      *candles.Aggregator
	detector *strategy.Detector
	exits    *strategy.ExitEvaluator
	gate     *risk.Gate
	store    *state.Store
	exec     ports.Executor
	notifier ports.Notifier
}

// New creates an Engine with all dependencies injected.
func New(
	cfg Config,
	market ports.MarketProvider,
	agg *candles.Aggregator,
	detector *strategy.Detector,
	exits *strategy.ExitEvaluator,
	gate *risk.Gate,
	store *state.Store,
	exec ports.Executor,
	notifier ports.Notifier,
) *Engine {
	return &Engine{
		cfg:      cfg,
		market:   market,
		agg:      agg,
		detector: detector,
		exits:    exits,
		gate:     gate,
		store:    store,
		exec:     exec,
		notifier: notifier,
	}
}

// SeedWatchlist discovers trending pairs on the given chains and adds up
// to maxPerChain of them to the watch list. Discovery failures are logged
// and skipped; an empty watch list is not fatal.
func (e *Engine) SeedWatchlist(ctx context.Context, chains []domain.Chain, maxPerChain int) {
	for _, chain := range chains {
		snaps, err := e.market.DiscoverPairs(ctx, chain)
		if err != nil {
			slog.Warn("pair discovery failed", "chain", chain, "err", err)
			continue
		}

		added := 0
		for _, snap := range snaps {
			if added >= maxPerChain {
				break
			}
			item := domain.WatchItem{
				Chain:       chain,
				PairAddress: snap.PairAddress,
				TokenSymbol: snap.BaseToken.Symbol,
			}
			if e.store.AddToWatchlist(ctx, item) {
				added++
			}
		}
		slog.Info("watchlist seeded", "chain", chain, "added", added)
	}
}

// Run starts both loops and blocks until the context is cancelled.
// Shutdown is cooperative: in-flight iterations finish, no new ones start.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"mode", e.cfg.Mode,
		"scan_interval", e.cfg.ScanInterval,
		"monitor_interval", e.cfg.MonitorInterval,
		"watchlist", len(e.store.Watchlist()),
	)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		e.loop(ctx, "scan", e.cfg.ScanInterval, e.ScanCycle)
	}()
	go func() {
		defer wg.Done()
		e.loop(ctx, "monitor", e.cfg.MonitorInterval, e.MonitorCycle)
	}()

	wg.Wait()
	slog.Info("engine stopped")
	return nil
}

// RunOnce executes a single scan cycle plus a monitor cycle and returns.
func (e *Engine) RunOnce(ctx context.Context) {
	e.ScanCycle(ctx)
	e.MonitorCycle(ctx)
}

// loop runs fn immediately, then on every tick until cancellation.
func (e *Engine) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("loop stopped", "loop", name)
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// ScanCycle walks the watch list sequentially: snapshot → candles →
// detector → risk gate → execution. Per-item ordering keeps buy decisions
// serialized against the risk gate's daily counters.
func (e *Engine) ScanCycle(ctx context.Context) {
	start := time.Now()
	items := e.store.Watchlist()

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		e.scanItem(ctx, item)
	}

	slog.Debug("scan cycle complete",
		"items", len(items),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

func (e *Engine) scanItem(ctx context.Context, item domain.WatchItem) {
	snap, err := e.market.Snapshot(ctx, item.Chain, item.PairAddress)
	if err != nil {
		slog.Warn("snapshot fetch failed", "chain", item.Chain, "pair", item.PairAddress, "err", err)
		return
	}
	if snap == nil {
		slog.Debug("no market data for pair", "chain", item.Chain, "pair", item.PairAddress)
		return
	}

	e.agg.Update(item.Chain, item.PairAddress, *snap)
	stats := e.agg.Stats(item.Chain, item.PairAddress, e.cfg.LookbackCandles)

	sig := e.detector.Evaluate(ctx, *snap, stats)
	if sig == nil {
		return
	}

	slog.Info("signal detected",
		"chain", sig.Chain,
		"token", sig.TokenSymbol,
		"volume_ratio", fmt.Sprintf("%.1fx", sig.VolumeRatio),
		"change_5m", fmt.Sprintf("%+.1f%%", sig.PriceChange5m),
		"strength", sig.Strength,
	)
	e.notifier.SignalDetected(ctx, *sig)

	if e.cfg.Mode == ModeReadOnly {
		return
	}
	if e.store.HasOpenPosition(sig.Chain, sig.PairAddress) {
		slog.Debug("already holding pair, signal ignored", "pair", sig.PairAddress)
		return
	}

	decision := e.gate.Validate(*sig, e.store.Balance(sig.Chain))
	if !decision.Approved {
		slog.Info("signal rejected by risk gate", "token", sig.TokenSymbol, "reason", decision.Reason)
		return
	}

	res := e.exec.Buy(ctx, *sig, decision.Sizing)
	if !res.Success {
		slog.Warn("buy failed",
			"token", sig.TokenSymbol, "attempts", res.Attempts, "reason", res.Reason)
		return
	}

	slog.Info("position opened",
		"token", sig.TokenSymbol,
		"size_usd", fmt.Sprintf("%.2f", res.Position.SizeUSD),
		"entry", res.Position.EntryPrice,
		"attempts", res.Attempts,
	)
	e.notifier.TradeOpened(ctx, *res.Position)
}

// MonitorCycle walks the open positions sequentially and applies the exit
// evaluator. A failed sell stays open and retries next cycle.
func (e *Engine) MonitorCycle(ctx context.Context) {
	for _, pos := range e.store.OpenPositions() {
		if ctx.Err() != nil {
			return
		}
		e.monitorPosition(ctx, pos)
	}
}

func (e *Engine) monitorPosition(ctx context.Context, pos domain.Position) {
	snap, err := e.market.Snapshot(ctx, pos.Chain, pos.PairAddress)
	if err != nil {
		slog.Warn("snapshot fetch failed", "chain", pos.Chain, "pair", pos.PairAddress, "err", err)
		return
	}
	if snap == nil {
		return
	}

	decision := e.exits.Evaluate(pos, *snap)
	if decision == nil {
		return
	}

	res := e.exec.Sell(ctx, pos, decision.ExitPrice, decision.Reason)
	if !res.Success {
		slog.Warn("sell failed, position stays open",
			"token", pos.TokenSymbol, "reason", res.Reason, "attempts", res.Attempts)
		return
	}

	slog.Info("position closed",
		"token", pos.TokenSymbol,
		"reason", decision.Reason,
		"pnl_usd", fmt.Sprintf("%+.2f", res.Trade.PnLUSD),
		"pnl_pct", fmt.Sprintf("%+.1f%%", res.Trade.PnLPercent),
		"held", res.Trade.HoldTime.Round(time.Second),
	)
	e.notifier.TradeClosed(ctx, *res.Trade)
}
