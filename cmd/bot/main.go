package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/scalpbot/config"
	"github.com/alejandrodnm/scalpbot/internal/adapters/dexscreener"
	"github.com/alejandrodnm/scalpbot/internal/adapters/notify"
	"github.com/alejandrodnm/scalpbot/internal/adapters/safety"
	"github.com/alejandrodnm/scalpbot/internal/adapters/storage"
	"github.com/alejandrodnm/scalpbot/internal/candles"
	"github.com/alejandrodnm/scalpbot/internal/domain"
	"github.com/alejandrodnm/scalpbot/internal/engine"
	"github.com/alejandrodnm/scalpbot/internal/executor"
	"github.com/alejandrodnm/scalpbot/internal/ports"
	"github.com/alejandrodnm/scalpbot/internal/risk"
	"github.com/alejandrodnm/scalpbot/internal/state"
	"github.com/alejandrodnm/scalpbot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan + monitor cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print open/close events as tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	mode, err := engine.ParseMode(cfg.Engine.Mode)
	if err != nil {
		slog.Error("invalid mode", "err", err)
		os.Exit(1)
	}
	if mode == engine.ModeLive {
		// Real swap capabilities are wired per deployment; refusing to
		// start beats silently failing every buy.
		slog.Error("LIVE mode requires swap capabilities, none configured")
		os.Exit(1)
	}

	chains, err := parseChains(cfg.Chains.Enabled)
	if err != nil {
		slog.Error("invalid chain list", "err", err)
		os.Exit(1)
	}

	slog.Info("scalpbot starting",
		"config", *configPath,
		"mode", mode,
		"chains", cfg.Chains.Enabled,
		"scan_interval", cfg.ScanInterval(),
		"monitor_interval", cfg.MonitorInterval(),
		"once", *once,
	)

	db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clock := domain.SystemClock{}
	sessionStart := clock.Now()

	store := state.New(db, clock)
	if err := store.Restore(ctx); err != nil {
		slog.Error("failed to restore state", "err", err)
		os.Exit(1)
	}
	var totalBalance float64
	for _, chain := range chains {
		store.SeedBalance(chain, cfg.Chains.InitialBalanceUSD)
		totalBalance += store.Balance(chain)
	}

	market := dexscreener.NewClient(cfg.API.DexScreenerBase)

	var checker ports.SafetyChecker = safety.NewPermissive()
	if cfg.API.SafetyChecks {
		checker = safety.NewHoneypot(cfg.API.HoneypotBase)
	}

	agg := candles.New(cfg.CandleInterval(), candles.DefaultMaxCandles, clock)

	detector := strategy.NewDetector(strategy.DetectorConfig{
		VolumeMultiplier:  cfg.Strategy.VolumeMultiplier,
		MinPriceChangePct: cfg.Strategy.MinPriceChangePct,
		MinLiquidityUSD:   cfg.Strategy.MinLiquidityUSD,
		MinVolume24hUSD:   cfg.Strategy.MinVolume24hUSD,
		TakeProfitMult:    cfg.Strategy.TakeProfitMult,
		StopLossPct:       cfg.Strategy.StopLossPct,
		MaxHold:           cfg.MaxHold(),
	}, checker, clock)
	exits := strategy.NewExitEvaluator(clock)

	gate := risk.NewGate(risk.Config{
		MaxTradesPerDay: cfg.Risk.MaxTradesPerDay,
		RiskPerTradePct: cfg.Risk.RiskPerTradePct,
		MaxDrawdownPct:  cfg.Risk.MaxDrawdownPct,
	}, totalBalance, clock)

	retryCfg := executor.RetryConfig{
		MaxAttempts: cfg.Execution.MaxRetries,
		BaseDelay:   cfg.RetryBaseDelay(),
	}
	faults := executor.NewRandomFaults(cfg.Execution.PaperFailureProb, time.Now().UnixNano())
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	exec := executor.NewPaper(store, gate, retryCfg, faults, rng, clock)

	notifier := notify.NewConsole(!*table)

	engineCfg := engine.Config{
		Mode:            mode,
		ScanInterval:    cfg.ScanInterval(),
		MonitorInterval: cfg.MonitorInterval(),
		LookbackCandles: cfg.Engine.LookbackCandles,
	}
	eng := engine.New(engineCfg, market, agg, detector, exits, gate, store, exec, notifier)

	eng.SeedWatchlist(ctx, chains, cfg.Engine.DiscoverPairsPerChain)

	if *once {
		eng.RunOnce(ctx)
	} else if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	// Query the journal rather than the in-memory history so the summary
	// reflects exactly what was durably recorded.
	trades, err := db.RecentTrades(context.Background(), sessionStart)
	if err != nil {
		slog.Warn("trade journal query failed, using in-memory history", "err", err)
		trades = store.TradeHistory()
	}
	notifier.PrintSummary(trades, balances(store, chains))
	slog.Info("scalpbot stopped cleanly")
}

func parseChains(names []string) ([]domain.Chain, error) {
	valid := map[domain.Chain]bool{
		domain.ChainEthereum: true,
		domain.ChainBSC:      true,
		domain.ChainBase:     true,
		domain.ChainSolana:   true,
	}

	var chains []domain.Chain
	for _, name := range names {
		chain := domain.Chain(name)
		if !valid[chain] {
			return nil, fmt.Errorf("unknown chain %q (want ethereum, bsc, base or solana)", name)
		}
		chains = append(chains, chain)
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains enabled")
	}
	return chains, nil
}

func balances(store *state.Store, chains []domain.Chain) map[domain.Chain]float64 {
	out := make(map[domain.Chain]float64, len(chains))
	for _, chain := range chains {
		out[chain] = store.Balance(chain)
	}
	return out
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
