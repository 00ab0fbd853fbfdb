package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// Console implements ports.Notifier writing to stdout.
type Console struct {
	out     io.Writer
	compact bool
}

// NewConsole creates a notifier writing to stdout. In compact mode every
// event is a single line; otherwise opens and closes get a small table.
func NewConsole(compact bool) *Console {
	return &Console{out: os.Stdout, compact: compact}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, compact bool) *Console {
	return &Console{out: w, compact: compact}
}

// SignalDetected prints the signal in one line. Signals are frequent and
// mostly not traded, so they never get the table treatment.
func (c *Console) SignalDetected(_ context.Context, sig domain.Signal) {
	fmt.Fprintf(c.out, "[%s] SIGNAL %s %s/%s vol×%.1f Δ5m %+.1f%% str %d entry $%s\n",
		sig.CreatedAt.Format("15:04:05"), sig.Chain, sig.TokenSymbol,
		shortAddr(sig.PairAddress), sig.VolumeRatio, sig.PriceChange5m,
		sig.Strength, price(sig.EntryPrice))
}

// TradeOpened prints the new position.
func (c *Console) TradeOpened(_ context.Context, pos domain.Position) {
	if c.compact {
		fmt.Fprintf(c.out, "[%s] OPEN %s %s $%.2f @ $%s tp $%s sl $%s\n",
			pos.OpenedAt.Format("15:04:05"), pos.Chain, pos.TokenSymbol,
			pos.SizeUSD, price(pos.EntryPrice), price(pos.TakeProfit), price(pos.StopLoss))
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Event", "Chain", "Token", "Size", "Entry", "TP", "SL", "Deadline")
	table.Append(
		"OPEN",
		string(pos.Chain),
		pos.TokenSymbol,
		fmt.Sprintf("$%.2f", pos.SizeUSD),
		"$"+price(pos.EntryPrice),
		"$"+price(pos.TakeProfit),
		"$"+price(pos.StopLoss),
		pos.MaxHoldUntil.Format("15:04:05"),
	)
	table.Render()
}

// TradeClosed prints the result of an exit.
func (c *Console) TradeClosed(_ context.Context, trade domain.Trade) {
	if c.compact {
		fmt.Fprintf(c.out, "[%s] CLOSE %s %s %s pnl $%+.2f (%+.1f%%) held %s\n",
			trade.ClosedAt.Format("15:04:05"), trade.Chain, trade.TokenSymbol,
			strings.ToUpper(string(trade.Reason)), trade.PnLUSD, trade.PnLPercent,
			holdLabel(trade.HoldTime))
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Event", "Chain", "Token", "Reason", "Entry", "Exit", "PnL", "PnL%", "Held")
	table.Append(
		"CLOSE",
		string(trade.Chain),
		trade.TokenSymbol,
		strings.ToUpper(string(trade.Reason)),
		"$"+price(trade.EntryPrice),
		"$"+price(trade.ExitPrice),
		fmt.Sprintf("$%+.2f", trade.PnLUSD),
		fmt.Sprintf("%+.1f%%", trade.PnLPercent),
		holdLabel(trade.HoldTime),
	)
	table.Render()
}

// PrintSummary prints the session report: one row per closed trade plus
// aggregate win rate and PnL. Called on shutdown and by the -once flag.
func (c *Console) PrintSummary(trades []domain.Trade, balances map[domain.Chain]float64) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "\n  No closed trades this session.")
		c.printBalances(balances)
		return
	}

	fmt.Fprintf(c.out, "\n=== SESSION SUMMARY — %d trades ===\n", len(trades))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Chain", "Token", "Reason", "Entry", "Exit", "PnL", "PnL%", "Held")

	var totalPnL float64
	wins := 0
	for i, t := range trades {
		totalPnL += t.PnLUSD
		if t.Won() {
			wins++
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(t.Chain),
			t.TokenSymbol,
			strings.ToUpper(string(t.Reason)),
			"$"+price(t.EntryPrice),
			"$"+price(t.ExitPrice),
			fmt.Sprintf("$%+.2f", t.PnLUSD),
			fmt.Sprintf("%+.1f%%", t.PnLPercent),
			holdLabel(t.HoldTime),
		)
	}
	table.Render()

	winRate := float64(wins) / float64(len(trades)) * 100
	fmt.Fprintf(c.out, "  Win rate: %d/%d (%.0f%%)  Total PnL: $%+.2f\n",
		wins, len(trades), winRate, totalPnL)
	c.printBalances(balances)
}

func (c *Console) printBalances(balances map[domain.Chain]float64) {
	if len(balances) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString("  Balances:")
	for _, chain := range []domain.Chain{domain.ChainEthereum, domain.ChainBSC, domain.ChainBase, domain.ChainSolana} {
		if usd, ok := balances[chain]; ok {
			fmt.Fprintf(&sb, " %s $%.2f", chain, usd)
		}
	}
	fmt.Fprintln(c.out, sb.String())
}

// --- helpers ---

// price formats token prices, keeping precision for sub-cent memecoins.
func price(v float64) string {
	switch {
	case v >= 1:
		return fmt.Sprintf("%.4f", v)
	case v >= 0.0001:
		return fmt.Sprintf("%.6f", v)
	default:
		return fmt.Sprintf("%.10f", v)
	}
}

func shortAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + ".." + addr[len(addr)-4:]
}

func holdLabel(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
