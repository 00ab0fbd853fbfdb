package candles

import (
	"sync"
	"time"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// DefaultMaxCandles bounds each rolling window.
const DefaultMaxCandles = 100

// Aggregator converts point-in-time snapshots into fixed-width OHLCV
// candles, one bounded rolling window per (chain, pair). It owns the
// candles exclusively; readers get copies.
//
// Missing data degrades to zero values instead of errors: a pair with no
// candles yet simply produces empty stats and the detector skips it.
type Aggregator struct {
	interval time.Duration
	max      int
	clock    domain.Clock

	mu      sync.RWMutex
	windows map[string][]domain.Candle
}

// New creates an Aggregator with the given candle width and window bound.
func New(interval time.Duration, maxCandles int, clock domain.Clock) *Aggregator {
	if maxCandles <= 0 {
		maxCandles = DefaultMaxCandles
	}
	return &Aggregator{
		interval: interval,
		max:      maxCandles,
		clock:    clock,
		windows:  make(map[string][]domain.Candle),
	}
}

func key(chain domain.Chain, pair string) string {
	return string(chain) + "|" + pair
}

// Update folds a snapshot into the pair's window. While the aligned period
// is current the newest candle is mutated in place; on rollover a new
// candle is appended and the oldest evicted past the bound.
func (a *Aggregator) Update(chain domain.Chain, pair string, snap domain.MarketSnapshot) {
	price := snap.PriceUSD
	period := a.clock.Now().Truncate(a.interval)

	a.mu.Lock()
	defer a.mu.Unlock()

	k := key(chain, pair)
	w := a.windows[k]

	if n := len(w); n > 0 && w[n-1].PeriodStart.Equal(period) {
		c := &w[n-1]
		if price > c.High {
			c.High = price
		}
		if price < c.Low {
			c.Low = price
		}
		c.Close = price
		c.Volume = snap.Volume.M5
		return
	}

	w = append(w, domain.Candle{
		PeriodStart: period,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Volume:      snap.Volume.M5,
	})
	if len(w) > a.max {
		w = w[len(w)-a.max:]
	}
	a.windows[k] = w
}

// Candles returns up to n candles for the pair, oldest first.
func (a *Aggregator) Candles(chain domain.Chain, pair string, n int) []domain.Candle {
	a.mu.RLock()
	defer a.mu.RUnlock()

	w := a.windows[key(chain, pair)]
	if n > 0 && len(w) > n {
		w = w[len(w)-n:]
	}
	out := make([]domain.Candle, len(w))
	copy(out, w)
	return out
}

// AverageVolume returns the arithmetic mean volume of the last n candles,
// or 0 when the pair has none.
func (a *Aggregator) AverageVolume(chain domain.Chain, pair string, n int) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	w := a.tail(chain, pair, n)
	if len(w) == 0 {
		return 0
	}
	var sum float64
	for _, c := range w {
		sum += c.Volume
	}
	return sum / float64(len(w))
}

// PriceChange returns the percent change between the oldest retained close
// of the requested window and the newest, or 0 with fewer than two candles.
func (a *Aggregator) PriceChange(chain domain.Chain, pair string, n int) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	w := a.tail(chain, pair, n)
	if len(w) < 2 || w[0].Close == 0 {
		return 0
	}
	first, last := w[0].Close, w[len(w)-1].Close
	return (last - first) / first * 100
}

// TrailingAverageVolume averages the last n completed candles. The candle
// for the current period is skipped: it carries the same 5m volume the
// spike ratio compares against, so including it would dilute the ratio.
func (a *Aggregator) TrailingAverageVolume(chain domain.Chain, pair string, n int) float64 {
	current := a.clock.Now().Truncate(a.interval)

	a.mu.RLock()
	defer a.mu.RUnlock()

	w := a.windows[key(chain, pair)]
	if m := len(w); m > 0 && w[m-1].PeriodStart.Equal(current) {
		w = w[:m-1]
	}
	if n > 0 && len(w) > n {
		w = w[len(w)-n:]
	}
	if len(w) == 0 {
		return 0
	}
	var sum float64
	for _, c := range w {
		sum += c.Volume
	}
	return sum / float64(len(w))
}

// Stats bundles the detector's inputs for one pair over the lookback window.
func (a *Aggregator) Stats(chain domain.Chain, pair string, lookback int) domain.CandleStats {
	return domain.CandleStats{
		TrailingAvgVolume: a.TrailingAverageVolume(chain, pair, lookback),
		PriceChangePct:    a.PriceChange(chain, pair, lookback),
		Candles:           a.count(chain, pair),
	}
}

// tail returns the last n candles without copying. Callers hold a.mu.
func (a *Aggregator) tail(chain domain.Chain, pair string, n int) []domain.Candle {
	w := a.windows[key(chain, pair)]
	if n > 0 && len(w) > n {
		return w[len(w)-n:]
	}
	return w
}

func (a *Aggregator) count(chain domain.Chain, pair string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.windows[key(chain, pair)])
}
