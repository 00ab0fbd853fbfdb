package dexscreener

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

const (
	defaultBaseURL = "https://api.dexscreener.com"

	// DexScreener allows 300 req/min on the pairs endpoints; run at 60%
	// of that so bursts from both loops never trip the limit.
	requestsPerSec = 3

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the DexScreener HTTP client. One limiter is shared by every
// caller — the scan and monitor loops draw from the same budget.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a Client. An empty baseURL uses production.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(requestsPerSec, 5),
	}
}

// Snapshot fetches the current view of one pair. Returns (nil, nil) when
// DexScreener has no data for the pair.
func (c *Client) Snapshot(ctx context.Context, chain domain.Chain, pairAddress string) (*domain.MarketSnapshot, error) {
	var resp pairsResponse
	u := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.baseURL, chain, pairAddress)
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener.Snapshot: %w", err)
	}
	if len(resp.Pairs) == 0 {
		return nil, nil
	}

	snap := mapPair(resp.Pairs[0], time.Now())
	return &snap, nil
}

// DiscoverPairs returns pairs trending on a chain, used to seed the watch
// list. Results from other chains are dropped.
func (c *Client) DiscoverPairs(ctx context.Context, chain domain.Chain) ([]domain.MarketSnapshot, error) {
	var resp pairsResponse
	u := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(string(chain)))
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener.DiscoverPairs: %w", err)
	}

	now := time.Now()
	var snaps []domain.MarketSnapshot
	for _, p := range resp.Pairs {
		if domain.Chain(p.ChainID) != chain {
			continue
		}
		snaps = append(snaps, mapPair(p, now))
	}
	return snaps, nil
}

// get performs a GET with rate limiting and exponential-backoff retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("dexscreener backoff", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = decodeJSON(resp.Body, out)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
