package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

const (
	defaultBaseURL = "https://api.honeypot.is"

	// honeypot.is accepts ~10 req/s unauthenticated; stay well under.
	requestsPerSec = 2
)

// evmChainIDs maps our chain names onto honeypot.is numeric chain ids.
// Chains the service does not cover are absent.
var evmChainIDs = map[domain.Chain]string{
	domain.ChainEthereum: "1",
	domain.ChainBSC:      "56",
	domain.ChainBase:     "8453",
}

// Honeypot checks EVM tokens against the honeypot.is simulation API.
// Tokens on chains the service cannot simulate pass unchecked.
type Honeypot struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

func NewHoneypot(baseURL string) *Honeypot {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Honeypot{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(requestsPerSec, 2),
	}
}

type honeypotResponse struct {
	HoneypotResult struct {
		IsHoneypot bool `json:"isHoneypot"`
	} `json:"honeypotResult"`
	SimulationResult struct {
		BuyTax  float64 `json:"buyTax"`
		SellTax float64 `json:"sellTax"`
	} `json:"simulationResult"`
	Flags []string `json:"flags"`
}

// maxAcceptableTaxPct marks a token high risk when either swap tax
// exceeds it, even if the sell simulation succeeds.
const maxAcceptableTaxPct = 10.0

func (h *Honeypot) Check(ctx context.Context, chain domain.Chain, tokenAddress string) (domain.SafetyVerdict, error) {
	chainID, ok := evmChainIDs[chain]
	if !ok {
		return domain.SafetyVerdict{}, nil
	}

	if err := h.limiter.Wait(ctx); err != nil {
		return domain.SafetyVerdict{}, fmt.Errorf("safety.Check: rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("address", tokenAddress)
	q.Set("chainID", chainID)
	u := fmt.Sprintf("%s/v2/IsHoneypot?%s", h.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.SafetyVerdict{}, fmt.Errorf("safety.Check: %w", err)
	}

	resp, err := h.http.Do(req)
	if err != nil {
		return domain.SafetyVerdict{}, fmt.Errorf("safety.Check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SafetyVerdict{}, fmt.Errorf("safety.Check: status %d", resp.StatusCode)
	}

	var body honeypotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.SafetyVerdict{}, fmt.Errorf("safety.Check: decode: %w", err)
	}

	verdict := domain.SafetyVerdict{
		Honeypot: body.HoneypotResult.IsHoneypot,
	}
	if body.SimulationResult.BuyTax > maxAcceptableTaxPct || body.SimulationResult.SellTax > maxAcceptableTaxPct {
		verdict.HighRisk = true
	}
	if len(body.Flags) > 0 {
		verdict.HighRisk = true
	}
	return verdict, nil
}
