package domain

// SwapSide says which direction a swap moves.
type SwapSide string

const (
	SwapSideBuy  SwapSide = "buy"
	SwapSideSell SwapSide = "sell"
)

// SwapRequest describes a swap for the per-chain execution capability.
type SwapRequest struct {
	Chain        Chain
	PairAddress  string
	TokenAddress string
	Side         SwapSide

	// AmountUSD is set on buys, TokenAmount on sells.
	AmountUSD   float64
	TokenAmount float64
}

// SwapQuote is the capability's answer to a quote request.
type SwapQuote struct {
	Price       float64 // quoted execution price in USD per token
	ExpectedOut float64 // tokens (buy) or USD (sell)
}

// SwapResult is the outcome of a broadcast swap.
type SwapResult struct {
	TxHash    string
	Confirmed bool
	AmountOut float64 // tokens (buy) or USD (sell) actually received
	Price     float64 // realized execution price
}

// SafetyVerdict is the external contract-safety check's answer for a token.
type SafetyVerdict struct {
	Honeypot bool
	HighRisk bool
}

// Unsafe reports whether the token must be rejected outright.
func (v SafetyVerdict) Unsafe() bool {
	return v.Honeypot || v.HighRisk
}

// ExecutionResult is the uniform outcome of a buy or sell attempt, shared
// by the paper and live paths. Callers must check Success; execution
// failures are surfaced here, never as panics.
type ExecutionResult struct {
	Success       bool
	Position      *Position // set on a successful buy
	Trade         *Trade    // set on a successful sell
	ExecutedPrice float64   // realized price after slippage
	Attempts      int       // retry-driver attempts consumed
	Reason        string    // human-readable failure reason when !Success
}
