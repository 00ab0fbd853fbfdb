package dexscreener

import (
	"encoding/json"
	"io"
)

// pairsResponse is the shared envelope of the /latest/dex endpoints.
type pairsResponse struct {
	Pairs []pairJSON `json:"pairs"`
}

// pairJSON mirrors DexScreener's pair object. Prices come back as strings,
// the window metrics as keyed objects.
type pairJSON struct {
	ChainID     string    `json:"chainId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   tokenJSON `json:"baseToken"`
	QuoteToken  tokenJSON `json:"quoteToken"`

	PriceNative string `json:"priceNative"`
	PriceUSD    string `json:"priceUsd"`

	Txns        windowedTxns   `json:"txns"`
	Volume      windowedFloats `json:"volume"`
	PriceChange windowedFloats `json:"priceChange"`

	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`

	PairCreatedAt int64 `json:"pairCreatedAt"` // ms epoch
}

type tokenJSON struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type windowedFloats struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type windowedTxns struct {
	H24 struct {
		Buys  int `json:"buys"`
		Sells int `json:"sells"`
	} `json:"h24"`
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}
