package yahoo

import (
	"stockcollector/internal/fetcher"
)

// Ticker is the per-symbol handle returned by Client.Ticker.
type Ticker struct {
	client *Client
	symbol string
}

var _ fetcher.Ticker = (*Ticker)(nil)

// Symbol returns the ticker symbol the handle was created for.
func (t *Ticker) Symbol() string { return t.symbol }
