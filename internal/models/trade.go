package models

import (
	"regexp"
	"time"
)

// Trade status values derived from the sold date.
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// tradeIDRe matches well-formed trade identifiers. Bulk operations silently
// skip anything that does not parse.
var tradeIDRe = regexp.MustCompile(`^td_[0-9a-f]{8}$`)

// ValidTradeID reports whether id is a well-formed trade identifier.
func ValidTradeID(id string) bool {
	return tradeIDRe.MatchString(id)
}

// Trade represents a recorded buy (and optional sell) of an instrument.
// SoldAt and SellPrice are set or unset together; the validation layer
// enforces the pairing before a trade ever reaches storage.
type Trade struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Name         string     `json:"name,omitempty"`
	BuyPrice     float64    `json:"buy_price"`
	SellPrice    *float64   `json:"sell_price"`
	Shares       float64    `json:"shares"`
	Leverage     float64    `json:"leverage,omitempty"`
	BoughtAt     *time.Time `json:"bought_at"`
	SoldAt       *time.Time `json:"sold_at"`
	Sparkline    []float64  `json:"sparkline"`
	CreatedAt    time.Time  `json:"created_at"`
	LastModified time.Time  `json:"last_modified"`
}

// Status returns "closed" when the trade has a sold date, else "open".
func (t *Trade) Status() string {
	if t.SoldAt != nil {
		return TradeStatusClosed
	}
	return TradeStatusOpen
}

// Profit returns (sell - buy) * shares, or nil for open trades.
func (t *Trade) Profit() *float64 {
	if t.SellPrice == nil {
		return nil
	}
	p := (*t.SellPrice - t.BuyPrice) * t.Shares
	return &p
}
