package interfaces

import "context"

// SymbolMatch is a single result from a symbol search.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Exchange string `json:"exchange,omitempty"`
}

// MarketDataClient talks to the external market-data provider.
type MarketDataClient interface {
	SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error)
	// GetHistoricalCloses returns closing prices for the last rangeDays
	// calendar days, ordered oldest first.
	GetHistoricalCloses(ctx context.Context, symbol string, rangeDays int) ([]float64, error)
}
