package upstream

import (
	"context"
	"encoding/json"
)

// ClientItf is the live quote provider. Batch calls return one raw JSON
// object per symbol the provider answered for; missing symbols are simply
// absent from the map.
type ClientItf interface {
	FetchQuoteBatch(ctx context.Context, symbols []string) (map[string]json.RawMessage, error)
	FetchSummary(ctx context.Context, symbol string) (json.RawMessage, error)
	FetchSpark(ctx context.Context, symbols []string) (map[string]json.RawMessage, error)
}

// Bar is one day from a historical daily series. Missing values are nil.
type Bar struct {
	Date          string
	Open          *float64
	High          *float64
	Low           *float64
	Close         *float64
	AdjustedClose *float64
	Volume        *float64
	Raw           json.RawMessage
}

type Overview struct {
	Symbol    string
	Name      string
	Sector    string
	Industry  string
	MarketCap *float64
	Raw       json.RawMessage
}

// HistoryClientItf is the historical daily-bar provider.
type HistoryClientItf interface {
	FetchDailyBars(ctx context.Context, symbol string) ([]Bar, error)
	FetchOverview(ctx context.Context, symbol string) (*Overview, error)
}
