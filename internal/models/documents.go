package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuoteDocument is the latest durable record for one symbol, keyed by symbol.
// The raw payloads are kept for audit only and never served.
type QuoteDocument struct {
	Symbol     string    `bson:"_id"`
	FetchedAt  time.Time `bson:"fetchedAt"`
	Quote      Quote     `bson:"quote"`
	RawQuote   bson.M    `bson:"rawQuote,omitempty"`
	RawSummary bson.M    `bson:"rawSummary,omitempty"`
	RawSpark   bson.M    `bson:"rawSpark,omitempty"`
}

// DailySnapshotDocument is write-once per (symbol, asOf).
type DailySnapshotDocument struct {
	Symbol    string    `bson:"symbol"`
	AsOf      string    `bson:"asOf"`
	Quote     Quote     `bson:"quote"`
	FetchedAt time.Time `bson:"fetchedAt"`
}

// NewDailySnapshot derives the snapshot for the UTC calendar date of the quote.
func NewDailySnapshot(doc QuoteDocument) DailySnapshotDocument {
	return DailySnapshotDocument{
		Symbol:    doc.Symbol,
		AsOf:      doc.Quote.FetchedAt.UTC().Format(time.DateOnly),
		Quote:     doc.Quote.Clone(),
		FetchedAt: doc.FetchedAt,
	}
}

// QuoteMetadata summarizes the latest-quote store for health reporting.
type QuoteMetadata struct {
	Count           int64
	NewestFetchedAt *time.Time
}

type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusSkipped SyncStatus = "skipped"
	SyncStatusError   SyncStatus = "error"
)

const (
	SyncTypeRefresh     = "refresh"
	SyncTypeDailyPrices = "daily_prices"
)

// SyncRunRecord is the audit entry for one refresh or ingestion run.
type SyncRunRecord struct {
	Id               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type             string             `bson:"type" json:"type"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	FinishedAt       time.Time          `bson:"finishedAt,omitempty" json:"finishedAt"`
	Status           SyncStatus         `bson:"status" json:"status"`
	DurationMs       int64              `bson:"durationMs" json:"durationMs"`
	RefreshedSymbols []string           `bson:"refreshedSymbols" json:"refreshedSymbols"`
	SkippedSymbols   []string           `bson:"skippedSymbols" json:"skippedSymbols"`
	PendingSymbols   []string           `bson:"pendingSymbols,omitempty" json:"pendingSymbols,omitempty"`
	Metadata         bson.M             `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Error            string             `bson:"error,omitempty" json:"error,omitempty"`
}

// DailyBar is one historical trading day for a symbol. Rows are append-only.
type DailyBar struct {
	Symbol        string   `bson:"symbol"`
	TradingDay    string   `bson:"tradingDay"`
	Open          *float64 `bson:"open"`
	High          *float64 `bson:"high"`
	Low           *float64 `bson:"low"`
	Close         *float64 `bson:"close"`
	AdjustedClose *float64 `bson:"adjustedClose"`
	Volume        *float64 `bson:"volume"`
	ChangePct     *float64 `bson:"changePct"`
	Raw           bson.M   `bson:"raw,omitempty"`
}

type CompanyOverview struct {
	Symbol    string    `bson:"_id"`
	Name      string    `bson:"name,omitempty"`
	Sector    string    `bson:"sector,omitempty"`
	Industry  string    `bson:"industry,omitempty"`
	MarketCap *float64  `bson:"marketCap"`
	Raw       bson.M    `bson:"raw,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// RawDocument turns an upstream JSON object into a storable document.
// Anything that is not a JSON object is dropped.
func RawDocument(raw json.RawMessage) bson.M {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return bson.M(m)
}
