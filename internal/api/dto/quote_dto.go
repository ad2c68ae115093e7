package dto

import (
	"time"

	"ndx-snapshot-backend/internal/models"
)

// GetQuotes

type GetQuotesReq struct {
	Force *bool `form:"force"`
}

type GetQuotesRes struct {
	Quotes    []models.Quote `json:"quotes"`
	FetchedAt *time.Time     `json:"fetchedAt"`
	Source    string         `json:"source"`
	Refreshed bool           `json:"refreshed"`
}

// GetQuote

type GetQuoteRes struct {
	Quote models.Quote `json:"quote"`
}

// PostRefresh

type PostRefreshReq struct {
	RecordDaily *bool `json:"recordDaily"`
}

type PostRefreshRes struct {
	Refreshed        bool       `json:"refreshed"`
	FetchedAt        *time.Time `json:"fetchedAt"`
	RefreshedSymbols []string   `json:"refreshedSymbols"`
	SkippedSymbols   []string   `json:"skippedSymbols"`
	Count            int        `json:"count"`
	Warning          *string    `json:"warning,omitempty"`
}

// GetHealth

type GetHealthRes struct {
	Count           int64      `json:"count"`
	NewestFetchedAt *time.Time `json:"newestFetchedAt"`
	AgeMs           *int64     `json:"ageMs"`
	MaxAgeMs        int64      `json:"maxAgeMs"`
	Stale           bool       `json:"stale"`
}

// GetTreemap

type TreemapNode struct {
	Name     string         `json:"name"`
	Children []*TreemapNode `json:"children,omitempty"`
	Data     *models.Quote  `json:"data,omitempty"`
}
