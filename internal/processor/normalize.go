package processor

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"ndx-snapshot-backend/internal/models"
)

const defaultSparkInterval = "5m"

// Bundle collects the raw upstream payloads for one symbol during a refresh.
type Bundle struct {
	Quote   json.RawMessage
	Summary json.RawMessage
	Spark   json.RawMessage
	Errors  []string
}

// Usable reports whether the bundle carries the primary quote payload.
func (b *Bundle) Usable() bool {
	return b != nil && len(b.Quote) > 0 && gjson.ValidBytes(b.Quote) && gjson.ParseBytes(b.Quote).IsObject()
}

// NormalizeQuote builds the durable record for entry from its bundle.
func NormalizeQuote(entry models.RosterEntry, b Bundle, fetchedAt time.Time) models.QuoteDocument {
	quote := gjson.ParseBytes(b.Quote)
	summary := gjson.ParseBytes(b.Summary)

	out := models.Quote{
		Symbol:    entry.Symbol,
		Name:      pickName(entry, quote, summary),
		FetchedAt: fetchedAt,
		Spark:     NormalizeSpark(b.Spark),
	}
	for _, rule := range FieldRules {
		rule.Set(&out, rule.Resolve(quote, summary))
	}
	for _, rule := range TextRules {
		rule.Set(&out, rule.Resolve(quote, summary))
	}
	if out.Sector == nil {
		out.Sector = seed(entry.Sector)
	}
	if out.Industry == nil {
		out.Industry = seed(entry.Industry)
	}
	out.ChangePct = ChangePct(Number(quote.Get(rawChangePctPath)), out.Last, out.PreviousClose)

	return models.QuoteDocument{
		Symbol:     entry.Symbol,
		FetchedAt:  fetchedAt,
		Quote:      out,
		RawQuote:   models.RawDocument(b.Quote),
		RawSummary: models.RawDocument(b.Summary),
		RawSpark:   models.RawDocument(b.Spark),
	}
}

// ChangePct prefers the reported percent change, then derives it from last
// and previous close, and otherwise reports 0. Results have 2 decimals.
func ChangePct(raw, last, previousClose *float64) float64 {
	if raw != nil {
		return decimal.NewFromFloat(*raw).Round(2).InexactFloat64()
	}
	if last != nil && previousClose != nil && *previousClose != 0 {
		l := decimal.NewFromFloat(*last)
		p := decimal.NewFromFloat(*previousClose)
		return l.Sub(p).Div(p).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	return 0
}

// NormalizeSpark converts a raw spark entry into epoch-millisecond pairs.
// Pairs with a missing or non-finite side are dropped; nothing usable yields nil.
func NormalizeSpark(raw json.RawMessage) *models.Spark {
	if len(raw) == 0 {
		return nil
	}
	resp := gjson.GetBytes(raw, "response.0")
	if !resp.Exists() {
		return nil
	}

	timestamps := resp.Get("timestamp").Array()
	closes := resp.Get("indicators.quote.0.close").Array()
	if len(closes) == 0 {
		closes = resp.Get("close").Array()
	}

	n := min(len(timestamps), len(closes))
	spark := &models.Spark{
		Interval:   sparkInterval(resp),
		Timestamps: make([]int64, 0, n),
		Closes:     make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		ts := Number(timestamps[i])
		c := Number(closes[i])
		if ts == nil || c == nil {
			continue
		}
		spark.Timestamps = append(spark.Timestamps, int64(*ts)*1000)
		spark.Closes = append(spark.Closes, *c)
	}
	if len(spark.Timestamps) == 0 {
		return nil
	}
	return spark
}

func sparkInterval(resp gjson.Result) string {
	for _, path := range []string{"interval", "dataGranularity", "meta.dataGranularity"} {
		if v := resp.Get(path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return defaultSparkInterval
}

func pickName(entry models.RosterEntry, quote, summary gjson.Result) string {
	if name := firstText(payloads{quote: quote, summary: summary}, nameCandidates); name != nil {
		return *name
	}
	if entry.Name != "" {
		return entry.Name
	}
	return entry.Symbol
}

func seed(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	out := *v
	return &out
}
