package processor

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"ndx-snapshot-backend/internal/models"
)

// Source names the upstream payload a candidate value is read from.
type Source int

const (
	FromQuote Source = iota
	FromSummary
)

// Candidate is one place a field may be found. Summary values wrapped as
// {"raw": n, "fmt": "..."} are unwrapped automatically.
type Candidate struct {
	Source Source
	Path   string
}

// FieldRule lists candidates for one numeric Quote field in priority order.
// The first candidate holding a finite number wins.
type FieldRule struct {
	Field      string
	Candidates []Candidate
	Set        func(q *models.Quote, v *float64)
}

type TextRule struct {
	Field      string
	Candidates []Candidate
	Set        func(q *models.Quote, v *string)
}

func quoteField(path string) Candidate { return Candidate{Source: FromQuote, Path: path} }

func summaryField(path string) Candidate { return Candidate{Source: FromSummary, Path: path} }

var FieldRules = []FieldRule{
	{"marketCap", []Candidate{quoteField("marketCap"), summaryField("summaryDetail.marketCap")}, func(m *models.Quote, v *float64) { m.MarketCap = v }},
	{"peRatio", []Candidate{quoteField("trailingPE"), summaryField("summaryDetail.trailingPE"), summaryField("defaultKeyStatistics.trailingPE")}, func(m *models.Quote, v *float64) { m.PERatio = v }},
	{"beta", []Candidate{quoteField("beta"), summaryField("defaultKeyStatistics.beta")}, func(m *models.Quote, v *float64) { m.Beta = v }},
	{"eps", []Candidate{quoteField("epsTrailingTwelveMonths"), summaryField("defaultKeyStatistics.trailingEps")}, func(m *models.Quote, v *float64) { m.EPS = v }},
	{"dividendYield", []Candidate{summaryField("summaryDetail.dividendYield"), quoteField("trailingAnnualDividendYield")}, func(m *models.Quote, v *float64) { m.DividendYield = v }},
	{"fiftyTwoWeekHigh", []Candidate{quoteField("fiftyTwoWeekHigh"), summaryField("summaryDetail.fiftyTwoWeekHigh")}, func(m *models.Quote, v *float64) { m.FiftyTwoWeekHigh = v }},
	{"fiftyTwoWeekLow", []Candidate{quoteField("fiftyTwoWeekLow"), summaryField("summaryDetail.fiftyTwoWeekLow")}, func(m *models.Quote, v *float64) { m.FiftyTwoWeekLow = v }},
	{"fiftyTwoWeekChange", []Candidate{quoteField("fiftyTwoWeekChange")}, func(m *models.Quote, v *float64) { m.FiftyTwoWeekChange = v }},
	{"fiftyTwoWeekChangePct", []Candidate{quoteField("fiftyTwoWeekChangePercent")}, func(m *models.Quote, v *float64) { m.FiftyTwoWeekChangePct = v }},
	{"averageVolume10Day", []Candidate{quoteField("averageDailyVolume10Day")}, func(m *models.Quote, v *float64) { m.AverageVolume10Day = v }},
	{"averageVolume30Day", []Candidate{quoteField("averageDailyVolume3Month")}, func(m *models.Quote, v *float64) { m.AverageVolume30Day = v }},
	{"volume", []Candidate{quoteField("regularMarketVolume")}, func(m *models.Quote, v *float64) { m.Volume = v }},
	{"previousClose", []Candidate{quoteField("regularMarketPreviousClose")}, func(m *models.Quote, v *float64) { m.PreviousClose = v }},
	{"open", []Candidate{quoteField("regularMarketOpen")}, func(m *models.Quote, v *float64) { m.Open = v }},
	{"dayHigh", []Candidate{quoteField("regularMarketDayHigh")}, func(m *models.Quote, v *float64) { m.DayHigh = v }},
	{"dayLow", []Candidate{quoteField("regularMarketDayLow")}, func(m *models.Quote, v *float64) { m.DayLow = v }},
	{"last", []Candidate{quoteField("regularMarketPrice")}, func(m *models.Quote, v *float64) { m.Last = v }},
}

// TextRules cover the classification fields. Name is handled separately
// because it always resolves to something.
var TextRules = []TextRule{
	{"sector", []Candidate{summaryField("assetProfile.sector")}, func(m *models.Quote, v *string) { m.Sector = v }},
	{"industry", []Candidate{summaryField("assetProfile.industry")}, func(m *models.Quote, v *string) { m.Industry = v }},
	{"marketState", []Candidate{quoteField("marketState")}, func(m *models.Quote, v *string) { m.MarketState = v }},
}

var nameCandidates = []Candidate{
	summaryField("price.longName"),
	summaryField("price.shortName"),
	quoteField("longName"),
	quoteField("shortName"),
	quoteField("displayName"),
}

const rawChangePctPath = "regularMarketChangePercent"

type payloads struct {
	quote   gjson.Result
	summary gjson.Result
}

func (p payloads) get(c Candidate) gjson.Result {
	if c.Source == FromSummary {
		return p.summary.Get(c.Path)
	}
	return p.quote.Get(c.Path)
}

func (r FieldRule) Resolve(quote, summary gjson.Result) *float64 {
	p := payloads{quote: quote, summary: summary}
	for _, c := range r.Candidates {
		if v := Number(p.get(c)); v != nil {
			return v
		}
	}
	return nil
}

func (r TextRule) Resolve(quote, summary gjson.Result) *string {
	return firstText(payloads{quote: quote, summary: summary}, r.Candidates)
}

func firstText(p payloads, candidates []Candidate) *string {
	for _, c := range candidates {
		v := p.get(c)
		if v.Type != gjson.String {
			continue
		}
		if text := strings.TrimSpace(v.Str); text != "" {
			return &text
		}
	}
	return nil
}

// Number reads a finite number from a JSON value. Numeric strings are
// accepted; {"raw": n} wrappers are unwrapped; everything else is nil.
func Number(v gjson.Result) *float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case gjson.JSON:
		if v.IsObject() {
			return Number(v.Get("raw"))
		}
		return nil
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
