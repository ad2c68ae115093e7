package processor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"ndx-snapshot-backend/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestFieldRules(t *testing.T) {
	rules := make(map[string]FieldRule, len(FieldRules))
	for _, r := range FieldRules {
		rules[r.Field] = r
	}

	testCases := []struct {
		name     string
		field    string
		quote    string
		summary  string
		expected *float64
	}{
		{
			name:     "market cap from quote",
			field:    "marketCap",
			quote:    `{"marketCap": 3000000000000}`,
			summary:  `{"summaryDetail": {"marketCap": {"raw": 1, "fmt": "1"}}}`,
			expected: ptr(3e12),
		},
		{
			name:     "market cap falls back to summary raw value",
			field:    "marketCap",
			quote:    `{}`,
			summary:  `{"summaryDetail": {"marketCap": {"raw": 2500000000, "fmt": "2.5B"}}}`,
			expected: ptr(2.5e9),
		},
		{
			name:     "market cap absent everywhere",
			field:    "marketCap",
			quote:    `{"marketCap": null}`,
			summary:  `{}`,
			expected: nil,
		},
		{
			name:     "pe ratio from default key statistics",
			field:    "peRatio",
			quote:    `{"trailingPE": "n/a"}`,
			summary:  `{"defaultKeyStatistics": {"trailingPE": {"raw": 31.2}}}`,
			expected: ptr(31.2),
		},
		{
			name:     "dividend yield prefers summary",
			field:    "dividendYield",
			quote:    `{"trailingAnnualDividendYield": 0.01}`,
			summary:  `{"summaryDetail": {"dividendYield": {"raw": 0.005}}}`,
			expected: ptr(0.005),
		},
		{
			name:     "numeric strings are accepted",
			field:    "last",
			quote:    `{"regularMarketPrice": "189.5"}`,
			summary:  ``,
			expected: ptr(189.5),
		},
		{
			name:     "eps from summary",
			field:    "eps",
			quote:    `{}`,
			summary:  `{"defaultKeyStatistics": {"trailingEps": 6.4}}`,
			expected: ptr(6.4),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := rules[tt.field]
			require.True(t, ok)

			got := rule.Resolve(gjson.Parse(tt.quote), gjson.Parse(tt.summary))

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestChangePct(t *testing.T) {
	testCases := []struct {
		name          string
		raw           *float64
		last          *float64
		previousClose *float64
		expected      float64
	}{
		{name: "reported value rounded", raw: ptr(1.23456), expected: 1.23},
		{name: "derived from last and previous close", last: ptr(102.0), previousClose: ptr(100.0), expected: 2},
		{name: "derived and rounded", last: ptr(100.0), previousClose: ptr(300.0), expected: -66.67},
		{name: "zero previous close", last: ptr(1.0), previousClose: ptr(0.0), expected: 0},
		{name: "nothing available", expected: 0},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChangePct(tt.raw, tt.last, tt.previousClose))
		})
	}
}

func TestNormalizeSpark(t *testing.T) {
	testCases := []struct {
		name       string
		raw        string
		expectNil  bool
		assertions func(t *testing.T, s *models.Spark)
	}{
		{name: "empty payload", raw: ``, expectNil: true},
		{name: "no response", raw: `{"symbol":"AAPL"}`, expectNil: true},
		{
			name:      "no usable points",
			raw:       `{"response":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[null,null]}]}}]}`,
			expectNil: true,
		},
		{
			name: "converts seconds to milliseconds and drops gaps",
			raw: `{"response":[{
				"meta":{"dataGranularity":"5m"},
				"timestamp":[1700000000,1700000300,1700000600],
				"indicators":{"quote":[{"close":[10.5,null,11]}]}
			}]}`,
			assertions: func(t *testing.T, s *models.Spark) {
				assert.Equal(t, "5m", s.Interval)
				assert.Equal(t, []int64{1700000000000, 1700000600000}, s.Timestamps)
				assert.Equal(t, []float64{10.5, 11}, s.Closes)
			},
		},
		{
			name: "flattened closes with mismatched lengths",
			raw:  `{"response":[{"interval":"15m","timestamp":[1,2,3],"close":[5,6]}]}`,
			assertions: func(t *testing.T, s *models.Spark) {
				assert.Equal(t, "15m", s.Interval)
				assert.Equal(t, []int64{1000, 2000}, s.Timestamps)
				assert.Len(t, s.Closes, len(s.Timestamps))
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSpark(json.RawMessage(tt.raw))

			if tt.expectNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			tt.assertions(t, got)
		})
	}
}

func TestNormalizeQuote(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	entry := models.RosterEntry{Symbol: "AAPL", Name: "Apple (roster)", Sector: ptr("Roster Sector"), Industry: ptr("Roster Industry")}

	t.Run("should coalesce every source", func(t *testing.T) {
		// given
		b := Bundle{
			Quote: json.RawMessage(`{
				"symbol":"AAPL","shortName":"Apple","regularMarketPrice":190,
				"regularMarketPreviousClose":188,"regularMarketChangePercent":1.0638,
				"marketCap":2900000000000,"marketState":"REGULAR","regularMarketVolume":5000
			}`),
			Summary: json.RawMessage(`{
				"price":{"longName":"Apple Inc."},
				"assetProfile":{"sector":"Technology"}
			}`),
			Spark: json.RawMessage(`{"response":[{"timestamp":[1700000000],"close":[190]}]}`),
		}

		// when
		doc := NormalizeQuote(entry, b, fetchedAt)

		// then
		assert.Equal(t, "AAPL", doc.Symbol)
		assert.Equal(t, fetchedAt, doc.FetchedAt)
		assert.Equal(t, "Apple Inc.", doc.Quote.Name)
		assert.Equal(t, "Technology", *doc.Quote.Sector)
		assert.Equal(t, "Roster Industry", *doc.Quote.Industry)
		assert.Equal(t, 1.06, doc.Quote.ChangePct)
		assert.Equal(t, 190.0, *doc.Quote.Last)
		assert.Equal(t, "REGULAR", *doc.Quote.MarketState)
		assert.Nil(t, doc.Quote.Weight)
		assert.Nil(t, doc.Quote.PERatio)
		require.NotNil(t, doc.Quote.Spark)
		assert.Equal(t, "AAPL", doc.RawQuote["symbol"])
	})

	nameCases := []struct {
		name     string
		quote    string
		summary  string
		entry    models.RosterEntry
		expected string
	}{
		{name: "summary short name", quote: `{"longName":"Q"}`, summary: `{"price":{"shortName":"S"}}`, entry: entry, expected: "S"},
		{name: "quote long name", quote: `{"longName":"Q","shortName":"q"}`, summary: `{}`, entry: entry, expected: "Q"},
		{name: "display name", quote: `{"displayName":"D"}`, summary: `{}`, entry: entry, expected: "D"},
		{name: "roster name", quote: `{}`, summary: `{}`, entry: entry, expected: "Apple (roster)"},
		{name: "symbol as last resort", quote: `{}`, summary: `{}`, entry: models.RosterEntry{Symbol: "AAPL"}, expected: "AAPL"},
	}

	for _, tt := range nameCases {
		t.Run("name: "+tt.name, func(t *testing.T) {
			doc := NormalizeQuote(tt.entry, Bundle{Quote: json.RawMessage(tt.quote), Summary: json.RawMessage(tt.summary)}, fetchedAt)

			assert.Equal(t, tt.expected, doc.Quote.Name)
		})
	}
}

func TestBundle_Usable(t *testing.T) {
	assert.False(t, (*Bundle)(nil).Usable())
	assert.False(t, (&Bundle{}).Usable())
	assert.False(t, (&Bundle{Quote: json.RawMessage(`null`)}).Usable())
	assert.True(t, (&Bundle{Quote: json.RawMessage(`{"symbol":"AAPL"}`)}).Usable())
}
