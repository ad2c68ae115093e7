package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"ndx-snapshot-backend/internal/upstream"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"

	dailyFunction    = "TIME_SERIES_DAILY_ADJUSTED"
	overviewFunction = "OVERVIEW"
	dailySeriesKey   = "Time Series (Daily)"
)

type Config struct {
	APIKey     string
	BaseURL    string
	OutputSize string
	Timeout    time.Duration
}

// Client fetches daily adjusted bars and company overviews.
type Client struct {
	http       *resty.Client
	apiKey     string
	outputSize string
}

var _ upstream.HistoryClientItf = (*Client)(nil)

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	outputSize := cfg.OutputSize
	if outputSize == "" {
		outputSize = "compact"
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc, apiKey: cfg.APIKey, outputSize: outputSize}
}

// FetchDailyBars returns the daily series sorted by ascending date.
func (c *Client) FetchDailyBars(ctx context.Context, symbol string) ([]upstream.Bar, error) {
	body, err := c.query(ctx, "daily", symbol, map[string]string{
		"function":   dailyFunction,
		"symbol":     symbol,
		"outputsize": c.outputSize,
	})
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &upstream.UpstreamError{Op: "daily", Symbols: []string{symbol}, Err: err}
	}
	rawSeries, ok := payload[dailySeriesKey]
	if !ok {
		return nil, &upstream.UpstreamError{Op: "daily", Symbols: []string{symbol}, Err: errors.New("missing daily series")}
	}
	var series map[string]json.RawMessage
	if err := json.Unmarshal(rawSeries, &series); err != nil {
		return nil, &upstream.UpstreamError{Op: "daily", Symbols: []string{symbol}, Err: err}
	}

	bars := make([]upstream.Bar, 0, len(series))
	for date, raw := range series {
		fields := gjson.ParseBytes(raw)
		bars = append(bars, upstream.Bar{
			Date:          date,
			Open:          number(fields.Get("1\\. open")),
			High:          number(fields.Get("2\\. high")),
			Low:           number(fields.Get("3\\. low")),
			Close:         number(fields.Get("4\\. close")),
			AdjustedClose: number(fields.Get("5\\. adjusted close")),
			Volume:        number(fields.Get("6\\. volume")),
			Raw:           raw,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

func (c *Client) FetchOverview(ctx context.Context, symbol string) (*upstream.Overview, error) {
	body, err := c.query(ctx, "overview", symbol, map[string]string{
		"function": overviewFunction,
		"symbol":   symbol,
	})
	if err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(body)
	if !doc.Get("Symbol").Exists() {
		return nil, &upstream.UpstreamError{Op: "overview", Symbols: []string{symbol}, Err: errors.New("empty overview")}
	}
	return &upstream.Overview{
		Symbol:    strings.ToUpper(doc.Get("Symbol").String()),
		Name:      doc.Get("Name").String(),
		Sector:    doc.Get("Sector").String(),
		Industry:  doc.Get("Industry").String(),
		MarketCap: number(doc.Get("MarketCapitalization")),
		Raw:       json.RawMessage(body),
	}, nil
}

func (c *Client) query(ctx context.Context, op, symbol string, params map[string]string) ([]byte, error) {
	symbols := []string{symbol}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.apiKey).
		Get("/query")
	if err != nil {
		return nil, &upstream.UpstreamError{Op: op, Symbols: symbols, Err: err}
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, &upstream.ThrottlingError{Op: op, Symbols: symbols, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &upstream.UpstreamError{Op: op, Symbols: symbols, StatusCode: resp.StatusCode(), Err: errors.New(resp.Status())}
	}

	body := resp.Body()
	// rate limits arrive as 200 responses carrying a notice
	for _, key := range []string{"Note", "Information"} {
		if v := gjson.GetBytes(body, key); v.Exists() {
			return nil, &upstream.ThrottlingError{Op: op, Symbols: symbols, Err: errors.New(v.String())}
		}
	}
	if v := gjson.GetBytes(body, "Error Message"); v.Exists() {
		return nil, &upstream.UpstreamError{Op: op, Symbols: symbols, StatusCode: resp.StatusCode(), Err: errors.New(v.String())}
	}
	return body, nil
}

func number(v gjson.Result) *float64 {
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
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
