package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"ndx-snapshot-backend/internal/upstream"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	quotePath   = "/v7/finance/quote"
	summaryPath = "/v10/finance/quoteSummary/{symbol}"
	sparkPath   = "/v7/finance/spark"

	summaryModules = "summaryDetail,defaultKeyStatistics,price,assetProfile"
	sparkRange     = "1d"
	sparkInterval  = "5m"
)

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the Yahoo Finance JSON endpoints and unwraps their response
// envelopes into one raw object per symbol.
type Client struct {
	http *resty.Client
}

var _ upstream.ClientItf = (*Client)(nil)

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		rc.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Client{http: rc}
}

func (c *Client) FetchQuoteBatch(ctx context.Context, symbols []string) (map[string]json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		Get(quotePath)
	if err := classify("quote", symbols, resp, err); err != nil {
		return nil, err
	}

	body := resp.Body()
	if msg := envelopeError(body, "quoteResponse.error"); msg != "" {
		return nil, &upstream.UpstreamError{Op: "quote", Symbols: symbols, StatusCode: resp.StatusCode(), Err: errors.New(msg)}
	}
	results := gjson.GetBytes(body, "quoteResponse.result")
	if !results.IsArray() {
		return nil, &upstream.UpstreamError{Op: "quote", Symbols: symbols, StatusCode: resp.StatusCode(), Err: errors.New("missing quoteResponse.result")}
	}
	return bySymbol(results, func(v gjson.Result) string { return v.Get("symbol").String() }), nil
}

// FetchSummary returns nil without error when the provider has no summary for
// the symbol.
func (c *Client) FetchSummary(ctx context.Context, symbol string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParam("modules", summaryModules).
		Get(summaryPath)
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	symbols := []string{symbol}
	if err := classify("summary", symbols, resp, err); err != nil {
		return nil, err
	}

	body := resp.Body()
	if msg := envelopeError(body, "quoteSummary.error"); msg != "" {
		return nil, &upstream.UpstreamError{Op: "summary", Symbols: symbols, StatusCode: resp.StatusCode(), Err: errors.New(msg)}
	}
	result := gjson.GetBytes(body, "quoteSummary.result.0")
	if !result.IsObject() {
		return nil, nil
	}
	return json.RawMessage(result.Raw), nil
}

func (c *Client) FetchSpark(ctx context.Context, symbols []string) (map[string]json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbols":  strings.Join(symbols, ","),
			"range":    sparkRange,
			"interval": sparkInterval,
		}).
		Get(sparkPath)
	if err := classify("spark", symbols, resp, err); err != nil {
		return nil, err
	}

	body := resp.Body()
	if msg := envelopeError(body, "spark.error"); msg != "" {
		return nil, &upstream.UpstreamError{Op: "spark", Symbols: symbols, StatusCode: resp.StatusCode(), Err: errors.New(msg)}
	}
	results := gjson.GetBytes(body, "spark.result")
	if !results.IsArray() {
		return nil, &upstream.UpstreamError{Op: "spark", Symbols: symbols, StatusCode: resp.StatusCode(), Err: errors.New("missing spark.result")}
	}
	return bySymbol(results, func(v gjson.Result) string { return v.Get("symbol").String() }), nil
}

func classify(op string, symbols []string, resp *resty.Response, err error) error {
	if err != nil {
		return &upstream.UpstreamError{Op: op, Symbols: symbols, Err: err}
	}
	status := resp.StatusCode()
	switch {
	case status == http.StatusTooManyRequests:
		return &upstream.ThrottlingError{Op: op, Symbols: symbols, Err: fmt.Errorf("status %d", status)}
	case status >= http.StatusBadRequest:
		return &upstream.UpstreamError{Op: op, Symbols: symbols, StatusCode: status, Err: errors.New(snippet(resp.Body()))}
	}
	return nil
}

func envelopeError(body []byte, path string) string {
	e := gjson.GetBytes(body, path)
	if !e.Exists() || e.Type == gjson.Null {
		return ""
	}
	if desc := e.Get("description"); desc.Exists() {
		return desc.String()
	}
	return e.String()
}

func bySymbol(results gjson.Result, key func(gjson.Result) string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	results.ForEach(func(_, v gjson.Result) bool {
		if sym := strings.ToUpper(key(v)); sym != "" {
			out[sym] = json.RawMessage(v.Raw)
		}
		return true
	})
	return out
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	if s == "" {
		return "empty body"
	}
	return s
}
