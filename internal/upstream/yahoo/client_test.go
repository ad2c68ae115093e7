package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"ndx-snapshot-backend/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, UserAgent: "test"})
}

func TestClient_FetchQuoteBatch(t *testing.T) {
	t.Run("should map results by symbol", func(t *testing.T) {
		// given
		var gotSymbols string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, quotePath, r.URL.Path)
			gotSymbols = r.URL.Query().Get("symbols")
			_, _ = w.Write([]byte(`{"quoteResponse":{"result":[
				{"symbol":"AAPL","regularMarketPrice":190.1},
				{"symbol":"MSFT","regularMarketPrice":410.5}
			],"error":null}}`))
		})

		// when
		out, err := c.FetchQuoteBatch(context.Background(), []string{"AAPL", "MSFT", "ZZZZ"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "AAPL,MSFT,ZZZZ", gotSymbols)
		assert.Len(t, out, 2)
		assert.Equal(t, 410.5, gjson.GetBytes(out["MSFT"], "regularMarketPrice").Float())
	})

	testCases := []struct {
		name       string
		status     int
		body       string
		throttling bool
	}{
		{name: "429 is throttling", status: http.StatusTooManyRequests, body: `Too Many Requests`, throttling: true},
		{name: "500 is an upstream error", status: http.StatusInternalServerError, body: `oops`},
		{name: "envelope error", status: http.StatusOK, body: `{"quoteResponse":{"result":null,"error":{"description":"Invalid"}}}`},
		{name: "missing result", status: http.StatusOK, body: `{}`},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.FetchQuoteBatch(context.Background(), []string{"AAPL"})

			require.Error(t, err)
			assert.Equal(t, tt.throttling, upstream.IsThrottling(err))
			assert.Equal(t, !tt.throttling, upstream.IsUpstream(err))
		})
	}
}

func TestClient_FetchSummary(t *testing.T) {
	t.Run("should return the first result", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v10/finance/quoteSummary/NVDA", r.URL.Path)
			assert.Equal(t, summaryModules, r.URL.Query().Get("modules"))
			_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"price":{"longName":"NVIDIA Corporation"}}],"error":null}}`))
		})

		raw, err := c.FetchSummary(context.Background(), "NVDA")

		require.NoError(t, err)
		assert.Equal(t, "NVIDIA Corporation", gjson.GetBytes(raw, "price.longName").String())
	})

	t.Run("should treat 404 as absent", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		raw, err := c.FetchSummary(context.Background(), "NOPE")

		assert.NoError(t, err)
		assert.Nil(t, raw)
	})
}

func TestClient_FetchSpark(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sparkRange, r.URL.Query().Get("range"))
		assert.Equal(t, sparkInterval, r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"spark":{"result":[{"symbol":"aapl","response":[{"timestamp":[1700000000]}]}],"error":null}}`))
	})

	out, err := c.FetchSpark(context.Background(), []string{"AAPL"})

	require.NoError(t, err)
	require.Contains(t, out, "AAPL")
	assert.Equal(t, int64(1700000000), gjson.GetBytes(out["AAPL"], "response.0.timestamp.0").Int())
}
