package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseSymbols(t *testing.T) {
	testCases := []struct {
		name     string
		raw      []string
		expected []string
	}{
		{name: "empty", raw: nil, expected: []string{}},
		{name: "trims and upper-cases", raw: []string{" aapl ", "msft"}, expected: []string{"AAPL", "MSFT"}},
		{name: "drops duplicates keeping first order", raw: []string{"nvda", "AAPL", "Nvda"}, expected: []string{"NVDA", "AAPL"}},
		{name: "drops blanks", raw: []string{"", "  ", "GOOG"}, expected: []string{"GOOG"}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSymbols(tt.raw))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("should apply file values, env overrides and defaults", func(t *testing.T) {
		// given
		path := writeFile(t, "config.yml", `
mongodb:
  url: mongodb://file:27017
  database_name: filedb
yahoo:
  quote_batch_size: 10
subscribed_symbols: [aapl]
`)
		t.Setenv("MONGO_URL", "mongodb://env:27017")
		t.Setenv("SYMBOLS", "msft, nvda")

		// when
		cfg, err := LoadConfig(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "mongodb://env:27017", cfg.MongoDB.URL)
		assert.Equal(t, "filedb", cfg.MongoDB.DatabaseName)
		assert.Equal(t, 10, cfg.Yahoo.QuoteBatchSize)
		assert.Equal(t, 20, cfg.Yahoo.SparkBatchSize)
		assert.Equal(t, []string{"msft", " nvda"}, cfg.Symbols)
		assert.Equal(t, 15, cfg.Refresh.MaxAgeMinutes)
		assert.True(t, cfg.RecordDaily())
	})

	t.Run("should tolerate a missing file", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))

		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.API.Port)
	})

	t.Run("should reject a malformed port", func(t *testing.T) {
		t.Setenv("PORT", "eighty")

		_, err := LoadConfig("")

		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "PORT", cfgErr.Field)
	})
}

func TestRequireMongo(t *testing.T) {
	cfg := &Config{}

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, cfg.RequireMongo(), &cfgErr)

	cfg.MongoDB.URL = "mongodb://localhost:27017"
	assert.NoError(t, cfg.RequireMongo())
}

func TestLoadRoster(t *testing.T) {
	entriesFile := `[
		{"symbol": "aapl", "name": "Apple Inc.", "sector": "Technology"},
		{"symbol": "MSFT", "name": "Microsoft"},
		{"symbol": "AAPL", "name": "dup"}
	]`

	t.Run("should use the roster file when no symbols are set", func(t *testing.T) {
		cfg := &Config{RosterFile: writeFile(t, "roster.json", entriesFile)}

		roster, err := LoadRoster(cfg)

		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "AAPL", roster[0].Symbol)
		assert.Equal(t, "Technology", *roster[0].Sector)
	})

	t.Run("should prefer explicit symbols and keep seed data", func(t *testing.T) {
		cfg := &Config{
			RosterFile: writeFile(t, "roster.json", entriesFile),
			Symbols:    []string{"msft", "tsla"},
		}

		roster, err := LoadRoster(cfg)

		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "Microsoft", roster[0].Name)
		assert.Equal(t, "TSLA", roster[1].Name)
	})

	t.Run("should accept a plain symbol array", func(t *testing.T) {
		cfg := &Config{RosterFile: writeFile(t, "roster.json", `["nvda", "amzn"]`)}

		roster, err := LoadRoster(cfg)

		require.NoError(t, err)
		assert.Equal(t, "NVDA", roster[0].Symbol)
	})

	t.Run("should fail without any source", func(t *testing.T) {
		_, err := LoadRoster(&Config{})

		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("should fail on a missing roster file", func(t *testing.T) {
		_, err := LoadRoster(&Config{RosterFile: filepath.Join(t.TempDir(), "none.json")})

		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})
}
