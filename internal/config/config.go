package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level struct that holds all configuration.
type Config struct {
	MongoDB      MongoDBConfig      `yaml:"mongodb"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Yahoo        YahooConfig        `yaml:"yahoo"`
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage"`
	Refresh      RefreshConfig      `yaml:"refresh"`
	Ingest       IngestConfig       `yaml:"ingest"`
	API          APIConfig          `yaml:"api"`
	Log          LogConfig          `yaml:"log"`
	Symbols      []string           `yaml:"subscribed_symbols"`
	RosterFile   string             `yaml:"roster_file"`
}

type MongoDBConfig struct {
	URL          string `yaml:"url"`
	DatabaseName string `yaml:"database_name"`
}

// KafkaConfig holds the configuration for the Kafka connection.
type KafkaConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BrokerURL string `yaml:"broker_url"`
	Topic     string `yaml:"topic"`
}

type YahooConfig struct {
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PaceMs         int    `yaml:"pace_ms"`
	QuoteBatchSize int    `yaml:"quote_batch_size"`
	SparkBatchSize int    `yaml:"spark_batch_size"`
}

type AlphaVantageConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PaceMs         int    `yaml:"pace_ms"`
	OutputSize     string `yaml:"output_size"`
}

type RefreshConfig struct {
	MaxAgeMinutes      int     `yaml:"max_age_minutes"`
	RecordDaily        *bool   `yaml:"record_daily"`
	MaxAttempts        int     `yaml:"max_attempts"`
	ThrottleMultiplier float64 `yaml:"throttle_multiplier"`
	GenericBackoffMs   int     `yaml:"generic_backoff_ms"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	RunRetentionDays   int     `yaml:"run_retention_days"`
}

type IngestConfig struct {
	OverviewMaxAgeDays int `yaml:"overview_max_age_days"`
	MaxAttempts        int `yaml:"max_attempts"`
	GenericBackoffMs   int `yaml:"generic_backoff_ms"`
}

type APIConfig struct {
	Port                  int    `yaml:"port"`
	RefreshToken          string `yaml:"refresh_token"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	RefreshPerMinute      int    `yaml:"refresh_per_minute"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ConfigurationError reports a missing or malformed setting.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads the YAML file at path (optional when path is empty or the
// file does not exist), then applies .env and process environment overrides
// and fills defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, &ConfigurationError{Field: path, Message: err.Error()}
			}
		}
	}

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.MongoDB.URL, "MONGO_URL")
	setString(&c.MongoDB.DatabaseName, "MONGO_DB")
	setString(&c.API.RefreshToken, "REFRESH_TOKEN")
	setString(&c.AlphaVantage.APIKey, "ALPHAVANTAGE_API_KEY")
	setString(&c.Kafka.BrokerURL, "KAFKA_BROKER_URL")
	setString(&c.RosterFile, "ROSTER_FILE")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v, ok := os.LookupEnv("SYMBOLS"); ok && strings.TrimSpace(v) != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigurationError{Field: "PORT", Message: "must be an integer"}
		}
		c.API.Port = port
	}
	if v, ok := os.LookupEnv("KAFKA_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigurationError{Field: "KAFKA_ENABLED", Message: "must be a boolean"}
		}
		c.Kafka.Enabled = enabled
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.MongoDB.DatabaseName, "ndx")
	setDefault(&c.Kafka.Topic, "sync-runs")
	setDefault(&c.Yahoo.BaseURL, "https://query1.finance.yahoo.com")
	setDefault(&c.Yahoo.UserAgent, "Mozilla/5.0 (compatible; ndx-snapshot-backend/1.0)")
	setDefault(&c.Yahoo.TimeoutSeconds, 15)
	setDefault(&c.Yahoo.PaceMs, 250)
	setDefault(&c.Yahoo.QuoteBatchSize, 20)
	setDefault(&c.Yahoo.SparkBatchSize, 20)
	setDefault(&c.AlphaVantage.BaseURL, "https://www.alphavantage.co")
	setDefault(&c.AlphaVantage.TimeoutSeconds, 30)
	setDefault(&c.AlphaVantage.PaceMs, 12500)
	setDefault(&c.AlphaVantage.OutputSize, "compact")
	setDefault(&c.Refresh.MaxAgeMinutes, 15)
	setDefault(&c.Refresh.MaxAttempts, 3)
	setDefault(&c.Refresh.ThrottleMultiplier, 2)
	setDefault(&c.Refresh.GenericBackoffMs, 2000)
	setDefault(&c.Refresh.TimeoutSeconds, 120)
	setDefault(&c.Refresh.RunRetentionDays, 14)
	setDefault(&c.Ingest.OverviewMaxAgeDays, 7)
	setDefault(&c.Ingest.MaxAttempts, 3)
	setDefault(&c.Ingest.GenericBackoffMs, 2000)
	setDefault(&c.API.Port, 8080)
	setDefault(&c.API.RequestTimeoutSeconds, 30)
	setDefault(&c.API.RefreshPerMinute, 2)
	setDefault(&c.Log.Level, "info")
	setDefault(&c.Log.Format, "json")
	setDefault(&c.Log.MaxSizeMB, 100)
	setDefault(&c.Log.MaxBackups, 5)
	setDefault(&c.Log.MaxAgeDays, 28)
	if c.Refresh.RecordDaily == nil {
		recordDaily := true
		c.Refresh.RecordDaily = &recordDaily
	}
}

// RequireMongo fails when no connection string is configured.
func (c *Config) RequireMongo() error {
	if strings.TrimSpace(c.MongoDB.URL) == "" {
		return &ConfigurationError{Field: "MONGO_URL", Message: "is not set"}
	}
	return nil
}

func (c *Config) RequireAlphaVantage() error {
	if strings.TrimSpace(c.AlphaVantage.APIKey) == "" {
		return &ConfigurationError{Field: "ALPHAVANTAGE_API_KEY", Message: "is not set"}
	}
	return nil
}

func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.Refresh.MaxAgeMinutes) * time.Minute
}

func (c *Config) RecordDaily() bool {
	return c.Refresh.RecordDaily == nil || *c.Refresh.RecordDaily
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDefault[T comparable](dst *T, v T) {
	var zero T
	if *dst == zero {
		*dst = v
	}
}
