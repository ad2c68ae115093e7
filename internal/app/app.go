// Package app holds the startup wiring shared by the service and the CLIs.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	mongoDriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"ndx-snapshot-backend/internal/cache"
	"ndx-snapshot-backend/internal/config"
	"ndx-snapshot-backend/internal/kafka"
	"ndx-snapshot-backend/internal/logging"
	"ndx-snapshot-backend/internal/metrics"
	"ndx-snapshot-backend/internal/models"
	mongoGo "ndx-snapshot-backend/internal/mongo"
	"ndx-snapshot-backend/internal/pacer"
	"ndx-snapshot-backend/internal/refresh"
	"ndx-snapshot-backend/internal/repo"
	"ndx-snapshot-backend/internal/upstream/yahoo"
)

const (
	startupRetryWindow = 30 * time.Second
	DisconnectTimeout  = 5 * time.Second
)

// Setup loads configuration and builds the logger.
func Setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

// ConnectMongo dials the store, retrying with exponential backoff for a short
// window, and makes sure the indexes exist.
func ConnectMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongoDriver.Client, error) {
	if err := cfg.RequireMongo(); err != nil {
		return nil, err
	}

	client, err := backoff.Retry(ctx, func() (*mongoDriver.Client, error) {
		return mongoGo.ConnectDB(ctx, cfg.MongoDB.URL)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(startupRetryWindow),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Warn("mongo not reachable, retrying", zap.Duration("delay", d), zap.Error(err))
		}))
	if err != nil {
		return nil, err
	}

	retention := time.Duration(cfg.Refresh.RunRetentionDays) * 24 * time.Hour
	if err := mongoGo.EnsureIndexes(ctx, client.Database(cfg.MongoDB.DatabaseName), retention); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("connected to mongo", zap.String("database", cfg.MongoDB.DatabaseName))
	return client, nil
}

// Disconnect closes the client with a bounded wait.
func Disconnect(client *mongoDriver.Client, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), DisconnectTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("mongo disconnect failed", zap.Error(err))
		return
	}
	logger.Info("mongo client disconnected")
}

// Publisher returns the run-event publisher, or nil when Kafka is disabled or
// unreachable. Run events are best effort, so a broken broker never blocks
// startup.
func Publisher(ctx context.Context, cfg config.KafkaConfig, logger *zap.Logger) *kafka.RunPublisher {
	if !cfg.Enabled || cfg.BrokerURL == "" {
		return nil
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, kafka.EnsureTopic(ctx, cfg)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(startupRetryWindow),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Warn("kafka not reachable, retrying", zap.Duration("delay", d), zap.Error(err))
		}))
	if err != nil {
		logger.Warn("run events disabled", zap.Error(err))
		return nil
	}
	logger.Info("publishing run events", zap.String("topic", cfg.Topic))
	return kafka.NewRunPublisher(cfg)
}

// QuoteRepo builds the latest/daily/sync-run store on db.
func QuoteRepo(client *mongoDriver.Client, cfg *config.Config) *repo.QuoteRepo {
	db := cfg.MongoDB.DatabaseName
	return repo.NewQuoteRepo(
		mongoGo.GetCollection(client, db, mongoGo.LatestQuotesCollection),
		mongoGo.GetCollection(client, db, mongoGo.DailyQuotesCollection),
		mongoGo.GetCollection(client, db, mongoGo.SyncRunsCollection),
	)
}

// Refresher assembles the quote refresher over the live Yahoo client.
func Refresher(cfg *config.Config, roster []models.RosterEntry, store repo.QuoteRepoItf, publisher *kafka.RunPublisher, m *metrics.Metrics, logger *zap.Logger) *refresh.Refresher {
	pace := time.Duration(cfg.Yahoo.PaceMs) * time.Millisecond
	client := yahoo.NewClient(yahoo.Config{
		BaseURL:   cfg.Yahoo.BaseURL,
		UserAgent: cfg.Yahoo.UserAgent,
		Timeout:   time.Duration(cfg.Yahoo.TimeoutSeconds) * time.Second,
	})

	deps := refresh.Deps{
		Roster:  roster,
		Repo:    store,
		Client:  client,
		Pacer:   pacer.New(pace),
		Cache:   cache.NewSnapshotCache(),
		Metrics: m,
		Logger:  logger.Named("refresh"),
	}
	// keep a nil *RunPublisher out of the interface
	if publisher != nil {
		deps.Publisher = publisher
	}

	return refresh.NewRefresher(deps, refresh.Config{
		QuoteBatchSize: cfg.Yahoo.QuoteBatchSize,
		SparkBatchSize: cfg.Yahoo.SparkBatchSize,
		Retry: pacer.Policy{
			MaxAttempts:        uint(cfg.Refresh.MaxAttempts),
			BasePace:           pace,
			ThrottleMultiplier: cfg.Refresh.ThrottleMultiplier,
			GenericDelay:       time.Duration(cfg.Refresh.GenericBackoffMs) * time.Millisecond,
		},
		RecordDaily: cfg.RecordDaily(),
		Timeout:     time.Duration(cfg.Refresh.TimeoutSeconds) * time.Second,
	})
}

// Metrics registers the collectors on a fresh registry.
func Metrics() (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return metrics.New(reg), reg
}
