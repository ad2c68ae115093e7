package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"ndx-snapshot-backend/internal/app"
	"ndx-snapshot-backend/internal/config"
	"ndx-snapshot-backend/internal/ingest"
	mongoGo "ndx-snapshot-backend/internal/mongo"
	"ndx-snapshot-backend/internal/pacer"
	"ndx-snapshot-backend/internal/repo"
	"ndx-snapshot-backend/internal/upstream/alphavantage"
)

type flags struct {
	configPath     string
	symbols        []string
	skipOverview   bool
	overviewMaxAge int
	paceMs         int
}

func main() {
	var f flags
	pflag.StringVarP(&f.configPath, "config", "c", "config/config.yml", "path to the YAML configuration")
	pflag.StringSliceVar(&f.symbols, "symbols", nil, "only ingest these roster symbols (comma separated)")
	pflag.BoolVar(&f.skipOverview, "skip-overview", false, "do not refresh company overviews")
	pflag.BoolVar(&f.skipOverview, "no-overview", false, "alias of --skip-overview")
	pflag.IntVar(&f.overviewMaxAge, "overview-max-age", 0, "refresh overviews older than this many days")
	pflag.IntVar(&f.paceMs, "pace-ms", 0, "minimum milliseconds between upstream calls")
	pflag.Parse()

	// - Load Configuration
	cfg, logger, err := app.Setup(f.configPath)
	if err != nil {
		log.Fatalf("Error during startup: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, cfg, logger, f)
	if err != nil {
		logger.Error("ingestion failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	if len(sum.Failures) > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, f flags) (ingest.Summary, error) {
	if err := cfg.RequireAlphaVantage(); err != nil {
		return ingest.Summary{}, err
	}
	roster, err := config.LoadRoster(cfg)
	if err != nil {
		return ingest.Summary{}, err
	}
	if f.paceMs > 0 {
		cfg.AlphaVantage.PaceMs = f.paceMs
	}
	if f.overviewMaxAge > 0 {
		cfg.Ingest.OverviewMaxAgeDays = f.overviewMaxAge
	}

	// - Setup MongoDB database
	client, err := app.ConnectMongo(ctx, cfg, logger)
	if err != nil {
		return ingest.Summary{}, err
	}
	defer app.Disconnect(client, logger)

	db := cfg.MongoDB.DatabaseName
	pace := time.Duration(cfg.AlphaVantage.PaceMs) * time.Millisecond
	m, _ := app.Metrics()
	ing := ingest.NewIngester(ingest.Deps{
		Roster: roster,
		Bars: repo.NewBarRepo(
			mongoGo.GetCollection(client, db, mongoGo.DailyBarsCollection),
			mongoGo.GetCollection(client, db, mongoGo.OverviewsCollection),
		),
		Runs: repo.NewRunRepo(mongoGo.GetCollection(client, db, mongoGo.SyncRunsCollection)),
		Client: alphavantage.NewClient(alphavantage.Config{
			APIKey:     cfg.AlphaVantage.APIKey,
			BaseURL:    cfg.AlphaVantage.BaseURL,
			OutputSize: cfg.AlphaVantage.OutputSize,
			Timeout:    time.Duration(cfg.AlphaVantage.TimeoutSeconds) * time.Second,
		}),
		Pacer:   pacer.New(pace),
		Metrics: m,
		Logger:  logger.Named("ingest"),
	}, pacer.Policy{
		MaxAttempts:        uint(cfg.Ingest.MaxAttempts),
		BasePace:           pace,
		ThrottleMultiplier: cfg.Refresh.ThrottleMultiplier,
		GenericDelay:       time.Duration(cfg.Ingest.GenericBackoffMs) * time.Millisecond,
	})

	// - Run
	sum, err := ing.Run(ctx, ingest.Options{
		Symbols:        config.ParseSymbols(f.symbols),
		SkipOverview:   f.skipOverview,
		OverviewMaxAge: time.Duration(cfg.Ingest.OverviewMaxAgeDays) * 24 * time.Hour,
	})
	if err != nil {
		return sum, err
	}
	logger.Info("ingestion finished",
		zap.String("status", string(sum.Status)),
		zap.String("runId", sum.RunID.Hex()),
		zap.Bool("resumed", sum.Resumed),
		zap.Int("processed", len(sum.Processed)),
		zap.Int("insertedSnapshots", sum.InsertedSnapshots),
		zap.Strings("failures", sum.Failures),
		zap.String("latestTradingDay", sum.LatestTradingDay),
		zap.Int("overviews", sum.Overviews))
	return sum, nil
}
