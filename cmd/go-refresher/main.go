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
	"ndx-snapshot-backend/internal/refresh"
)

func main() {
	configPath := pflag.StringP("config", "c", "config/config.yml", "path to the YAML configuration")
	force := pflag.BoolP("force", "f", false, "refresh even when stored quotes are fresh")
	since := pflag.Int("since", 0, "skip the refresh when quotes newer than this many minutes exist")
	pflag.Parse()

	cfg, logger, err := app.Setup(*configPath)
	if err != nil {
		log.Fatalf("Error during startup: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *force, time.Duration(*since)*time.Minute); err != nil {
		logger.Error("refresh failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, force bool, since time.Duration) error {
	roster, err := config.LoadRoster(cfg)
	if err != nil {
		return err
	}
	client, err := app.ConnectMongo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Disconnect(client, logger)

	publisher := app.Publisher(ctx, cfg.Kafka, logger)
	if publisher != nil {
		defer publisher.Close()
	}

	m, _ := app.Metrics()
	refresher := app.Refresher(cfg, roster, app.QuoteRepo(client, cfg), publisher, m, logger)

	var res refresh.Result
	if !force && since > 0 {
		res, err = refresher.Load(ctx, refresh.LoadOptions{MaxAge: since})
	} else {
		res, err = refresher.Refresh(ctx, refresh.Options{RecordDaily: cfg.RecordDaily()})
	}
	if err != nil {
		return err
	}

	if res.Source != refresh.SourceRefresh {
		logger.Info("quotes are fresh, refresh skipped",
			zap.String("source", string(res.Source)),
			zap.Timep("fetchedAt", res.FetchedAt),
			zap.Duration("since", since))
		return nil
	}
	fields := []zap.Field{
		zap.Int("quotes", len(res.Quotes)),
		zap.Int("refreshed", len(res.RefreshedSymbols)),
		zap.Int("skipped", len(res.SkippedSymbols)),
		zap.Strings("skippedSymbols", res.SkippedSymbols),
	}
	if res.Warning != nil {
		fields = append(fields, zap.NamedError("warning", res.Warning))
	}
	logger.Info("refresh finished", fields...)
	return nil
}
