package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ndx-snapshot-backend/internal/api/handler"
	"ndx-snapshot-backend/internal/api/usecase"
	"ndx-snapshot-backend/internal/app"
	"ndx-snapshot-backend/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := pflag.StringP("config", "c", "config/config.yml", "path to the YAML configuration")
	pflag.Parse()

	// - Load configuration and logger
	cfg, logger, err := app.Setup(*configPath)
	if err != nil {
		log.Fatalf("Error during startup: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("api service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	roster, err := config.LoadRoster(cfg)
	if err != nil {
		return err
	}

	// - Setup MongoDB database
	client, err := app.ConnectMongo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Disconnect(client, logger)

	// - Setup Kafka run events
	publisher := app.Publisher(ctx, cfg.Kafka, logger)
	if publisher != nil {
		defer publisher.Close()
	}

	// - Setup refresher, usecase and handler
	m, reg := app.Metrics()
	store := app.QuoteRepo(client, cfg)
	refresher := app.Refresher(cfg, roster, store, publisher, m, logger)
	uc := usecase.NewUsecase(refresher, store, cfg.MaxAge())
	hd := handler.NewHandler(uc, cfg.RecordDaily())

	var limiter *rate.Limiter
	if cfg.API.RefreshPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.API.RefreshPerMinute)), cfg.API.RefreshPerMinute)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(hd, handler.RouterConfig{
		RequestTimeout: time.Duration(cfg.API.RequestTimeoutSeconds) * time.Second,
		RefreshTimeout: time.Duration(cfg.Refresh.TimeoutSeconds) * time.Second,
		RefreshToken:   cfg.API.RefreshToken,
		RefreshLimiter: limiter,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:         logger.Named("http"),
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// - Serve until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api service listening", zap.String("addr", srv.Addr), zap.Int("symbols", len(roster)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down api service")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
