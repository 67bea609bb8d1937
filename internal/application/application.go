package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"dealvoy/internal/config"
	"dealvoy/internal/domain/entity"
	"dealvoy/internal/domain/service/dispatch"
	"dealvoy/internal/domain/service/orchestrator"
	"dealvoy/internal/domain/service/scraper"
	"dealvoy/internal/infrastructure/dedupe"
	"dealvoy/internal/infrastructure/notifier"
	"dealvoy/internal/infrastructure/persistence"
	"dealvoy/internal/infrastructure/queue"
	"dealvoy/internal/infrastructure/sources"
	"dealvoy/internal/server"
	"dealvoy/internal/worker"
	"dealvoy/pkg/application/connectors"
	"dealvoy/pkg/application/modules"
	"dealvoy/pkg/logx"
	"dealvoy/pkg/middlewarex"
)

const (
	appName    = "dealvoy"
	appVersion = "1.0.0"

	opportunityBuffer = 100
)

func Run(ctx context.Context) error { //nolint:funlen
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db.Ping: %w", err)
	}

	webhookRepo := persistence.NewWebhookRepository(db)
	deliveryLogRepo := persistence.NewDeliveryLogRepository(db)
	priceHistoryRepo := persistence.NewPriceHistoryRepository(db)

	registry := scraper.NewRegistry()

	retailers, err := sources.RegisterRetailers(ctx, registry, priceHistoryRepo, cfg.Arbitrage.MinROI)
	if err != nil {
		return fmt.Errorf("sources.RegisterRetailers: %w", err)
	}

	logger(ctx).Info("price sources registered", "retailers", retailers)

	dispatcher := dispatch.NewDispatcher(deliveryLogRepo)

	deliveryWorker := worker.NewDeliveryWorker(deliveryLogRepo, webhookRepo).
		WithSweepInterval(cfg.Delivery.SweepInterval).
		WithClaimLimit(cfg.Delivery.BatchSize).
		WithMaxAttempts(cfg.Delivery.MaxAttempts).
		WithBackoffBase(cfg.Delivery.BackoffBase).
		WithCallTimeout(cfg.Delivery.CallTimeout)

	var redisConn *connectors.Redis

	if cfg.Redis.Enabled() {
		redisConn = &connectors.Redis{
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			Address:            cfg.Redis.Address,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}
		defer redisConn.Close(ctx)

		deduper := dedupe.NewRedisDeduper(redisConn.Client(ctx), cfg.Redis.DedupeBucket)

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DatabaseNumber,
		})
		defer asynqClient.Close()

		dispatcher = dispatcher.
			WithDeduper(deduper).
			WithEnqueuer(queue.NewAsynqEnqueuer(asynqClient))
	}

	priceOrchestrator := orchestrator.NewOrchestrator(registry, dispatcher, cfg.Arbitrage.MinROI).
		WithMaxInFlight(cfg.Arbitrage.MaxInFlight).
		WithSourceTimeout(cfg.Arbitrage.SourceTimeout).
		WithBatchDeadline(cfg.Arbitrage.BatchDeadline).
		WithSkipCache(cfg.Arbitrage.SkipCacheTTL)

	scout := worker.NewScout(priceOrchestrator, webhookRepo, dispatcher).
		WithScanInterval(cfg.Arbitrage.ScoutInterval).
		WithSources(cfg.Arbitrage.ScoutSources...)

	webhookServer := server.NewWebhookServer(
		priceOrchestrator,
		dispatcher,
		deliveryLogRepo,
		webhookRepo,
		cfg.Arbitrage.MinROI,
	)

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Recovery,
		middlewarex.RequestLogging(logx.NewSensitiveDataMasker(), 0),
		middlewarex.ResponseLogging(logx.NewSensitiveDataMasker(), 0),
	)

	server.NewServer(webhookServer).RegisterRoutes(router)

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	})

	modules.ProbeServer{
		Name:          appName,
		Version:       appVersion,
		ListenAddress: cfg.HTTP.ProbeListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{
		ListenAddress: cfg.HTTP.MetricListenAddress,
	}.Run(ctx, g)

	if cfg.Redis.Enabled() {
		modules.AsynqServer{
			RedisUsername: cfg.Redis.Username,
			RedisPassword: cfg.Redis.Password,
			RedisAddress:  cfg.Redis.Address,
			RedisDB:       cfg.Redis.DatabaseNumber,
		}.Run(ctx, g,
			modules.AsynqQueues{queue.QueueDeliveries: 1},
			queue.DeliveryPumpHandler(deliveryWorker),
		)
	}

	g.Go(func() error {
		if err := deliveryWorker.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("deliveryWorker.Run: %w", err)
		}

		return nil
	})

	if len(cfg.Arbitrage.ScoutSources) > 0 {
		opportunities := make(chan entity.ExportItem, opportunityBuffer)

		if cfg.Bot.Enabled() {
			bot, err := notifier.NewTelegramBot(cfg.Bot.Token, cfg.Bot.ChatID)
			if err != nil {
				return fmt.Errorf("notifier.NewTelegramBot: %w", err)
			}

			scout = scout.WithOpportunityChannel(opportunities)

			g.Go(func() error {
				if err := bot.Run(ctx, opportunities); err != nil && ctx.Err() == nil {
					logger(ctx).Error("notifier bot stopped", logx.Error(err))
				}

				return nil
			})
		}

		g.Go(func() error {
			defer close(opportunities)

			if err := scout.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("scout.Run: %w", err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}
