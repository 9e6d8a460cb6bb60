package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jrivera-dev/platefleet-backend/api/routes"
	"github.com/jrivera-dev/platefleet-backend/internal/broadcast"
	"github.com/jrivera-dev/platefleet-backend/internal/catalog"
	"github.com/jrivera-dev/platefleet-backend/internal/checkout"
	"github.com/jrivera-dev/platefleet-backend/internal/dispatch"
	"github.com/jrivera-dev/platefleet-backend/internal/orders"
	"github.com/jrivera-dev/platefleet-backend/pkg/config"
	"github.com/jrivera-dev/platefleet-backend/pkg/db"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
	"github.com/jrivera-dev/platefleet-backend/pkg/migrate"
	"github.com/jrivera-dev/platefleet-backend/pkg/outbox"
	"github.com/jrivera-dev/platefleet-backend/pkg/outbox/idempotency"
	"github.com/jrivera-dev/platefleet-backend/pkg/pubsub"
	"github.com/jrivera-dev/platefleet-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	ordersRepo := orders.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	menuReader, err := catalog.NewReader(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create menu reader", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, menuReader, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(dbClient, ordersService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	dispatchService, err := dispatch.NewService(ordersRepo, ordersService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	hub, err := broadcast.NewHub(cfg.Broadcast.SubscriberBuffer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create broadcast hub", err)
		os.Exit(1)
	}
	consumerGuard, err := idempotency.NewManager(redisClient, cfg.Eventing.ConsumerIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumer idempotency manager", err)
		os.Exit(1)
	}
	consumer, err := broadcast.NewConsumer(pubsubClient.OrdersSubscription(), hub, consumerGuard, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create broadcast consumer", err)
		os.Exit(1)
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := consumer.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(consumerCtx, "broadcast consumer stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, checkoutService, ordersService, dispatchService, hub),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
