package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rashidalbanna/mandoob-backend/api/routes"
	"github.com/rashidalbanna/mandoob-backend/internal/assignments"
	"github.com/rashidalbanna/mandoob-backend/internal/cart"
	"github.com/rashidalbanna/mandoob-backend/internal/cashledger"
	"github.com/rashidalbanna/mandoob-backend/internal/catalog"
	"github.com/rashidalbanna/mandoob-backend/internal/checkout"
	"github.com/rashidalbanna/mandoob-backend/internal/customers"
	"github.com/rashidalbanna/mandoob-backend/internal/inventory"
	"github.com/rashidalbanna/mandoob-backend/internal/orders"
	"github.com/rashidalbanna/mandoob-backend/internal/settings"
	"github.com/rashidalbanna/mandoob-backend/pkg/config"
	"github.com/rashidalbanna/mandoob-backend/pkg/db"
	"github.com/rashidalbanna/mandoob-backend/pkg/logger"
	"github.com/rashidalbanna/mandoob-backend/pkg/metrics"
	"github.com/rashidalbanna/mandoob-backend/pkg/migrate"
	"github.com/rashidalbanna/mandoob-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	assignmentsRepo := assignments.NewRepository(gormDB)
	cashRepo := cashledger.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	customersRepo := customers.NewRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)

	settingsService, err := settings.NewService(settingsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo, customersRepo, settingsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	cashService, err := cashledger.NewService(cashRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cash ledger service", err)
		os.Exit(1)
	}

	assignmentsService, err := assignments.NewService(assignmentsRepo, dbClient, ordersRepo, ordersService, cashService)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		cartRepo,
		ordersRepo,
		customersRepo,
		catalogRepo,
		inventory.NewGuard(),
		cfg.Checkout.OrderCodeAttempts,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			cartService,
			checkoutService,
			ordersService,
			assignmentsService,
			cashService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
