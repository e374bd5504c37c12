package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/vantageav/ledrental-backend/api/routes"
	"github.com/vantageav/ledrental-backend/internal/availability"
	"github.com/vantageav/ledrental-backend/internal/equipment"
	"github.com/vantageav/ledrental-backend/internal/maintenance"
	"github.com/vantageav/ledrental-backend/internal/orders"
	"github.com/vantageav/ledrental-backend/internal/screens"
	"github.com/vantageav/ledrental-backend/pkg/config"
	"github.com/vantageav/ledrental-backend/pkg/db"
	"github.com/vantageav/ledrental-backend/pkg/logger"
	"github.com/vantageav/ledrental-backend/pkg/migrate"
	"github.com/vantageav/ledrental-backend/pkg/outbox"
	"github.com/vantageav/ledrental-backend/pkg/redis"
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

	screensSvc, err := screens.NewService(screens.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create screens service", err)
		os.Exit(1)
	}
	maintenanceSvc, err := maintenance.NewService(maintenance.NewRepository(dbClient.DB()), screensSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}
	equipmentSvc, err := equipment.NewService(equipment.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create equipment service", err)
		os.Exit(1)
	}
	outboxSvc, err := outbox.NewService(outbox.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(dbClient, orders.NewRepository(dbClient.DB()), screensSvc, equipmentSvc, outboxSvc, cfg.Reservation, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	availabilitySvc, err := availability.NewService(screensSvc, equipmentSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			screensSvc, maintenanceSvc, equipmentSvc, ordersSvc, availabilitySvc,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
