package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"techzone-storefront/internal/config"
	"techzone-storefront/internal/db"
	"techzone-storefront/internal/logging"
	"techzone-storefront/internal/migrate"
	categoryrepo "techzone-storefront/internal/repository/category"
	productrepo "techzone-storefront/internal/repository/product"
	"techzone-storefront/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	if err := seed.Apply(ctx, categoryrepo.NewPostgres(pool), productrepo.NewPostgres(pool, logger), logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
}
