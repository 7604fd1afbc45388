package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"techzone-storefront/internal/config"
	"techzone-storefront/internal/db"
	"techzone-storefront/internal/httpserver"
	"techzone-storefront/internal/logging"
	"techzone-storefront/internal/migrate"
	cartitemrepo "techzone-storefront/internal/repository/cartitem"
	categoryrepo "techzone-storefront/internal/repository/category"
	customerrepo "techzone-storefront/internal/repository/customer"
	devicecartrepo "techzone-storefront/internal/repository/devicecart"
	productrepo "techzone-storefront/internal/repository/product"
	tokenrepo "techzone-storefront/internal/repository/token"
	accountsvc "techzone-storefront/internal/service/account"
	anonymoussvc "techzone-storefront/internal/service/anonymous"
	cartsvc "techzone-storefront/internal/service/cart"
	categorysvc "techzone-storefront/internal/service/category"
	customersvc "techzone-storefront/internal/service/customer"
	productsvc "techzone-storefront/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	productService := productsvc.New(productrepo.NewPostgres(dbpool, logger))
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))

	deviceRepo := devicecartrepo.NewPostgres(dbpool)
	sessions := cartsvc.NewSessions(
		func(deviceID string) cartsvc.DeviceStore {
			return cartsvc.NewDeviceStore(deviceRepo, deviceID, cfg.CartWriteTimeout, logger)
		},
		cartitemrepo.NewPostgres(dbpool, logger),
		productService,
		cartsvc.Options{
			Logger: logger,
			Policy: cartsvc.WritePolicy{
				Retries: cfg.CartWriteRetries,
				Timeout: cfg.CartWriteTimeout,
			},
		},
	)

	customerService := customersvc.New(
		customerrepo.NewPostgres(dbpool, logger),
		tokenrepo.NewPostgres(dbpool),
		customersvc.Options{
			Secret:    cfg.JWTSecret,
			AccessTTL: cfg.AccessTTL,
			Listener:  sessions,
			Logger:    logger,
		},
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:  productService,
		CategorySvc: categoryService,
		CustomerSvc: customerService,
		AccountSvc:  accountsvc.New(),
		Carts:       sessions,
		Devices:     anonymoussvc.New(),
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweep(sweepCtx, logger, cfg, sessions, customerService)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := sessions.Close(shutdownCtx); err != nil {
		logger.Error("drain cart writes", zap.Error(err))
	}
	logger.Info("server stopped")
}

// sweep evicts idle cart stores and purges expired tokens until ctx ends.
func sweep(ctx context.Context, logger *zap.Logger, cfg config.Config, sessions *cartsvc.Sessions, customers *customersvc.Service) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		sessions.Evict(ctx, cfg.CartIdleTimeout)
		if n, err := customers.PurgeExpiredTokens(ctx); err != nil {
			logger.Warn("purge expired tokens", zap.Error(err))
		} else if n > 0 {
			logger.Info("purged expired tokens", zap.Int64("count", n))
		}
	}
}
