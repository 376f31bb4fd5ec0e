package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stocktally/stocktally/internal/app"
	"github.com/stocktally/stocktally/internal/catalog"
	"github.com/stocktally/stocktally/internal/masterdata/couriers"
	"github.com/stocktally/stocktally/internal/masterdata/customers"
	"github.com/stocktally/stocktally/internal/masterdata/mediums"
	"github.com/stocktally/stocktally/internal/masterdata/suppliers"
	"github.com/stocktally/stocktally/internal/platform/cache"
	"github.com/stocktally/stocktally/internal/platform/db"
	"github.com/stocktally/stocktally/internal/purchases"
	"github.com/stocktally/stocktally/internal/reports"
	"github.com/stocktally/stocktally/internal/sales"
	"github.com/stocktally/stocktally/internal/shared"
	"github.com/stocktally/stocktally/internal/units"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis only backs the counters cache; start degraded when unreachable.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, counters cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	unitStore := units.NewStore()

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, auditLogger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	purchasesRepo := purchases.NewRepository(pool, unitStore)
	purchasesService := purchases.NewService(purchasesRepo, auditLogger)
	purchasesHandler := purchases.NewHandler(logger, purchasesService)

	salesRepo := sales.NewRepository(pool, unitStore)
	salesService := sales.NewService(salesRepo, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, redisClient, cfg.TotalsCacheTTL)
	reportsHandler := reports.NewHandler(logger, reportsService)

	suppliersHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliers.NewRepository(pool)))
	customersHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(pool)))
	couriersHandler := couriers.NewHandler(logger, couriers.NewService(couriers.NewRepository(pool)))
	mediumsHandler := mediums.NewHandler(logger, mediums.NewService(mediums.NewRepository(pool)))

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalogHandler,
		PurchasesHandler: purchasesHandler,
		SalesHandler:     salesHandler,
		ReportsHandler:   reportsHandler,
		SuppliersHandler: suppliersHandler,
		CustomersHandler: customersHandler,
		CouriersHandler:  couriersHandler,
		MediumsHandler:   mediumsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
