package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/karobar-erp/karobar-erp/internal/accounts"
	"github.com/karobar-erp/karobar-erp/internal/app"
	"github.com/karobar-erp/karobar-erp/internal/auth"
	"github.com/karobar-erp/karobar-erp/internal/billing"
	"github.com/karobar-erp/karobar-erp/internal/masterdata"
	"github.com/karobar-erp/karobar-erp/internal/masterdata/lookups"
	"github.com/karobar-erp/karobar-erp/internal/observability"
	"github.com/karobar-erp/karobar-erp/internal/platform/db"
	"github.com/karobar-erp/karobar-erp/internal/purchasing"
	"github.com/karobar-erp/karobar-erp/internal/stock"
	"github.com/karobar-erp/karobar-erp/internal/users"
	"github.com/karobar-erp/karobar-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := auth.NewService(auth.NewRepository(pool), tokens)
	authMW := auth.Middleware{Tokens: tokens, Logger: logger}

	stockSvc := stock.NewService(stock.NewRepository(pool))
	billingSvc := billing.NewService(billing.NewRepository(pool), logger)
	purchasingSvc := purchasing.NewService(purchasing.NewRepository(pool), stockSvc, logger)
	accountsSvc := accounts.NewService(accounts.NewRepository(pool), redisClient, cfg.AccountsCacheTTL, logger)
	usersSvc := users.NewService(users.NewRepository(pool))

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthMiddleware:    authMW,
		AuthHandler:       auth.NewHandler(logger, authSvc),
		BillingHandler:    billing.NewHandler(logger, billingSvc, authMW),
		PurchasingHandler: purchasing.NewHandler(logger, purchasingSvc, authMW),
		StockHandler:      stock.NewHandler(logger, stockSvc, authMW),
		AccountsHandler:   accounts.NewHandler(logger, accountsSvc, authMW, jobsClient),
		UsersHandler:      users.NewHandler(logger, usersSvc, authMW),
		MasterDataHandler: masterdata.NewHandler(logger, masterdata.NewRepository(pool), authMW),
		LookupsHandler:    lookups.NewHandler(logger, lookups.NewRepository(pool), authMW),
		Metrics:           metrics,
		Pool:              pool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
