package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/d60-Lab/order-system/config"
	"github.com/d60-Lab/order-system/internal/api"
	"github.com/d60-Lab/order-system/internal/api/handler"
	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/notify"
	"github.com/d60-Lab/order-system/internal/queue"
	"github.com/d60-Lab/order-system/internal/repository"
	"github.com/d60-Lab/order-system/internal/service"
	"github.com/d60-Lab/order-system/pkg/database"
	"github.com/d60-Lab/order-system/pkg/logger"
	"github.com/d60-Lab/order-system/pkg/telemetry"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			panic(err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := must(telemetry.Init(ctx, cfg.Telemetry))
	defer shutdownTracing(context.Background())

	db := must(database.InitDB(cfg))
	if err := db.AutoMigrate(
		&model.Customer{}, &model.Category{}, &model.Product{},
		&model.Order{}, &model.OrderItem{},
	); err != nil {
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	categorySvc := service.NewCategoryService(categoryRepo, productRepo, rdb)
	productSvc := service.NewProductService(productRepo, categorySvc, cfg.Server.PageSize)

	taxRate := must(decimal.NewFromString(cfg.Order.TaxRate))
	dispatcher := notify.NewDispatcher(queue.New(rdb))
	orderSvc := service.NewOrderService(db, orderRepo, dispatcher,
		service.OrderConfig{TaxRate: taxRate, MaxItems: cfg.Order.MaxItems}, cfg.Server.PageSize)

	verifier := must(service.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID))
	authSvc := service.NewAuthService(customerRepo, verifier, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	customerSvc := service.NewCustomerService(customerRepo)

	h := handler.New(categorySvc, productSvc, orderSvc, authSvc, customerSvc)
	router := api.SetupRouter(cfg, h, authSvc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
