package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/order-system/config"
	"github.com/d60-Lab/order-system/internal/notify"
	"github.com/d60-Lab/order-system/internal/queue"
	"github.com/d60-Lab/order-system/internal/repository"
	"github.com/d60-Lab/order-system/pkg/database"
	"github.com/d60-Lab/order-system/pkg/logger"
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

	db := must(database.InitDB(cfg))
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	notifier := notify.NewNotifier(orderRepo, customerRepo,
		notify.NewSMSClient(cfg.Notify), notify.NewSMTPMailer(cfg.Notify), cfg.Notify.AdminEmail)

	worker := queue.NewWorker(queue.New(rdb), cfg.Notify.Workers, cfg.Notify.MaxRetries, cfg.Notify.BackoffBase)
	notifier.Register(worker)
	stop := worker.Start()
	logger.Info("notification worker started",
		zap.Int("workers", cfg.Notify.Workers),
		zap.Int("max_retries", cfg.Notify.MaxRetries))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	logger.Info("worker shutting down")
	_ = stop(context.Background())
}
