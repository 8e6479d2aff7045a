package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"regportal/internal/config"
	"regportal/internal/logging"
	"regportal/internal/notify"
	"regportal/internal/queue"
	"regportal/internal/store"
)

// Worker drains the Redis registration queue and delivers notifications.
func main() {
	cfg, err := config.LoadNoAuth()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if !cfg.NotifyEnabled {
		logger.Warn("worker.notifications_disabled")
		return
	}
	if cfg.QueueBackend != config.BackendRedis {
		log.Fatalf("worker needs QUEUE_BACKEND=redis (got %q); the memory queue is drained by the api process", cfg.QueueBackend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()
	if !rdb.Healthy(ctx) {
		logger.Warn("redis.unreachable", slog.String("addr", cfg.RedisAddr))
	}

	d := &notify.Dispatcher{
		Queue:  queue.NewRedisQueue(rdb.Client, cfg.QueueKey, logger),
		Sender: notify.New(cfg.NotifyWebhookURL, cfg.NotifySkip),
		Logger: logger,
	}

	logger.Info("worker.started", slog.String("queue", cfg.QueueKey), slog.Bool("skip", cfg.NotifySkip))
	if err := d.Run(ctx); err != nil {
		log.Fatalf("worker: %v", err)
	}
	logger.Info("worker.stopped")
}
