package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"regportal/internal/auth"
	"regportal/internal/config"
	"regportal/internal/handler"
	"regportal/internal/httpmiddleware"
	"regportal/internal/logging"
	"regportal/internal/metrics"
	"regportal/internal/notify"
	"regportal/internal/queue"
	"regportal/internal/registration"
	"regportal/internal/report"
	"regportal/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg *config.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := store.OpenRegistrations(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer func() { _ = repo.Close() }()
	logger.Info("store.opened", slog.String("backend", cfg.StoreBackend))

	var rdb *store.Redis
	if cfg.NeedsRedis() {
		rdb = store.NewRedis(cfg.RedisAddr)
		defer func() { _ = rdb.Close() }()
		if !rdb.Healthy(ctx) {
			logger.Warn("redis.unreachable", slog.String("addr", cfg.RedisAddr))
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var revoker auth.Revoker = auth.NewMemoryRevoker(time.Minute)
	if cfg.SessionBackend == config.BackendRedis {
		revoker = auth.NewRedisRevoker(rdb.Client, "")
	}

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitPerMin > 0 {
		if cfg.RateLimitBackend == config.BackendRedis {
			limiter = httpmiddleware.NewRedisWindow(rdb.Client, cfg.RateLimitPerMin, "")
		} else {
			limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		}
	}

	var q queue.Queue
	if cfg.NotifyEnabled {
		if cfg.QueueBackend == config.BackendRedis {
			q = queue.NewRedisQueue(rdb.Client, cfg.QueueKey, logger)
			logger.Info("notify.redis_queue", slog.String("key", cfg.QueueKey))
		} else {
			mem := queue.NewInMemory(256)
			q = mem
			d := &notify.Dispatcher{
				Queue:   mem,
				Sender:  notify.New(cfg.NotifyWebhookURL, cfg.NotifySkip),
				Logger:  logger,
				Results: m.Notifications,
			}
			go func() {
				if err := d.Run(ctx); err != nil {
					logger.Error("notify.dispatcher_failed", slog.String("error", err.Error()))
				}
			}()
		}
	}

	router := handler.NewRouter(handler.Deps{
		Logger:   logger,
		Service:  registration.NewService(repo),
		Sessions: &auth.Sessions{
			Key:     cfg.SessionSecret,
			Issuer:  cfg.SessionIssuer,
			TTL:     cfg.SessionTTL,
			Revoker: revoker,
			Secure:  cfg.IsProduction(),
		},
		Credentials:    auth.Credentials{ID: cfg.AdminID, Password: cfg.AdminPassword},
		Charts:         report.NewChartRenderer(cfg.ChartCacheTTL),
		Limiter:        limiter,
		Queue:          q,
		Redis:          rdb,
		Metrics:        m,
		Origins:        cfg.Origins(),
		// The rate limiter keys on ClientIP, so only configured proxies may set it.
		TrustedProxies: cfg.Proxies(),
		Production:     cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http.listening", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("http.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http.forced_shutdown", slog.String("error", err.Error()))
	}

	logger.Info("http.stopped")
	return nil
}
