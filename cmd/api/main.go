package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docverify/internal/auth"
	"docverify/internal/config"
	"docverify/internal/httpserver"
	"docverify/internal/logger"
	"docverify/internal/ratelimit"
	"docverify/internal/services"
	"docverify/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := store.Open(openCtx, cfg, lg)
	cancel()
	if err != nil {
		lg.Fatalw("store open failed", "driver", cfg.StoreDriver, "error", err)
	}
	defer st.Close(context.Background())

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	svc := services.New(st, tokens, lg)
	seedDefaultAdmin(ctx, cfg, svc, lg)

	opts := httpserver.Options{Tokens: tokens, CookieSecure: cfg.CookieSecure}
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			lg.Fatalw("redis connect failed", "error", err)
		}
		defer closeRedis(rdb, lg)
		limiter := ratelimit.New(rdb, "docverify:auth", cfg.AuthRateLimit, cfg.AuthRateWindow, lg)
		if err := limiter.TrustProxies(cfg.TrustedProxies); err != nil {
			lg.Fatalw("invalid TRUSTED_PROXIES", "error", err)
		}
		opts.Limiter = limiter
		lg.Infow("auth rate limiting enabled", "limit", cfg.AuthRateLimit, "window", cfg.AuthRateWindow)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpserver.NewRouter(svc, opts, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Warnw("shutdown", "error", err)
		}
	}()

	lg.Infow("listening", "port", cfg.HTTPPort, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatalw("server failed", "error", err)
	}
	lg.Infow("stopped")
}

func seedDefaultAdmin(ctx context.Context, cfg *config.Config, svc *services.Services, lg *zap.SugaredLogger) {
	if cfg.SeedAdminEmail == "" {
		return
	}
	if err := svc.Accounts.SeedAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.SeedAdminName); err != nil {
		lg.Errorw("seed admin failed", "email", cfg.SeedAdminEmail, "error", err)
	}
}

func closeRedis(rdb *redis.Client, lg *zap.SugaredLogger) {
	if err := rdb.Close(); err != nil {
		lg.Warnw("redis close", "error", err)
	}
}
