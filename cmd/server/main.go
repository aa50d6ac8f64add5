package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"importledger/backend/internal/cache"
	"importledger/backend/internal/config"
	"importledger/backend/internal/httpapi"
	"importledger/backend/internal/logger"
	"importledger/backend/internal/service"
	"importledger/backend/internal/store"
	"importledger/backend/internal/store/memory"
	pgstore "importledger/backend/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	appLog, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.LogFormat(), Output: cfg.Log.Output})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		appLog.Fatal("invalid security configuration", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			appLog.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		if cfg.MigrateOnStart {
			if err := pg.Migrate(ctx, appLog.Named("migrate")); err != nil {
				appLog.Fatal("schema migration failed", zap.Error(err))
			}
		}
		repo = pg
		closers = append(closers, pg.Close)
		appLog.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded(cfg.DemoCompanyID)
		appLog.Info("repository: in-memory", zap.String("demo_company_id", cfg.DemoCompanyID))
	}

	idempotency := cache.IdempotencyStore(cache.NewMemoryIdempotencyStore())
	if cfg.RedisAddr != "" {
		redisStore := cache.NewRedisIdempotencyStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisStore.Ping(ctx); err != nil {
			appLog.Warn("redis unavailable, using in-memory idempotency keys", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = redisStore.Close()
		} else {
			idempotency = redisStore
			closers = append(closers, redisStore.Close)
			appLog.Info("idempotency: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		appLog.Info("idempotency: in-memory")
	}

	svc := service.New(repo, idempotency, appLog.Named("service"), cfg.IdempotencyTTL)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AuthIssuer, cfg.OverridePIN)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, appLog.Named("http"))

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		appLog.Info("import ledger backend listening", zap.String("addr", cfg.Address()), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			appLog.Error("close error", zap.Error(err))
		}
	}

	appLog.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.OverridePIN) < 6 {
		return fmt.Errorf("OVERRIDE_PIN must be set and at least 6 digits")
	}
	if err := validatePINStrength(cfg.OverridePIN); err != nil {
		return fmt.Errorf("OVERRIDE_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects PINs that are all the same digit, sequential
// (ascending or descending), or on a known-weak list.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"123456": true, "654321": true, "000000": true, "121212": true,
		"112233": true, "123123": true, "696969": true, "159753": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
