// Package main запускает HTTP-сервер сервиса фудкорта.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/foodcourt-system/internal/availability"
	"github.com/mmeshcher/foodcourt-system/internal/cart"
	"github.com/mmeshcher/foodcourt-system/internal/config"
	"github.com/mmeshcher/foodcourt-system/internal/handler"
	"github.com/mmeshcher/foodcourt-system/internal/metrics"
	"github.com/mmeshcher/foodcourt-system/internal/middleware"
	"github.com/mmeshcher/foodcourt-system/internal/repository"
	"github.com/mmeshcher/foodcourt-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	redisClient, err := cart.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		sugar.Fatalw("redis initialization error", "error", err.Error())
	}
	carts := cart.NewStore(redisClient)
	defer carts.Close()

	var resync *availability.Client
	if cfg.AvailabilityAddress != "" {
		resync = availability.NewClient(cfg.AvailabilityAddress)
	}

	reg := metrics.NewRegistry()

	var svc *service.Service
	if resync != nil {
		svc = service.NewService(repo, carts, resync, logger, reg)
	} else {
		svc = service.NewService(repo, carts, nil, logger, reg)
	}
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware, reg.Handler())

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск фоновых повторов пересчёта доступности
	g.Go(func() error {
		svc.StartResyncRetries(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting foodcourt server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
