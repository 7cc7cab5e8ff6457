package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/authz"
	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/Freeeeeet/lesson_booking/internal/notification"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/Freeeeeet/lesson_booking/internal/service/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	migrator.Close()

	var notifier ports.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = notification.NewTelegramNotifier(cfg.TelegramToken, cfg.NotifyChatID, logger)
		if err != nil {
			logger.Fatal("Failed to create notifier", zap.Error(err))
		}
	}

	repos := repository.NewRepos(pool)
	txManager := repository.NewTxManager(pool)
	engine := authz.NewEngine()

	ledger := service.NewCreditLedger(repos, txManager, cfg.MaxCreditIssue, logger)
	bookings := service.NewBookingService(txManager, repos, engine, ledger, nil, nil, notifier, logger)

	materializer := app.NewMaterializer(bookings, cfg.MaterializeWeeks, logger)
	materializer.Start(ctx)
	defer materializer.Stop()

	logger.Info("Booking engine started", zap.String("environment", cfg.Environment))

	<-ctx.Done()
	logger.Info("Shutting down")
}
