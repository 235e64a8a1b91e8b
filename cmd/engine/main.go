package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/lesson_scheduler/internal/app"
	"github.com/Freeeeeet/lesson_scheduler/internal/config"
	"github.com/Freeeeeet/lesson_scheduler/internal/notify"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
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
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	scheduleRepo := repository.NewRecurringScheduleRepository(pool, logger)
	sessionRepo := repository.NewSessionRepository(pool, logger)
	locker := base.NewRepository(pool)

	notifier := buildNotifier(cfg, logger)

	scheduling := service.NewSchedulingService(
		scheduleRepo,
		sessionRepo,
		locker,
		service.AllowAllTenants{},
		notifier,
		logger,
	)

	scheduler := app.NewScheduler(scheduling, cfg.ExpandCron, cfg.ExpandDaysAhead, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start background scheduler", zap.Error(err))
	}

	logger.Info("Lesson scheduling engine started",
		zap.String("environment", cfg.Environment),
		zap.Int("expand_days_ahead", cfg.ExpandDaysAhead))

	<-ctx.Done()

	scheduler.Stop()
	logger.Info("Lesson scheduling engine stopped")
}

// buildNotifier собирает канал доставки уведомлений: Telegram при
// наличии токена, иначе заглушка
func buildNotifier(cfg *config.Config, logger *zap.Logger) notify.Notifier {
	if cfg.TelegramToken == "" {
		logger.Info("TELEGRAM_TOKEN is not set, notifications disabled")
		return notify.Noop{}
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Warn("Failed to create telegram bot, notifications disabled", zap.Error(err))
		return notify.Noop{}
	}

	return notify.NewTelegramNotifier(b, identityChatResolver{}, logger)
}

// identityChatResolver трактует внутренний id пользователя как telegram
// chat id. Инсталляции с собственной таблицей пользователей подставляют
// свой резолвер.
type identityChatResolver struct{}

func (identityChatResolver) ChatID(ctx context.Context, userID int64) (int64, error) {
	return userID, nil
}
