package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ChatResolver отображает внутренний id пользователя на telegram chat id.
// Таблица пользователей принадлежит внешнему слою, поэтому движок
// получает отображение как зависимость.
type ChatResolver interface {
	ChatID(ctx context.Context, userID int64) (int64, error)
}

// TelegramNotifier доставляет уведомления через Telegram.
// Отправка ретраится с фибоначчи-бэкоффом; после исчерпания попыток
// ошибка возвращается вызывающему для логирования.
type TelegramNotifier struct {
	bot      *bot.Bot
	resolver ChatResolver
	logger   *zap.Logger
}

func NewTelegramNotifier(b *bot.Bot, resolver ChatResolver, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:      b,
		resolver: resolver,
		logger:   logger,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, userID int64, message string) error {
	chatID, err := n.resolver.ChatID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve chat id: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   message,
		})
		if err != nil {
			n.logger.Debug("Notification send attempt failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}

	return nil
}
