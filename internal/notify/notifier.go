// Package notify отвечает за best-effort доставку человекочитаемых
// уведомлений. Доставка асинхронная и никогда не влияет на исход
// операции, которая её породила.
package notify

import "context"

// Notifier доставляет уведомление пользователю.
// Реализации могут ретраить прозрачно; ошибка доставки логируется
// вызывающим и не поднимается как ошибка движка.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}

// Noop — заглушка для окружений без настроенного канала доставки
type Noop struct{}

func (Noop) Notify(ctx context.Context, userID int64, message string) error {
	return nil
}
