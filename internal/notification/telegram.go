package notification

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// TelegramNotifier отправляет уведомления о бронированиях в Telegram-чат.
// Вызывается только после коммита; ошибка доставки логируется и не
// возвращается вызывающему.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    b,
		chatID: chatID,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) NotifyBookingCreated(ctx context.Context, event *model.BookingEvent) {
	n.send(ctx, fmt.Sprintf("Новое занятие %s в %s, преподаватель %d",
		event.Date.Format("02.01.2006"), model.SlotToTime(event.StartSlot), event.InstructorID))
}

func (n *TelegramNotifier) NotifyBookingRescheduled(ctx context.Context, event *model.BookingEvent) {
	n.send(ctx, fmt.Sprintf("Занятие перенесено на %s в %s",
		event.Date.Format("02.01.2006"), model.SlotToTime(event.StartSlot)))
}

func (n *TelegramNotifier) NotifyBookingCancelled(ctx context.Context, event *model.BookingEvent) {
	n.send(ctx, fmt.Sprintf("Занятие %s в %s отменено",
		event.Date.Format("02.01.2006"), model.SlotToTime(event.StartSlot)))
}

func (n *TelegramNotifier) send(ctx context.Context, text string) {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		n.logger.Error("Failed to send telegram notification", zap.Error(err))
	}
}
