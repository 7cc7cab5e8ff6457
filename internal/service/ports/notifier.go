package ports

import (
	"context"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// Notifier доставка уведомлений, fire-and-forget после коммита.
// Ошибки доставки логируются и никогда не откатывают бронирование.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, event *model.BookingEvent)
	NotifyBookingRescheduled(ctx context.Context, event *model.BookingEvent)
	NotifyBookingCancelled(ctx context.Context, event *model.BookingEvent)
}
