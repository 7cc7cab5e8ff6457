package ports

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// CalendarFeed read-only лента занятых диапазонов из внешнего календаря
// преподавателя. Для проверки доступности это просто дополнительные
// существующие диапазоны.
type CalendarFeed interface {
	BlockedRanges(ctx context.Context, instructorID int64, date time.Time) ([]model.SlotRange, error)
}
