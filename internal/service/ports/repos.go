package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// AvailabilityRuleRepo хранилище недельных окон доступности
type AvailabilityRuleRepo interface {
	GetByInstructor(ctx context.Context, instructorID int64) ([]*model.WeeklyAvailabilityRule, error)
	ReplaceForInstructor(ctx context.Context, instructorID int64, rules []*model.WeeklyAvailabilityRule) error
}

// EventRepo хранилище событий календаря
type EventRepo interface {
	Create(ctx context.Context, event *model.BookingEvent) error
	GetByID(ctx context.Context, id int64) (*model.BookingEvent, error)
	GetBusyByInstructorAndDate(ctx context.Context, instructorID int64, date time.Time) ([]*model.BookingEvent, error)
	UpdateSchedule(ctx context.Context, id int64, date time.Time, startSlot int) error
	CancelBooked(ctx context.Context, id int64) error
	Unblock(ctx context.Context, id int64) error
}

// RecurringRepo хранилище правил регулярных занятий
type RecurringRepo interface {
	Create(ctx context.Context, rule *model.RecurringBookingRule) error
	GetBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) (*model.RecurringBookingRule, error)
	GetActiveByWeekday(ctx context.Context, weekday int) ([]*model.RecurringBookingRule, error)
	DeactivateBySubscription(ctx context.Context, subscriptionID uuid.UUID) error
}

// CreditRepo хранилище кредитных остатков и записей списаний
type CreditRepo interface {
	Add(ctx context.Context, userID int64, amount, durationMinutes int, expiry *time.Time) error
	ConsumeOne(ctx context.Context, userID int64, durationMinutes int, now time.Time) (bool, error)
	Restore(ctx context.Context, userID int64, durationMinutes int) error
	InsertUsage(ctx context.Context, usage *model.CreditUsageRecord) error
	DeleteUsage(ctx context.Context, eventID int64) (*model.CreditUsageRecord, error)
	GetBalance(ctx context.Context, userID int64, durationMinutes int) (*model.CreditBalance, error)
	GetUsageByEvent(ctx context.Context, eventID int64) (*model.CreditUsageRecord, error)
}

// Repos набор репозиториев, привязанных к одному источнику запросов:
// пулу соединений или открытой транзакции
type Repos interface {
	Rules() AvailabilityRuleRepo
	Events() EventRepo
	Recurring() RecurringRepo
	Credits() CreditRepo
}

// UnitOfWork выполняет fn в одной транзакции: все записи fn либо фиксируются
// вместе, либо вместе откатываются. Ядро никогда не коммитит транзакцию,
// которую не открывало само.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
