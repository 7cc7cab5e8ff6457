package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_booking/internal/authz"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service/ports"
)

// CreateBookingRequest параметры создания бронирования
type CreateBookingRequest struct {
	InstructorID  int64
	StudentID     int64
	Date          time.Time
	StartSlot     int
	Duration      int
	PaymentMethod model.PaymentMethod
	AmountCents   int // для внешней оплаты
}

// BookingService оркестрирует жизненный цикл бронирования: каждая операция
// выполняется как одна атомарная единица, охватывающая запись события и
// парную запись кредитного леджера. Методы *In работают в транзакции
// вызывающего и сами её не коммитят.
type BookingService struct {
	uow      ports.UnitOfWork
	repos    ports.Repos
	engine   *authz.Engine
	ledger   *CreditLedger
	payment  ports.Payment      // может быть nil
	feed     ports.CalendarFeed // может быть nil
	notifier ports.Notifier     // может быть nil
	logger   *zap.Logger

	// Now переопределяется в тестах
	Now func() time.Time
}

func NewBookingService(
	uow ports.UnitOfWork,
	repos ports.Repos,
	engine *authz.Engine,
	ledger *CreditLedger,
	payment ports.Payment,
	feed ports.CalendarFeed,
	notifier ports.Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		uow:      uow,
		repos:    repos,
		engine:   engine,
		ledger:   ledger,
		payment:  payment,
		feed:     feed,
		notifier: notifier,
		logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create бронирует занятие в собственной транзакции
func (s *BookingService) Create(ctx context.Context, actor *model.Actor, req CreateBookingRequest) (*model.BookingEvent, error) {
	var event *model.BookingEvent
	err := s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		created, err := s.CreateIn(ctx, r, actor, req)
		if err != nil {
			return err
		}
		event = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.Int64("event_id", event.ID),
		zap.Int64("instructor_id", event.InstructorID),
		zap.Int64("student_id", req.StudentID),
		zap.String("start", model.SlotToTime(event.StartSlot)),
		zap.String("payment_method", string(event.PaymentMethod)),
	)
	s.notify(ctx, event, s.notifyCreated)

	return event, nil
}

// CreateIn бронирует занятие в транзакции вызывающего
func (s *BookingService) CreateIn(ctx context.Context, r ports.Repos, actor *model.Actor, req CreateBookingRequest) (*model.BookingEvent, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	if !s.engine.Can(actor, authz.ActionCreate, authz.SubjectBooking, nil) {
		return nil, model.ErrPermissionDenied
	}
	// студент бронирует только на себя: чужие кредиты ему недоступны
	if actor.Role == model.RoleStudent && actor.ID != req.StudentID {
		return nil, fmt.Errorf("booking for another student: %w", model.ErrPermissionDenied)
	}

	candidate := model.SlotRange{StartSlot: req.StartSlot, Duration: req.Duration}
	if err := checkAvailability(ctx, r, s.feed, req.InstructorID, req.Date, candidate, 0); err != nil {
		return nil, err
	}

	event := &model.BookingEvent{
		InstructorID:  req.InstructorID,
		StudentID:     &req.StudentID,
		Date:          req.Date,
		StartSlot:     req.StartSlot,
		Duration:      req.Duration,
		Status:        model.EventStatusBooked,
		PaymentMethod: req.PaymentMethod,
	}

	if req.PaymentMethod == model.PaymentMethodExternal && s.payment != nil {
		ref, err := s.payment.Authorize(ctx, req.AmountCents, string(req.PaymentMethod))
		if err != nil {
			return nil, fmt.Errorf("authorize payment: %w", err)
		}
		event.PaymentRef = ref
	}

	if err := r.Events().Create(ctx, event); err != nil {
		return nil, err
	}

	if req.PaymentMethod == model.PaymentMethodCredits {
		durationMinutes := req.Duration * model.SlotMinutes
		if err := s.ledger.ConsumeIn(ctx, r, req.StudentID, event.ID, durationMinutes); err != nil {
			return nil, err
		}
	}

	return event, nil
}

// Reschedule переносит бронирование на новые дату и слот в собственной
// транзакции. Длительность остаётся прежней и из нового диапазона никогда
// не выводится.
func (s *BookingService) Reschedule(ctx context.Context, actor *model.Actor, eventID int64, newDate time.Time, newStartSlot int) (*model.BookingEvent, error) {
	var event *model.BookingEvent
	err := s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		moved, err := s.RescheduleIn(ctx, r, actor, eventID, newDate, newStartSlot)
		if err != nil {
			return err
		}
		event = moved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking rescheduled",
		zap.Int64("event_id", event.ID),
		zap.Time("date", event.Date),
		zap.String("start", model.SlotToTime(event.StartSlot)),
	)
	s.notify(ctx, event, s.notifyRescheduled)

	return event, nil
}

// RescheduleIn переносит бронирование в транзакции вызывающего
func (s *BookingService) RescheduleIn(ctx context.Context, r ports.Repos, actor *model.Actor, eventID int64, newDate time.Time, newStartSlot int) (*model.BookingEvent, error) {
	event, err := r.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("booking %d: %w", eventID, model.ErrNotFound)
	}

	if err := s.engine.CanBookingAction(actor, event, authz.ActionUpdate, s.Now()); err != nil {
		return nil, err
	}

	candidate := model.SlotRange{StartSlot: newStartSlot, Duration: event.Duration}
	if err := checkAvailability(ctx, r, s.feed, event.InstructorID, newDate, candidate, event.ID); err != nil {
		return nil, err
	}

	if err := r.Events().UpdateSchedule(ctx, eventID, newDate, newStartSlot); err != nil {
		return nil, err
	}

	event.Date = newDate
	event.StartSlot = newStartSlot
	return event, nil
}

// Cancel отменяет бронирование в собственной транзакции и возвращает кредит,
// если занятие было оплачено кредитами
func (s *BookingService) Cancel(ctx context.Context, actor *model.Actor, eventID int64) error {
	var event *model.BookingEvent
	err := s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		cancelled, err := s.CancelIn(ctx, r, actor, eventID)
		if err != nil {
			return err
		}
		event = cancelled
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("event_id", event.ID),
		zap.Int64("actor_id", actor.ID),
	)
	s.notify(ctx, event, s.notifyCancelled)

	return nil
}

// CancelIn отменяет бронирование в транзакции вызывающего
func (s *BookingService) CancelIn(ctx context.Context, r ports.Repos, actor *model.Actor, eventID int64) (*model.BookingEvent, error) {
	event, err := r.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("booking %d: %w", eventID, model.ErrNotFound)
	}

	if err := s.engine.CanBookingAction(actor, event, authz.ActionCancel, s.Now()); err != nil {
		return nil, err
	}

	if err := r.Events().CancelBooked(ctx, eventID); err != nil {
		return nil, err
	}

	if event.PaymentMethod == model.PaymentMethodCredits {
		if err := s.ledger.RefundIn(ctx, r, eventID); err != nil {
			return nil, err
		}
	}

	event.Status = model.EventStatusCancelled
	return event, nil
}

// Block ставит блокировку календаря преподавателя: событие без студента и
// без кредитной привязки. Блокировка не обязана попадать в окна доступности,
// но не может пересекать существующие занятые диапазоны.
func (s *BookingService) Block(ctx context.Context, actor *model.Actor, instructorID int64, date time.Time, blockRange model.SlotRange) (*model.BookingEvent, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	if !s.engine.Can(actor, authz.ActionManage, authz.SubjectAvailability, instructorSubject(instructorID)) {
		return nil, model.ErrPermissionDenied
	}
	if err := model.ValidateRange(blockRange.StartSlot, blockRange.Duration); err != nil {
		return nil, err
	}

	event := &model.BookingEvent{
		InstructorID: instructorID,
		Date:         date,
		StartSlot:    blockRange.StartSlot,
		Duration:     blockRange.Duration,
		Status:       model.EventStatusBlocked,
	}

	err := s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		busy, err := busyRanges(ctx, r, s.feed, instructorID, date, 0)
		if err != nil {
			return err
		}
		if _, conflict := model.FindConflict(blockRange, busy); conflict {
			return fmt.Errorf("block overlaps existing event: %w", model.ErrSlotUnavailable)
		}
		return r.Events().Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Calendar blocked",
		zap.Int64("instructor_id", instructorID),
		zap.String("start", model.SlotToTime(blockRange.StartSlot)),
		zap.Int("duration", blockRange.Duration),
	)

	return event, nil
}

// Unblock снимает блокировку календаря преподавателя. Обычный Cancel
// блокировки не касается: он работает только с booked занятиями.
func (s *BookingService) Unblock(ctx context.Context, actor *model.Actor, eventID int64) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}

	err := s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		event, err := r.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return fmt.Errorf("block %d: %w", eventID, model.ErrNotFound)
		}
		if event.Status != model.EventStatusBlocked {
			return fmt.Errorf("event %d is not a block: %w", eventID, model.ErrPermissionDenied)
		}
		if !s.engine.Can(actor, authz.ActionManage, authz.SubjectAvailability, event) {
			return model.ErrPermissionDenied
		}
		return r.Events().Unblock(ctx, eventID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Calendar block removed",
		zap.Int64("event_id", eventID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// Subscribe создаёт правило регулярного занятия, привязанное к подписке
func (s *BookingService) Subscribe(ctx context.Context, actor *model.Actor, rule *model.RecurringBookingRule) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if !s.engine.Can(actor, authz.ActionCreate, authz.SubjectBooking, nil) {
		return model.ErrPermissionDenied
	}
	if actor.Role == model.RoleStudent && actor.ID != rule.StudentID {
		return fmt.Errorf("subscription for another student: %w", model.ErrPermissionDenied)
	}
	if err := model.ValidateRange(rule.StartSlot, rule.Duration); err != nil {
		return err
	}
	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return fmt.Errorf("day of week %d: %w", rule.DayOfWeek, model.ErrInvalidRange)
	}
	if rule.SubscriptionID == uuid.Nil {
		rule.SubscriptionID = uuid.New()
	}
	rule.IsActive = true

	return s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Recurring().Create(ctx, rule)
	})
}

// Unsubscribe деактивирует правило подписки. Уже материализованные события
// остаются и отменяются обычным Cancel.
func (s *BookingService) Unsubscribe(ctx context.Context, actor *model.Actor, subscriptionID uuid.UUID) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}

	return s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		rule, err := r.Recurring().GetBySubscriptionID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if rule == nil {
			return fmt.Errorf("subscription %s: %w", subscriptionID, model.ErrNotFound)
		}
		if !s.engine.Can(actor, authz.ActionCancel, authz.SubjectSubscription, rule) {
			return model.ErrPermissionDenied
		}
		return r.Recurring().DeactivateBySubscription(ctx, subscriptionID)
	})
}

// MaterializeRecurring генерирует события из активных правил регулярных
// занятий на weeksAhead недель вперёд. Каждое событие создаётся в отдельной
// транзакции; проигранная гонка или уже существующее вхождение пропускаются.
func (s *BookingService) MaterializeRecurring(ctx context.Context, weeksAhead int) error {
	today := s.Now().Truncate(24 * time.Hour)

	var created, skipped int
	for day := 0; day < weeksAhead*7; day++ {
		date := today.AddDate(0, 0, day)

		rules, err := s.repos.Recurring().GetActiveByWeekday(ctx, int(date.Weekday()))
		if err != nil {
			return fmt.Errorf("get recurring rules: %w", err)
		}

		for _, rule := range rules {
			ruleID := rule.ID
			studentID := rule.StudentID
			event := &model.BookingEvent{
				InstructorID:    rule.InstructorID,
				StudentID:       &studentID,
				Date:            date,
				StartSlot:       rule.StartSlot,
				Duration:        rule.Duration,
				Status:          model.EventStatusBooked,
				PaymentMethod:   model.PaymentMethodExternal,
				RecurringRuleID: &ruleID,
			}

			err := s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
				return r.Events().Create(ctx, event)
			})
			if errors.Is(err, model.ErrConflict) {
				skipped++
				continue
			}
			if err != nil {
				return fmt.Errorf("materialize rule %d: %w", rule.ID, err)
			}
			created++
		}
	}

	s.logger.Info("Recurring bookings materialized",
		zap.Int("weeks_ahead", weeksAhead),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
	)

	return nil
}

// notify отправляет уведомление после коммита, не блокируя вызывающего.
// Ошибки доставки никогда не влияют на результат операции.
func (s *BookingService) notify(ctx context.Context, event *model.BookingEvent, fn func(ctx context.Context, event *model.BookingEvent)) {
	if s.notifier == nil {
		return
	}
	go fn(context.WithoutCancel(ctx), event)
}

func (s *BookingService) notifyCreated(ctx context.Context, event *model.BookingEvent) {
	s.notifier.NotifyBookingCreated(ctx, event)
}

func (s *BookingService) notifyRescheduled(ctx context.Context, event *model.BookingEvent) {
	s.notifier.NotifyBookingRescheduled(ctx, event)
}

func (s *BookingService) notifyCancelled(ctx context.Context, event *model.BookingEvent) {
	s.notifier.NotifyBookingCancelled(ctx, event)
}
