package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service/ports"
)

// CreditLedger машина состояний кредитных остатков. Списание и возврат
// всегда идут в паре с записью события: методы *In работают в транзакции
// вызывающего, методы без суффикса открывают собственную.
type CreditLedger struct {
	repos    ports.Repos
	uow      ports.UnitOfWork
	maxIssue int
	logger   *zap.Logger

	// Now переопределяется в тестах
	Now func() time.Time
}

func NewCreditLedger(repos ports.Repos, uow ports.UnitOfWork, maxIssue int, logger *zap.Logger) *CreditLedger {
	return &CreditLedger{
		repos:    repos,
		uow:      uow,
		maxIssue: maxIssue,
		logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue начисляет пользователю amount кредитов класса durationMinutes.
// Сумма должна быть положительной и не превышать настроенный максимум.
func (l *CreditLedger) Issue(ctx context.Context, userID int64, amount, durationMinutes int, expiry *time.Time) error {
	if amount < 1 || amount > l.maxIssue {
		return fmt.Errorf("issue amount %d: %w", amount, model.ErrInvalidRange)
	}
	if durationMinutes < model.SlotMinutes || durationMinutes%model.SlotMinutes != 0 {
		return fmt.Errorf("duration class %d: %w", durationMinutes, model.ErrInvalidRange)
	}

	if err := l.repos.Credits().Add(ctx, userID, amount, durationMinutes, expiry); err != nil {
		return err
	}

	l.logger.Info("Credits issued",
		zap.Int64("user_id", userID),
		zap.Int("amount", amount),
		zap.Int("duration_minutes", durationMinutes),
	)

	return nil
}

// ConsumeIn списывает один кредит за событие в транзакции вызывающего.
// Декремент атомарный и условный; классы длительности не смешиваются.
func (l *CreditLedger) ConsumeIn(ctx context.Context, r ports.Repos, userID, eventID int64, durationMinutes int) error {
	ok, err := r.Credits().ConsumeOne(ctx, userID, durationMinutes, l.Now())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no usable %d-minute credit for user %d: %w",
			durationMinutes, userID, model.ErrInsufficientCredits)
	}

	usage := &model.CreditUsageRecord{
		UserID:          userID,
		CalendarEventID: eventID,
		DurationMinutes: durationMinutes,
	}
	return r.Credits().InsertUsage(ctx, usage)
}

// Consume списывает кредит в собственной транзакции
func (l *CreditLedger) Consume(ctx context.Context, userID, eventID int64, durationMinutes int) error {
	return l.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		return l.ConsumeIn(ctx, r, userID, eventID, durationMinutes)
	})
}

// RefundIn возвращает кредит за событие в транзакции вызывающего.
// Идемпотентен: повторный refund того же события находит ноль записей
// списания и молча завершается успехом, двойного начисления не бывает.
func (l *CreditLedger) RefundIn(ctx context.Context, r ports.Repos, eventID int64) error {
	usage, err := r.Credits().DeleteUsage(ctx, eventID)
	if err != nil {
		return err
	}
	if usage == nil {
		return nil
	}

	if err := r.Credits().Restore(ctx, usage.UserID, usage.DurationMinutes); err != nil {
		return err
	}

	l.logger.Info("Credit refunded",
		zap.Int64("user_id", usage.UserID),
		zap.Int64("event_id", eventID),
		zap.Int("duration_minutes", usage.DurationMinutes),
	)

	return nil
}

// Refund возвращает кредит в собственной транзакции
func (l *CreditLedger) Refund(ctx context.Context, eventID int64) error {
	return l.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		return l.RefundIn(ctx, r, eventID)
	})
}

// Balance возвращает остаток пользователя в классе длительности
func (l *CreditLedger) Balance(ctx context.Context, userID int64, durationMinutes int) (int, error) {
	balance, err := l.repos.Credits().GetBalance(ctx, userID, durationMinutes)
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return balance.CreditsRemaining, nil
}
