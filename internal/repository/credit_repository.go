package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
)

type CreditRepository struct {
	db base.Querier
}

func NewCreditRepository(db base.Querier) *CreditRepository {
	return &CreditRepository{db: db}
}

// Add добавляет amount кредитов в корзину пользователя, создавая её при
// отсутствии. Более поздняя дата истечения заменяет прежнюю.
func (r *CreditRepository) Add(ctx context.Context, userID int64, amount, durationMinutes int, expiry *time.Time) error {
	query := `
		INSERT INTO user_credits (user_id, credits_remaining, duration_minutes, expiry_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, duration_minutes)
		DO UPDATE SET credits_remaining = user_credits.credits_remaining + EXCLUDED.credits_remaining,
		              expiry_date = GREATEST(user_credits.expiry_date, EXCLUDED.expiry_date)
	`

	_, err := r.db.Exec(ctx, query, userID, amount, durationMinutes, expiry)
	if err != nil {
		return fmt.Errorf("add credits: %w", err)
	}

	return nil
}

// ConsumeOne атомарно списывает один кредит нужного класса длительности.
// Декремент условный, compare-and-decrement на стороне базы: два
// конкурентных списания последнего кредита не пройдут оба.
func (r *CreditRepository) ConsumeOne(ctx context.Context, userID int64, durationMinutes int, now time.Time) (bool, error) {
	query := `
		UPDATE user_credits
		SET credits_remaining = credits_remaining - 1
		WHERE user_id = $1
		  AND duration_minutes = $2
		  AND credits_remaining >= 1
		  AND (expiry_date IS NULL OR expiry_date >= $3)
	`

	result, err := r.db.Exec(ctx, query, userID, durationMinutes, now)
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Restore возвращает один кредит в корзину пользователя
func (r *CreditRepository) Restore(ctx context.Context, userID int64, durationMinutes int) error {
	query := `
		INSERT INTO user_credits (user_id, credits_remaining, duration_minutes)
		VALUES ($1, 1, $2)
		ON CONFLICT (user_id, duration_minutes)
		DO UPDATE SET credits_remaining = user_credits.credits_remaining + 1
	`

	_, err := r.db.Exec(ctx, query, userID, durationMinutes)
	if err != nil {
		return fmt.Errorf("restore credit: %w", err)
	}

	return nil
}

// InsertUsage записывает списание кредита за событие. Повторная запись за то
// же событие нарушает unique constraint и возвращается как ErrConflict.
func (r *CreditRepository) InsertUsage(ctx context.Context, usage *model.CreditUsageRecord) error {
	query := `
		INSERT INTO credit_usage (user_id, calendar_event_id, duration_minutes)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, usage.UserID, usage.CalendarEventID, usage.DurationMinutes).
		Scan(&usage.ID, &usage.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert credit usage: %w", base.MapConstraintError(err))
	}

	return nil
}

// DeleteUsage удаляет запись списания за событие и возвращает её.
// Возвращает nil без ошибки, если списания не было: на этом держится
// идемпотентность refund, ключ идемпотентности — id события.
func (r *CreditRepository) DeleteUsage(ctx context.Context, eventID int64) (*model.CreditUsageRecord, error) {
	query := `
		DELETE FROM credit_usage
		WHERE calendar_event_id = $1
		RETURNING id, user_id, calendar_event_id, duration_minutes, created_at
	`

	usage := &model.CreditUsageRecord{}
	err := r.db.QueryRow(ctx, query, eventID).Scan(
		&usage.ID,
		&usage.UserID,
		&usage.CalendarEventID,
		&usage.DurationMinutes,
		&usage.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete credit usage: %w", err)
	}

	return usage, nil
}

// GetBalance получает остаток пользователя в классе длительности
func (r *CreditRepository) GetBalance(ctx context.Context, userID int64, durationMinutes int) (*model.CreditBalance, error) {
	query := `
		SELECT user_id, credits_remaining, duration_minutes, expiry_date
		FROM user_credits
		WHERE user_id = $1 AND duration_minutes = $2
	`

	balance := &model.CreditBalance{}
	err := r.db.QueryRow(ctx, query, userID, durationMinutes).Scan(
		&balance.UserID,
		&balance.CreditsRemaining,
		&balance.DurationMinutes,
		&balance.ExpiryDate,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit balance: %w", err)
	}

	return balance, nil
}

// GetUsageByEvent получает запись списания за событие
func (r *CreditRepository) GetUsageByEvent(ctx context.Context, eventID int64) (*model.CreditUsageRecord, error) {
	query := `
		SELECT id, user_id, calendar_event_id, duration_minutes, created_at
		FROM credit_usage
		WHERE calendar_event_id = $1
	`

	usage := &model.CreditUsageRecord{}
	err := r.db.QueryRow(ctx, query, eventID).Scan(
		&usage.ID,
		&usage.UserID,
		&usage.CalendarEventID,
		&usage.DurationMinutes,
		&usage.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit usage by event: %w", err)
	}

	return usage, nil
}
