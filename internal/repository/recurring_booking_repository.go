package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
)

type RecurringBookingRepository struct {
	db base.Querier
}

func NewRecurringBookingRepository(db base.Querier) *RecurringBookingRepository {
	return &RecurringBookingRepository{db: db}
}

// Create создаёт правило регулярного занятия. Повторная привязка той же
// подписки нарушает unique constraint и возвращается как ErrConflict.
func (r *RecurringBookingRepository) Create(ctx context.Context, rule *model.RecurringBookingRule) error {
	query := `
		INSERT INTO recurring_bookings (subscription_id, instructor_id, student_id, day_of_week, start_slot, duration, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		rule.SubscriptionID,
		rule.InstructorID,
		rule.StudentID,
		rule.DayOfWeek,
		rule.StartSlot,
		rule.Duration,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt)

	if err != nil {
		return fmt.Errorf("create recurring booking: %w", base.MapConstraintError(err))
	}

	return nil
}

// GetBySubscriptionID получает правило по подписке
func (r *RecurringBookingRepository) GetBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) (*model.RecurringBookingRule, error) {
	query := `
		SELECT id, subscription_id, instructor_id, student_id, day_of_week, start_slot, duration, is_active, created_at
		FROM recurring_bookings
		WHERE subscription_id = $1
	`

	rule := &model.RecurringBookingRule{}
	err := r.db.QueryRow(ctx, query, subscriptionID).Scan(
		&rule.ID,
		&rule.SubscriptionID,
		&rule.InstructorID,
		&rule.StudentID,
		&rule.DayOfWeek,
		&rule.StartSlot,
		&rule.Duration,
		&rule.IsActive,
		&rule.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring booking by subscription: %w", err)
	}

	return rule, nil
}

// GetActiveByWeekday получает все активные правила на день недели
func (r *RecurringBookingRepository) GetActiveByWeekday(ctx context.Context, weekday int) ([]*model.RecurringBookingRule, error) {
	query := `
		SELECT id, subscription_id, instructor_id, student_id, day_of_week, start_slot, duration, is_active, created_at
		FROM recurring_bookings
		WHERE is_active = true AND day_of_week = $1
		ORDER BY instructor_id, start_slot
	`

	rows, err := r.db.Query(ctx, query, weekday)
	if err != nil {
		return nil, fmt.Errorf("get recurring bookings by weekday: %w", err)
	}
	defer rows.Close()

	var rules []*model.RecurringBookingRule
	for rows.Next() {
		rule := &model.RecurringBookingRule{}
		err := rows.Scan(
			&rule.ID,
			&rule.SubscriptionID,
			&rule.InstructorID,
			&rule.StudentID,
			&rule.DayOfWeek,
			&rule.StartSlot,
			&rule.Duration,
			&rule.IsActive,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recurring booking: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// DeactivateBySubscription деактивирует правило подписки
func (r *RecurringBookingRepository) DeactivateBySubscription(ctx context.Context, subscriptionID uuid.UUID) error {
	query := `UPDATE recurring_bookings SET is_active = false WHERE subscription_id = $1`

	_, err := r.db.Exec(ctx, query, subscriptionID)
	if err != nil {
		return fmt.Errorf("deactivate recurring booking: %w", err)
	}

	return nil
}
