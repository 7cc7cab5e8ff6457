package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
)

type EventRepository struct {
	db base.Querier
}

func NewEventRepository(db base.Querier) *EventRepository {
	return &EventRepository{db: db}
}

// Create создаёт новое событие календаря. Пересечение с существующим
// booked/blocked событием нарушает exclusion constraint и возвращается
// как model.ErrConflict.
func (r *EventRepository) Create(ctx context.Context, event *model.BookingEvent) error {
	query := `
		INSERT INTO calendar_events (instructor_id, student_id, event_date, start_slot, duration, status, payment_method, payment_ref, recurring_rule_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		event.InstructorID,
		event.StudentID,
		event.Date,
		event.StartSlot,
		event.Duration,
		event.Status,
		nullString(string(event.PaymentMethod)),
		nullString(event.PaymentRef),
		event.RecurringRuleID,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create event: %w", base.MapConstraintError(err))
	}

	return nil
}

// GetByID получает событие по ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.BookingEvent, error) {
	query := `
		SELECT id, instructor_id, student_id, event_date, start_slot, duration, status,
		       COALESCE(payment_method, ''), COALESCE(payment_ref, ''), recurring_rule_id, created_at, updated_at
		FROM calendar_events
		WHERE id = $1
	`

	var event model.BookingEvent
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.InstructorID,
		&event.StudentID,
		&event.Date,
		&event.StartSlot,
		&event.Duration,
		&event.Status,
		&event.PaymentMethod,
		&event.PaymentRef,
		&event.RecurringRuleID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}

	return &event, nil
}

// GetBusyByInstructorAndDate получает все booked и blocked события
// преподавателя на дату
func (r *EventRepository) GetBusyByInstructorAndDate(ctx context.Context, instructorID int64, date time.Time) ([]*model.BookingEvent, error) {
	query := `
		SELECT id, instructor_id, student_id, event_date, start_slot, duration, status,
		       COALESCE(payment_method, ''), COALESCE(payment_ref, ''), recurring_rule_id, created_at, updated_at
		FROM calendar_events
		WHERE instructor_id = $1
		  AND event_date = $2
		  AND status IN ('booked', 'blocked')
		ORDER BY start_slot
	`

	rows, err := r.db.Query(ctx, query, instructorID, date)
	if err != nil {
		return nil, fmt.Errorf("get busy events: %w", err)
	}
	defer rows.Close()

	var events []*model.BookingEvent
	for rows.Next() {
		var event model.BookingEvent
		err := rows.Scan(
			&event.ID,
			&event.InstructorID,
			&event.StudentID,
			&event.Date,
			&event.StartSlot,
			&event.Duration,
			&event.Status,
			&event.PaymentMethod,
			&event.PaymentRef,
			&event.RecurringRuleID,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &event)
	}

	return events, nil
}

// UpdateSchedule переносит событие на новые дату и слот. Длительность
// не меняется. Пересечение по новому диапазону возвращается как ErrConflict.
func (r *EventRepository) UpdateSchedule(ctx context.Context, id int64, date time.Time, startSlot int) error {
	query := `
		UPDATE calendar_events
		SET event_date = $2, start_slot = $3, updated_at = now()
		WHERE id = $1 AND status = 'booked'
	`

	result, err := r.db.Exec(ctx, query, id, date, startSlot)
	if err != nil {
		return fmt.Errorf("update event schedule: %w", base.MapConstraintError(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update event schedule: %w", model.ErrConflict)
	}

	return nil
}

// CancelBooked переводит booked событие в cancelled. Условие по статусу
// защищает от двойной отмены под гонкой.
func (r *EventRepository) CancelBooked(ctx context.Context, id int64) error {
	query := `
		UPDATE calendar_events
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'booked'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("cancel event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("cancel event: %w", model.ErrConflict)
	}

	return nil
}

// Unblock снимает блокировку календаря, переводя её в cancelled. Условие
// по статусу защищает от снятия не-блокировки под гонкой.
func (r *EventRepository) Unblock(ctx context.Context, id int64) error {
	query := `
		UPDATE calendar_events
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'blocked'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("unblock event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("unblock event: %w", model.ErrConflict)
	}

	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
