package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
)

type AvailabilityRuleRepository struct {
	db base.Querier
}

func NewAvailabilityRuleRepository(db base.Querier) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{db: db}
}

// GetByInstructor получает все окна доступности преподавателя
func (r *AvailabilityRuleRepository) GetByInstructor(ctx context.Context, instructorID int64) ([]*model.WeeklyAvailabilityRule, error) {
	query := `
		SELECT id, instructor_id, day_of_week, start_slot, duration, instructor_timezone, local_start_time, local_end_time, created_at
		FROM instructor_weekly_availability
		WHERE instructor_id = $1
		ORDER BY day_of_week, start_slot
	`

	rows, err := r.db.Query(ctx, query, instructorID)
	if err != nil {
		return nil, fmt.Errorf("get availability rules: %w", err)
	}
	defer rows.Close()

	var rules []*model.WeeklyAvailabilityRule
	for rows.Next() {
		rule := &model.WeeklyAvailabilityRule{}
		err := rows.Scan(
			&rule.ID,
			&rule.InstructorID,
			&rule.DayOfWeek,
			&rule.StartSlot,
			&rule.Duration,
			&rule.Timezone,
			&rule.LocalStart,
			&rule.LocalEnd,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan availability rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// ReplaceForInstructor заменяет весь набор окон преподавателя целиком.
// Частичного обновления не бывает, вызывается только внутри транзакции.
func (r *AvailabilityRuleRepository) ReplaceForInstructor(ctx context.Context, instructorID int64, rules []*model.WeeklyAvailabilityRule) error {
	_, err := r.db.Exec(ctx, `DELETE FROM instructor_weekly_availability WHERE instructor_id = $1`, instructorID)
	if err != nil {
		return fmt.Errorf("delete availability rules: %w", err)
	}

	query := `
		INSERT INTO instructor_weekly_availability (instructor_id, day_of_week, start_slot, duration, instructor_timezone, local_start_time, local_end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	for _, rule := range rules {
		err := r.db.QueryRow(
			ctx, query,
			instructorID,
			rule.DayOfWeek,
			rule.StartSlot,
			rule.Duration,
			rule.Timezone,
			rule.LocalStart,
			rule.LocalEnd,
		).Scan(&rule.ID, &rule.CreatedAt)

		if err != nil {
			return fmt.Errorf("insert availability rule: %w", base.MapConstraintError(err))
		}
		rule.InstructorID = instructorID
	}

	return nil
}
