package model

import (
	"fmt"
	"time"
)

// WeeklyAvailabilityRule окно регулярной недельной доступности преподавателя.
// Источник истины — локальное время и таймзона преподавателя; StartSlot и
// Duration это UTC-проекция, пересчитываемая при каждом сохранении правила.
type WeeklyAvailabilityRule struct {
	ID           int64     `json:"id"`
	InstructorID int64     `json:"instructor_id"`
	DayOfWeek    int       `json:"day_of_week"` // 0 = Sunday, 6 = Saturday, в локальной таймзоне
	StartSlot    int       `json:"start_slot"`
	Duration     int       `json:"duration"`
	Timezone     string    `json:"instructor_timezone"`
	LocalStart   string    `json:"local_start_time"` // "HH:MM"
	LocalEnd     string    `json:"local_end_time"`   // "HH:MM", исключительно
	CreatedAt    time.Time `json:"created_at"`
}

// localWindow возвращает окно правила в минутах от локальной полуночи
func (r *WeeklyAvailabilityRule) localWindow() (startMin, endMin int, err error) {
	startSlot, err := TimeToSlot(r.LocalStart)
	if err != nil {
		return 0, 0, fmt.Errorf("local start: %w", err)
	}
	endSlot, err := TimeToSlot(r.LocalEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("local end: %w", err)
	}
	if endSlot <= startSlot {
		return 0, 0, fmt.Errorf("window %s-%s: %w", r.LocalStart, r.LocalEnd, ErrInvalidRange)
	}
	return startSlot * SlotMinutes, endSlot * SlotMinutes, nil
}

// ContainsOnDate проверяет что кандидатный диапазон (UTC-дата и слоты) целиком
// лежит внутри окна правила. Моменты кандидата конвертируются в таймзону
// преподавателя для каждой конкретной даты, поэтому переходы на летнее время
// учитываются заново при каждой проверке, а не из кэшированной проекции.
func (r *WeeklyAvailabilityRule) ContainsOnDate(date time.Time, candidate SlotRange) (bool, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return false, fmt.Errorf("load location %q: %w", r.Timezone, err)
	}

	startMin, endMin, err := r.localWindow()
	if err != nil {
		return false, err
	}

	localStart := SlotInstant(date, candidate.StartSlot).In(loc)
	localEnd := SlotInstant(date, candidate.End()).In(loc)

	if int(localStart.Weekday()) != r.DayOfWeek {
		return false, nil
	}
	// окно правила не переходит через локальную полночь,
	// поэтому и кандидат должен закончиться в том же локальном дне
	if localStart.Year() != localEnd.Year() || localStart.YearDay() != localEnd.YearDay() {
		return false, nil
	}

	// конец считается по реальному локальному моменту, а не прибавлением
	// длительности: переход на летнее время внутри диапазона сдвигает
	// стеночные часы кандидата
	candStartMin := localStart.Hour()*60 + localStart.Minute()
	candEndMin := localEnd.Hour()*60 + localEnd.Minute()

	return candStartMin >= startMin && candEndMin <= endMin, nil
}

// ProjectUTC пересчитывает StartSlot и Duration как UTC-проекцию локального окна
// для ближайшего будущего вхождения DayOfWeek относительно now
func (r *WeeklyAvailabilityRule) ProjectUTC(now time.Time) error {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return fmt.Errorf("load location %q: %w", r.Timezone, err)
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("day of week %d: %w", r.DayOfWeek, ErrInvalidRange)
	}

	startMin, endMin, err := r.localWindow()
	if err != nil {
		return err
	}

	local := now.In(loc)
	daysAhead := (r.DayOfWeek - int(local.Weekday()) + 7) % 7
	day := local.AddDate(0, 0, daysAhead)

	startUTC := time.Date(day.Year(), day.Month(), day.Day(), startMin/60, startMin%60, 0, 0, loc).UTC()
	r.StartSlot = (startUTC.Hour()*60 + startUTC.Minute()) / SlotMinutes
	r.Duration = (endMin - startMin) / SlotMinutes

	return nil
}
