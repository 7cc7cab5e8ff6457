package model

import (
	"fmt"
	"time"
)

const (
	SlotMinutes = 15 // длительность одного слота в минутах
	SlotsPerDay = 24 * 60 / SlotMinutes
)

// TimeToSlot переводит время "HH:MM" в индекс слота.
// Минуты усекаются вниз до границы 15 минут, операция заведомо lossy.
func TimeToSlot(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", value, ErrInvalidRange)
	}

	return (t.Hour()*60 + t.Minute()) / SlotMinutes, nil
}

// SlotToTime переводит индекс слота обратно в "HH:MM"
func SlotToTime(slot int) string {
	minutes := slot * SlotMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotDuration возвращает длительность диапазона в слотах
func SlotDuration(startSlot, endSlot int) int {
	return endSlot - startSlot
}

// SlotInstant возвращает момент начала слота в UTC для указанной даты
func SlotInstant(date time.Time, slot int) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(slot*SlotMinutes) * time.Minute)
}

// ValidateRange проверяет что диапазон слотов корректен и не выходит за сутки
func ValidateRange(startSlot, duration int) error {
	if duration < 1 {
		return fmt.Errorf("duration %d: %w", duration, ErrInvalidRange)
	}
	if startSlot < 0 || startSlot >= SlotsPerDay {
		return fmt.Errorf("start slot %d: %w", startSlot, ErrInvalidRange)
	}
	if startSlot+duration > SlotsPerDay {
		return fmt.Errorf("range crosses day boundary: %w", ErrInvalidRange)
	}
	return nil
}
