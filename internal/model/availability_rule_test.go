package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mondayAfter возвращает первый понедельник не раньше from (UTC-полночь)
func mondayAfter(from time.Time) time.Time {
	date := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for date.Weekday() != time.Monday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

func utcRule(instructorID int64) *WeeklyAvailabilityRule {
	return &WeeklyAvailabilityRule{
		InstructorID: instructorID,
		DayOfWeek:    int(time.Monday),
		Timezone:     "UTC",
		LocalStart:   "09:00",
		LocalEnd:     "17:00",
	}
}

func TestContainsOnDate_UTC(t *testing.T) {
	rule := utcRule(1)
	monday := mondayAfter(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	ok, err := rule.ContainsOnDate(monday, SlotRange{StartSlot: 40, Duration: 4})
	require.NoError(t, err)
	assert.True(t, ok)

	// границы окна включительно по началу, исключительно по концу
	ok, err = rule.ContainsOnDate(monday, SlotRange{StartSlot: 36, Duration: 32})
	require.NoError(t, err)
	assert.True(t, ok)

	// частичное попадание отклоняется
	ok, err = rule.ContainsOnDate(monday, SlotRange{StartSlot: 34, Duration: 4})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rule.ContainsOnDate(monday, SlotRange{StartSlot: 66, Duration: 4})
	require.NoError(t, err)
	assert.False(t, ok)

	// не тот день недели
	tuesday := monday.AddDate(0, 0, 1)
	ok, err = rule.ContainsOnDate(tuesday, SlotRange{StartSlot: 40, Duration: 4})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContainsOnDate_DSTReprojection(t *testing.T) {
	rule := &WeeklyAvailabilityRule{
		InstructorID: 1,
		DayOfWeek:    int(time.Monday),
		Timezone:     "America/New_York",
		LocalStart:   "09:00",
		LocalEnd:     "17:00",
	}

	// зимой Нью-Йорк живёт по EST (UTC-5): 09:00 локально = 14:00 UTC
	winterMonday := mondayAfter(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	ok, err := rule.ContainsOnDate(winterMonday, SlotRange{StartSlot: 56, Duration: 4})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rule.ContainsOnDate(winterMonday, SlotRange{StartSlot: 52, Duration: 4})
	require.NoError(t, err)
	assert.False(t, ok, "13:00 UTC is 08:00 EST, before the window")

	// летом EDT (UTC-4): то же окно сдвигается на час без пересохранения правила
	summerMonday := mondayAfter(time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC))
	ok, err = rule.ContainsOnDate(summerMonday, SlotRange{StartSlot: 52, Duration: 4})
	require.NoError(t, err)
	assert.True(t, ok, "13:00 UTC is 09:00 EDT, inside the window")

	ok, err = rule.ContainsOnDate(summerMonday, SlotRange{StartSlot: 84, Duration: 4})
	require.NoError(t, err)
	assert.False(t, ok, "21:00 UTC is 17:00 EDT, past the window")
}

func TestContainsOnDate_DSTTransitionInsideRange(t *testing.T) {
	// 2030-03-10 — воскресенье перехода на летнее время в Нью-Йорке:
	// 02:00 EST превращается в 03:00 EDT
	rule := &WeeklyAvailabilityRule{
		InstructorID: 1,
		DayOfWeek:    int(time.Sunday),
		Timezone:     "America/New_York",
		LocalStart:   "01:00",
		LocalEnd:     "03:30",
	}
	transition := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)

	// 06:00-07:00 UTC = 01:00 EST - 03:00 EDT, внутри окна
	ok, err := rule.ContainsOnDate(transition, SlotRange{StartSlot: 24, Duration: 4})
	require.NoError(t, err)
	assert.True(t, ok)

	// 06:00-08:00 UTC заканчивается в 04:00 EDT: два UTC-часа растягиваются
	// на три стеночных и выходят за окно
	ok, err = rule.ContainsOnDate(transition, SlotRange{StartSlot: 24, Duration: 8})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContainsOnDate_CrossesLocalMidnight(t *testing.T) {
	rule := &WeeklyAvailabilityRule{
		InstructorID: 1,
		DayOfWeek:    int(time.Monday),
		Timezone:     "Asia/Tokyo",
		LocalStart:   "09:00",
		LocalEnd:     "17:00",
	}
	monday := mondayAfter(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	// 14:45 UTC понедельника = 23:45 в Токио; конец уже во вторнике
	ok, err := rule.ContainsOnDate(monday, SlotRange{StartSlot: 59, Duration: 4})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContainsOnDate_BadTimezone(t *testing.T) {
	rule := utcRule(1)
	rule.Timezone = "Mars/Olympus"

	_, err := rule.ContainsOnDate(mondayAfter(time.Now()), SlotRange{StartSlot: 40, Duration: 4})
	assert.Error(t, err)
}

func TestProjectUTC(t *testing.T) {
	rule := utcRule(1)
	now := time.Date(2030, 1, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rule.ProjectUTC(now))
	assert.Equal(t, 36, rule.StartSlot)
	assert.Equal(t, 32, rule.Duration)
}

func TestProjectUTC_Timezone(t *testing.T) {
	rule := &WeeklyAvailabilityRule{
		DayOfWeek:  int(time.Monday),
		Timezone:   "America/New_York",
		LocalStart: "09:00",
		LocalEnd:   "17:00",
	}
	// зимняя неделя: проекция по EST
	now := time.Date(2030, 1, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rule.ProjectUTC(now))
	assert.Equal(t, 56, rule.StartSlot) // 09:00 EST = 14:00 UTC
	assert.Equal(t, 32, rule.Duration)
}

func TestProjectUTC_InvalidWindow(t *testing.T) {
	rule := utcRule(1)
	rule.LocalEnd = "09:00"
	assert.ErrorIs(t, rule.ProjectUTC(time.Now()), ErrInvalidRange)

	rule = utcRule(1)
	rule.DayOfWeek = 7
	assert.ErrorIs(t, rule.ProjectUTC(time.Now()), ErrInvalidRange)
}
