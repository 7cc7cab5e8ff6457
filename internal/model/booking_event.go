package model

import "time"

type EventStatus string

const (
	EventStatusBooked    EventStatus = "booked"
	EventStatusBlocked   EventStatus = "blocked"   // удержание календаря преподавателем, без студента
	EventStatusCancelled EventStatus = "cancelled" // терминальный статус
	EventStatusCompleted EventStatus = "completed"
)

type PaymentMethod string

const (
	PaymentMethodCredits  PaymentMethod = "credits"
	PaymentMethodExternal PaymentMethod = "external"
)

// BookingEvent одно событие в календаре преподавателя: занятие или блокировка
type BookingEvent struct {
	ID            int64         `json:"id"`
	InstructorID  int64         `json:"instructor_id"`
	StudentID     *int64        `json:"student_id"`
	Date          time.Time     `json:"date"` // календарная дата, UTC-полночь
	StartSlot     int           `json:"start_slot"`
	Duration      int           `json:"duration"`
	Status        EventStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	PaymentRef    string        `json:"payment_ref,omitempty"`
	// RecurringRuleID заполнен для событий, материализованных из правила
	// регулярных занятий; повторная материализация того же вхождения
	// отсекается уникальным индексом
	RecurringRuleID *int64    `json:"recurring_rule_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Range возвращает диапазон слотов события
func (e *BookingEvent) Range() SlotRange {
	return SlotRange{StartSlot: e.StartSlot, Duration: e.Duration}
}

// StartInstant возвращает момент начала события в UTC
func (e *BookingEvent) StartInstant() time.Time {
	return SlotInstant(e.Date, e.StartSlot)
}

// Busy сообщает занимает ли событие место в календаре
func (e *BookingEvent) Busy() bool {
	return e.Status == EventStatusBooked || e.Status == EventStatusBlocked
}

// SubjectInstructorID реализует проверку владения для authz
func (e *BookingEvent) SubjectInstructorID() int64 {
	return e.InstructorID
}

// SubjectStudentID реализует проверку владения для authz
func (e *BookingEvent) SubjectStudentID() (int64, bool) {
	if e.StudentID == nil {
		return 0, false
	}
	return *e.StudentID, true
}
