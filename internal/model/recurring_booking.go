package model

import (
	"time"

	"github.com/google/uuid"
)

// RecurringBookingRule шаблон регулярного занятия, один к одному с подпиской.
// Материализуется в BookingEvent фоновой задачей и проверяется на конфликты
// наравне с разовыми бронированиями.
type RecurringBookingRule struct {
	ID             int64     `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	InstructorID   int64     `json:"instructor_id"`
	StudentID      int64     `json:"student_id"`
	DayOfWeek      int       `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartSlot      int       `json:"start_slot"`
	Duration       int       `json:"duration"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Range возвращает диапазон слотов правила
func (r *RecurringBookingRule) Range() SlotRange {
	return SlotRange{StartSlot: r.StartSlot, Duration: r.Duration}
}

// SubjectInstructorID реализует проверку владения для authz
func (r *RecurringBookingRule) SubjectInstructorID() int64 {
	return r.InstructorID
}

// SubjectStudentID реализует проверку владения для authz
func (r *RecurringBookingRule) SubjectStudentID() (int64, bool) {
	return r.StudentID, true
}
