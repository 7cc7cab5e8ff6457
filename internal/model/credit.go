package model

import "time"

// CreditBalance остаток кредитов пользователя в одном классе длительности.
// Кредиты разных классов не взаимозаменяемы: кредит на 30 минут не может
// оплатить 60-минутное занятие, и два кредита по 30 минут не складываются.
type CreditBalance struct {
	UserID           int64      `json:"user_id"`
	CreditsRemaining int        `json:"credits_remaining"`
	DurationMinutes  int        `json:"duration_minutes"`
	ExpiryDate       *time.Time `json:"expiry_date"`
}

// Expired проверяет истёк ли остаток на момент now
func (b *CreditBalance) Expired(now time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(now)
}

// CreditUsageRecord связь списания кредита с оплаченным им событием.
// Неизменяема после создания, удаляется только явным refund.
type CreditUsageRecord struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	CalendarEventID int64     `json:"calendar_event_id"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}
