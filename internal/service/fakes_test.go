package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service/ports"
)

// In-memory реализация репозиториев и unit of work для тестов сервисов.
// Поведение constraint'ов базы (exclusion по пересечению, unique по
// событию) воспроизводится вручную, откат — восстановлением снапшота.

type creditKey struct {
	userID          int64
	durationMinutes int
}

type fakeStore struct {
	rules       map[int64][]*model.WeeklyAvailabilityRule
	events      map[int64]*model.BookingEvent
	recurring   map[int64]*model.RecurringBookingRule
	credits     map[creditKey]*model.CreditBalance
	usage       map[int64]*model.CreditUsageRecord
	nextEventID int64
	nextRuleID  int64
	nextUsageID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rules:     make(map[int64][]*model.WeeklyAvailabilityRule),
		events:    make(map[int64]*model.BookingEvent),
		recurring: make(map[int64]*model.RecurringBookingRule),
		credits:   make(map[creditKey]*model.CreditBalance),
		usage:     make(map[int64]*model.CreditUsageRecord),
	}
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextEventID = s.nextEventID
	c.nextRuleID = s.nextRuleID
	c.nextUsageID = s.nextUsageID
	for k, list := range s.rules {
		for _, r := range list {
			cp := *r
			c.rules[k] = append(c.rules[k], &cp)
		}
	}
	for k, e := range s.events {
		cp := *e
		c.events[k] = &cp
	}
	for k, r := range s.recurring {
		cp := *r
		c.recurring[k] = &cp
	}
	for k, b := range s.credits {
		cp := *b
		c.credits[k] = &cp
	}
	for k, u := range s.usage {
		cp := *u
		c.usage[k] = &cp
	}
	return c
}

// addRecurring кладёт правило в store напрямую, мимо сервиса
func (s *fakeStore) addRecurring(rule *model.RecurringBookingRule) {
	s.nextRuleID++
	rule.ID = s.nextRuleID
	cp := *rule
	s.recurring[rule.ID] = &cp
}

type fakeRepos struct {
	store *fakeStore
}

func newFakeRepos(store *fakeStore) *fakeRepos {
	return &fakeRepos{store: store}
}

func (f *fakeRepos) Rules() ports.AvailabilityRuleRepo { return &fakeRuleRepo{store: f.store} }
func (f *fakeRepos) Events() ports.EventRepo           { return &fakeEventRepo{store: f.store} }
func (f *fakeRepos) Recurring() ports.RecurringRepo    { return &fakeRecurringRepo{store: f.store} }
func (f *fakeRepos) Credits() ports.CreditRepo         { return &fakeCreditRepo{store: f.store} }

type fakeRuleRepo struct {
	store *fakeStore
}

func (f *fakeRuleRepo) GetByInstructor(_ context.Context, instructorID int64) ([]*model.WeeklyAvailabilityRule, error) {
	return f.store.rules[instructorID], nil
}

func (f *fakeRuleRepo) ReplaceForInstructor(_ context.Context, instructorID int64, rules []*model.WeeklyAvailabilityRule) error {
	f.store.rules[instructorID] = rules
	return nil
}

type fakeEventRepo struct {
	store *fakeStore
}

func (f *fakeEventRepo) Create(_ context.Context, event *model.BookingEvent) error {
	if event.Busy() {
		for _, other := range f.store.events {
			if other.InstructorID == event.InstructorID && other.Date.Equal(event.Date) &&
				other.Busy() && event.Range().Overlaps(other.Range()) {
				return model.ErrConflict
			}
		}
	}
	if event.RecurringRuleID != nil {
		for _, other := range f.store.events {
			if other.RecurringRuleID != nil && *other.RecurringRuleID == *event.RecurringRuleID &&
				other.Date.Equal(event.Date) {
				return model.ErrConflict
			}
		}
	}

	f.store.nextEventID++
	event.ID = f.store.nextEventID
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	cp := *event
	f.store.events[event.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*model.BookingEvent, error) {
	event, ok := f.store.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	return &cp, nil
}

func (f *fakeEventRepo) GetBusyByInstructorAndDate(_ context.Context, instructorID int64, date time.Time) ([]*model.BookingEvent, error) {
	var events []*model.BookingEvent
	for _, event := range f.store.events {
		if event.InstructorID == instructorID && event.Date.Equal(date) && event.Busy() {
			cp := *event
			events = append(events, &cp)
		}
	}
	return events, nil
}

func (f *fakeEventRepo) UpdateSchedule(_ context.Context, id int64, date time.Time, startSlot int) error {
	event, ok := f.store.events[id]
	if !ok || event.Status != model.EventStatusBooked {
		return model.ErrConflict
	}
	moved := model.SlotRange{StartSlot: startSlot, Duration: event.Duration}
	for _, other := range f.store.events {
		if other.ID != id && other.InstructorID == event.InstructorID && other.Date.Equal(date) &&
			other.Busy() && moved.Overlaps(other.Range()) {
			return model.ErrConflict
		}
	}
	event.Date = date
	event.StartSlot = startSlot
	event.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeEventRepo) CancelBooked(_ context.Context, id int64) error {
	event, ok := f.store.events[id]
	if !ok || event.Status != model.EventStatusBooked {
		return model.ErrConflict
	}
	event.Status = model.EventStatusCancelled
	return nil
}

func (f *fakeEventRepo) Unblock(_ context.Context, id int64) error {
	event, ok := f.store.events[id]
	if !ok || event.Status != model.EventStatusBlocked {
		return model.ErrConflict
	}
	event.Status = model.EventStatusCancelled
	return nil
}

type fakeRecurringRepo struct {
	store *fakeStore
}

func (f *fakeRecurringRepo) Create(_ context.Context, rule *model.RecurringBookingRule) error {
	for _, other := range f.store.recurring {
		if other.SubscriptionID == rule.SubscriptionID {
			return model.ErrConflict
		}
	}
	f.store.addRecurring(rule)
	return nil
}

func (f *fakeRecurringRepo) GetBySubscriptionID(_ context.Context, subscriptionID uuid.UUID) (*model.RecurringBookingRule, error) {
	for _, rule := range f.store.recurring {
		if rule.SubscriptionID == subscriptionID {
			cp := *rule
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRecurringRepo) GetActiveByWeekday(_ context.Context, weekday int) ([]*model.RecurringBookingRule, error) {
	var rules []*model.RecurringBookingRule
	for _, rule := range f.store.recurring {
		if rule.IsActive && rule.DayOfWeek == weekday {
			cp := *rule
			rules = append(rules, &cp)
		}
	}
	return rules, nil
}

func (f *fakeRecurringRepo) DeactivateBySubscription(_ context.Context, subscriptionID uuid.UUID) error {
	for _, rule := range f.store.recurring {
		if rule.SubscriptionID == subscriptionID {
			rule.IsActive = false
		}
	}
	return nil
}

type fakeCreditRepo struct {
	store *fakeStore
}

func (f *fakeCreditRepo) Add(_ context.Context, userID int64, amount, durationMinutes int, expiry *time.Time) error {
	key := creditKey{userID: userID, durationMinutes: durationMinutes}
	balance, ok := f.store.credits[key]
	if !ok {
		balance = &model.CreditBalance{UserID: userID, DurationMinutes: durationMinutes}
		f.store.credits[key] = balance
	}
	balance.CreditsRemaining += amount
	if expiry != nil {
		balance.ExpiryDate = expiry
	}
	return nil
}

func (f *fakeCreditRepo) ConsumeOne(_ context.Context, userID int64, durationMinutes int, now time.Time) (bool, error) {
	key := creditKey{userID: userID, durationMinutes: durationMinutes}
	balance, ok := f.store.credits[key]
	if !ok || balance.CreditsRemaining < 1 || balance.Expired(now) {
		return false, nil
	}
	balance.CreditsRemaining--
	return true, nil
}

func (f *fakeCreditRepo) Restore(ctx context.Context, userID int64, durationMinutes int) error {
	return f.Add(ctx, userID, 1, durationMinutes, nil)
}

func (f *fakeCreditRepo) InsertUsage(_ context.Context, usage *model.CreditUsageRecord) error {
	if _, exists := f.store.usage[usage.CalendarEventID]; exists {
		return model.ErrConflict
	}
	f.store.nextUsageID++
	usage.ID = f.store.nextUsageID
	usage.CreatedAt = time.Now().UTC()
	cp := *usage
	f.store.usage[usage.CalendarEventID] = &cp
	return nil
}

func (f *fakeCreditRepo) DeleteUsage(_ context.Context, eventID int64) (*model.CreditUsageRecord, error) {
	usage, ok := f.store.usage[eventID]
	if !ok {
		return nil, nil
	}
	delete(f.store.usage, eventID)
	return usage, nil
}

func (f *fakeCreditRepo) GetBalance(_ context.Context, userID int64, durationMinutes int) (*model.CreditBalance, error) {
	balance, ok := f.store.credits[creditKey{userID: userID, durationMinutes: durationMinutes}]
	if !ok {
		return nil, nil
	}
	cp := *balance
	return &cp, nil
}

func (f *fakeCreditRepo) GetUsageByEvent(_ context.Context, eventID int64) (*model.CreditUsageRecord, error) {
	usage, ok := f.store.usage[eventID]
	if !ok {
		return nil, nil
	}
	cp := *usage
	return &cp, nil
}

// fakeUnitOfWork выполняет fn над общим store и откатывает его из снапшота
// при ошибке, имитируя транзакцию
type fakeUnitOfWork struct {
	store *fakeStore
}

func (u *fakeUnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context, r ports.Repos) error) error {
	snapshot := u.store.clone()
	if err := fn(ctx, newFakeRepos(u.store)); err != nil {
		*u.store = *snapshot
		return err
	}
	return nil
}
