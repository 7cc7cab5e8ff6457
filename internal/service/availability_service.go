package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_booking/internal/authz"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service/ports"
)

// instructorSubject обёртка для проверки владения, когда под рукой
// только id преподавателя
type instructorSubject int64

func (s instructorSubject) SubjectInstructorID() int64 { return int64(s) }

type AvailabilityService struct {
	repos  ports.Repos
	uow    ports.UnitOfWork
	feed   ports.CalendarFeed // может быть nil
	engine *authz.Engine
	logger *zap.Logger
}

func NewAvailabilityService(
	repos ports.Repos,
	uow ports.UnitOfWork,
	feed ports.CalendarFeed,
	engine *authz.Engine,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		repos:  repos,
		uow:    uow,
		feed:   feed,
		engine: engine,
		logger: logger,
	}
}

// ReplaceWeeklyAvailability заменяет весь недельный набор окон преподавателя
// одной транзакцией. UTC-проекция каждого правила пересчитывается заново из
// локального времени и таймзоны.
func (s *AvailabilityService) ReplaceWeeklyAvailability(ctx context.Context, actor *model.Actor, instructorID int64, rules []*model.WeeklyAvailabilityRule) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if !s.engine.Can(actor, authz.ActionManage, authz.SubjectAvailability, instructorSubject(instructorID)) {
		return model.ErrPermissionDenied
	}

	now := time.Now().UTC()
	for _, rule := range rules {
		if err := rule.ProjectUTC(now); err != nil {
			return fmt.Errorf("project rule: %w", err)
		}
	}

	err := s.uow.WithTx(ctx, func(ctx context.Context, r ports.Repos) error {
		return r.Rules().ReplaceForInstructor(ctx, instructorID, rules)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Weekly availability replaced",
		zap.Int64("instructor_id", instructorID),
		zap.Int("rules", len(rules)),
	)

	return nil
}

// IsBookable проверяет можно ли забронировать диапазон у преподавателя.
// Возвращает nil, ErrSlotUnavailable или ErrInvalidRange.
func (s *AvailabilityService) IsBookable(ctx context.Context, instructorID int64, date time.Time, candidate model.SlotRange) error {
	return checkAvailability(ctx, s.repos, s.feed, instructorID, date, candidate, 0)
}

// FreeSlots возвращает свободные диапазоны преподавателя на дату:
// окна доступности за вычетом занятых событий
func (s *AvailabilityService) FreeSlots(ctx context.Context, instructorID int64, date time.Time) ([]model.SlotRange, error) {
	rules, err := s.repos.Rules().GetByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	busy, err := busyRanges(ctx, s.repos, s.feed, instructorID, date, 0)
	if err != nil {
		return nil, err
	}

	var free []model.SlotRange
	run := model.SlotRange{}
	for slot := 0; slot < model.SlotsPerDay; slot++ {
		cand := model.SlotRange{StartSlot: slot, Duration: 1}

		open := false
		for _, rule := range rules {
			ok, err := rule.ContainsOnDate(date, cand)
			if err != nil {
				return nil, err
			}
			if ok {
				open = true
				break
			}
		}
		if _, conflict := model.FindConflict(cand, busy); conflict {
			open = false
		}

		if open {
			if run.Duration == 0 {
				run.StartSlot = slot
			}
			run.Duration++
			continue
		}
		if run.Duration > 0 {
			free = append(free, run)
			run = model.SlotRange{}
		}
	}
	if run.Duration > 0 {
		free = append(free, run)
	}

	return free, nil
}

// busyRanges собирает занятые диапазоны на дату: booked и blocked события
// плюс блокировки из внешнего календаря. excludeEventID исключает из
// рассмотрения собственный диапазон переносимого события.
func busyRanges(ctx context.Context, r ports.Repos, feed ports.CalendarFeed, instructorID int64, date time.Time, excludeEventID int64) ([]model.SlotRange, error) {
	events, err := r.Events().GetBusyByInstructorAndDate(ctx, instructorID, date)
	if err != nil {
		return nil, err
	}

	var busy []model.SlotRange
	for _, event := range events {
		if event.ID == excludeEventID {
			continue
		}
		busy = append(busy, event.Range())
	}

	if feed != nil {
		external, err := feed.BlockedRanges(ctx, instructorID, date)
		if err != nil {
			return nil, fmt.Errorf("external calendar: %w", err)
		}
		busy = append(busy, external...)
	}

	return busy, nil
}

// checkAvailability отвечает на вопрос "можно ли бронировать диапазон":
// диапазон корректен, целиком лежит хотя бы в одном окне доступности и не
// пересекается ни с одним занятым диапазоном. Частичное попадание в окно
// отклоняется.
func checkAvailability(ctx context.Context, r ports.Repos, feed ports.CalendarFeed, instructorID int64, date time.Time, candidate model.SlotRange, excludeEventID int64) error {
	if err := model.ValidateRange(candidate.StartSlot, candidate.Duration); err != nil {
		return err
	}

	rules, err := r.Rules().GetByInstructor(ctx, instructorID)
	if err != nil {
		return err
	}

	inWindow := false
	for _, rule := range rules {
		ok, err := rule.ContainsOnDate(date, candidate)
		if err != nil {
			return err
		}
		if ok {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return fmt.Errorf("outside availability windows: %w", model.ErrSlotUnavailable)
	}

	busy, err := busyRanges(ctx, r, feed, instructorID, date, excludeEventID)
	if err != nil {
		return err
	}
	if conflict, ok := model.FindConflict(candidate, busy); ok {
		return fmt.Errorf("overlaps %s-%s: %w",
			model.SlotToTime(conflict.StartSlot), model.SlotToTime(conflict.End()), model.ErrSlotUnavailable)
	}

	return nil
}
