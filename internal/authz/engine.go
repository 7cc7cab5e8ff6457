package authz

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionCancel Action = "cancel"
	ActionManage Action = "manage"
)

type SubjectType string

const (
	SubjectBooking      SubjectType = "booking"
	SubjectAvailability SubjectType = "availability"
	SubjectInstructor   SubjectType = "instructor"
	SubjectSubscription SubjectType = "subscription"
)

// InstructorOwned субъект, принадлежащий преподавателю по foreign key
type InstructorOwned interface {
	SubjectInstructorID() int64
}

// StudentOwned субъект, принадлежащий студенту по foreign key.
// Второе значение false если студент не привязан.
type StudentOwned interface {
	SubjectStudentID() (int64, bool)
}

// ownership требование к владению субъектом для выдачи права
type ownership int

const (
	anySubject ownership = iota
	ownInstructor
	ownStudent
)

// grants таблица базовых прав: роль -> тип субъекта -> действие -> владение.
// Admin в таблице отсутствует, ему разрешено всё без проверки владения.
var grants = map[model.Role]map[SubjectType]map[Action]ownership{
	model.RoleInstructor: {
		SubjectBooking: {
			ActionRead:   ownInstructor,
			ActionUpdate: ownInstructor,
			ActionCancel: ownInstructor,
			ActionManage: ownInstructor,
		},
		SubjectAvailability: {
			ActionRead:   ownInstructor,
			ActionUpdate: ownInstructor,
			ActionManage: ownInstructor,
		},
		SubjectInstructor: {
			ActionRead:   ownInstructor,
			ActionUpdate: ownInstructor,
		},
	},
	model.RoleStudent: {
		SubjectBooking: {
			ActionCreate: anySubject,
			ActionRead:   ownStudent,
			ActionUpdate: ownStudent,
			ActionCancel: ownStudent,
		},
		SubjectInstructor: {
			ActionRead: anySubject,
		},
		SubjectSubscription: {
			ActionRead:   ownStudent,
			ActionCancel: ownStudent,
		},
	},
}

// CancellationWindow минимальный запас до начала занятия, в пределах которого
// студент уже не может менять или отменять бронирование
const CancellationWindow = 24 * time.Hour

// Engine проверяет права актора на действия с субъектами. Состояния не имеет.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Can проверяет базовое право actor выполнить action над субъектом указанного
// типа. Анонимный актор не имеет прав. Субъекту достаточно отдавать нужный
// foreign key через InstructorOwned или StudentOwned.
func (e *Engine) Can(actor *model.Actor, action Action, subjectType SubjectType, subject any) bool {
	if actor == nil {
		return false
	}
	if actor.Role == model.RoleAdmin {
		return true
	}

	byType, ok := grants[actor.Role]
	if !ok {
		return false
	}
	byAction, ok := byType[subjectType]
	if !ok {
		return false
	}
	need, ok := byAction[action]
	if !ok {
		return false
	}

	switch need {
	case anySubject:
		return true
	case ownInstructor:
		owned, ok := subject.(InstructorOwned)
		return ok && owned.SubjectInstructorID() == actor.InstructorID
	case ownStudent:
		owned, ok := subject.(StudentOwned)
		if !ok {
			return false
		}
		studentID, linked := owned.SubjectStudentID()
		return linked && studentID == actor.ID
	}
	return false
}

// CanBookingAction проверяет право на update или cancel бронирования с учётом
// временного окна. Изменяемы только booked события: завершённые и отменённые
// неизменяемы для всех, блокировки снимаются отдельной операцией Unblock.
// Для студентов дополнительно требуется запас CancellationWindow до начала
// занятия; некорректные дата или слот трактуются как отказ, не как ошибка.
func (e *Engine) CanBookingAction(actor *model.Actor, booking *model.BookingEvent, action Action, now time.Time) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if booking == nil {
		return model.ErrNotFound
	}
	if booking.Status != model.EventStatusBooked {
		return model.ErrPermissionDenied
	}
	if !e.Can(actor, action, SubjectBooking, booking) {
		return model.ErrPermissionDenied
	}

	if actor.Role != model.RoleStudent {
		return nil
	}

	if booking.Date.IsZero() || model.ValidateRange(booking.StartSlot, booking.Duration) != nil {
		return model.ErrTimeRestricted
	}
	if !now.Before(booking.StartInstant().Add(-CancellationWindow)) {
		return model.ErrTimeRestricted
	}
	return nil
}
