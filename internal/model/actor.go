package model

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Actor действующее лицо операции. Ядром не хранится, приходит от вызывающего
// слоя после проверки токена.
type Actor struct {
	ID           int64 `json:"id"`
	Role         Role  `json:"role"`
	InstructorID int64 `json:"instructor_id,omitempty"` // заполнен только для преподавателей
}
