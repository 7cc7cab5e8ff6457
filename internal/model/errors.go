package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated  = errors.New("no actor supplied")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

var (
	ErrSlotUnavailable     = errors.New("slot unavailable")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidRange        = errors.New("invalid slot range")
	ErrPaymentDeclined     = errors.New("payment declined")
)

// ErrConflict транзакция проиграла гонку на constraint базы,
// операцию безопасно повторить целиком с начала
var ErrConflict = errors.New("write conflict, retry the operation")

// ErrTimeRestricted уточнение ErrPermissionDenied: до начала занятия
// осталось меньше разрешённого окна
var ErrTimeRestricted = fmt.Errorf("%w: too close to lesson start", ErrPermissionDenied)
