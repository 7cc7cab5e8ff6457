package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// Querier источник запросов для репозитория: пул соединений или открытая
// транзакция. Репозиторий не знает и не должен знать, в чём он работает.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

// MapConstraintError переводит нарушение constraint базы в доменную ошибку.
// Unique и exclusion означают проигранную гонку записи, которую безопасно
// повторить целиком; остальные ошибки возвращаются как есть.
func MapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeExclusionViolation:
		return model.ErrConflict
	}
	return err
}
