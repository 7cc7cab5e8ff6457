package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/Freeeeeet/lesson_booking/internal/service/ports"
)

// Repos набор репозиториев над одним Querier: пулом или транзакцией
type Repos struct {
	rules     *AvailabilityRuleRepository
	events    *EventRepository
	recurring *RecurringBookingRepository
	credits   *CreditRepository
}

func NewRepos(db base.Querier) *Repos {
	return &Repos{
		rules:     NewAvailabilityRuleRepository(db),
		events:    NewEventRepository(db),
		recurring: NewRecurringBookingRepository(db),
		credits:   NewCreditRepository(db),
	}
}

func (r *Repos) Rules() ports.AvailabilityRuleRepo { return r.rules }
func (r *Repos) Events() ports.EventRepo           { return r.events }
func (r *Repos) Recurring() ports.RecurringRepo    { return r.recurring }
func (r *Repos) Credits() ports.CreditRepo         { return r.credits }

// TxManager открывает транзакцию и отдаёт fn репозитории, привязанные к ней.
// Ошибка fn откатывает все записи разом; ошибка коммита может означать
// проигранную гонку на constraint и маппится в доменную ошибку.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, r ports.Repos) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", base.MapConstraintError(err))
	}

	return nil
}
