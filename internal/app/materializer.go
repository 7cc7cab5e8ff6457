package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_booking/internal/service"
)

// Materializer фоновая задача, разворачивающая правила регулярных занятий
// в события календаря с запасом вперёд. Благодаря constraint'ам базы
// повторный прогон не создаёт дубликатов.
type Materializer struct {
	bookings   *service.BookingService
	weeksAhead int
	logger     *zap.Logger
	stopChan   chan struct{}
}

func NewMaterializer(bookings *service.BookingService, weeksAhead int, logger *zap.Logger) *Materializer {
	return &Materializer{
		bookings:   bookings,
		weeksAhead: weeksAhead,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start запускает периодическую материализацию
func (m *Materializer) Start(ctx context.Context) {
	m.logger.Info("Starting recurring booking materializer",
		zap.Int("weeks_ahead", m.weeksAhead))

	go m.run(ctx)
}

// Stop останавливает фоновую задачу
func (m *Materializer) Stop() {
	close(m.stopChan)
}

func (m *Materializer) run(ctx context.Context) {
	// Первый запуск сразу при старте
	m.materialize(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.materialize(ctx)
		case <-m.stopChan:
			m.logger.Info("Materializer stopped")
			return
		case <-ctx.Done():
			m.logger.Info("Materializer cancelled")
			return
		}
	}
}

func (m *Materializer) materialize(ctx context.Context) {
	if err := m.bookings.MaterializeRecurring(ctx, m.weeksAhead); err != nil {
		m.logger.Error("Failed to materialize recurring bookings", zap.Error(err))
	}
}
