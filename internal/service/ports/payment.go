package ports

import "context"

// Payment внешний платёжный процессор. Вызывается синхронно внутри
// атомарной единицы: отклонённый платёж откатывает всё бронирование.
type Payment interface {
	// Authorize авторизует платёж и возвращает ссылку платежа,
	// model.ErrPaymentDeclined при отказе
	Authorize(ctx context.Context, amountCents int, method string) (string, error)
}
