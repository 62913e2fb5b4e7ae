package dialog

import "context"

type State string

const (
	StateIdle State = "idle"

	// Новый заказ / добавление позиций / редактирование
	StateOrderBatch     State = "order_batch"
	StateOrderCustomer  State = "order_customer"
	StateOrderAddress   State = "order_address"
	StateOrderPhone     State = "order_phone"
	StateOrderTransport State = "order_transport" // выбор кнопкой
	StateOrderItems     State = "order_items"     // строки "товар; цена; кол-во"
	StateOrderAdvance   State = "order_advance"
	StateOrderPaid      State = "order_paid" // да/нет кнопкой
	StateOrderNote      State = "order_note"
	StateOrderConfirm   State = "order_confirm"

	// Подтверждение удаления всех заказов клиента
	StateDeleteCustomer State = "delete_customer"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}

// Store хранилище состояний диалога: Postgres (Repo) или память (MemRepo).
type Store interface {
	Get(ctx context.Context, chatID int64) (*Item, error)
	Set(ctx context.Context, chatID int64, state State, payload Payload) error
	Reset(ctx context.Context, chatID int64) error
}
