// Package bridge хранилища, в которые синхронизируются заказы и затраты партий:
// Apps Script веб-приложение, локальная xlsx-книга, Postgres и локальные json-файлы.
// Каждое сохранение перезаписывает набор записей целиком.
package bridge

import (
	"context"
	"errors"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/store"
)

var (
	ErrNotConfigured = errors.New("bridge: remote is not configured")
	ErrInsecureURL   = errors.New("bridge: webapp url must be https")
)

// Remote внешнее хранилище полного набора записей.
type Remote interface {
	Name() string
	Load(ctx context.Context) (store.Snapshot, error)
	SaveOrders(ctx context.Context, list []orders.Order) error
	SaveBatchCosts(ctx context.Context, list []batches.Cost) error
}

func emptySnapshot() store.Snapshot {
	return store.Snapshot{Orders: []orders.Order{}, BatchCosts: []batches.Cost{}}
}
