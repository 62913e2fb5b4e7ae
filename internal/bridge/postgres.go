package bridge

import (
	"context"
	"fmt"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/store"
)

// Postgres хранилище в таблицах orders / batch_costs (см. migrations).
type Postgres struct {
	orders *orders.Repo
	costs  *batches.Repo
}

func NewPostgres(o *orders.Repo, c *batches.Repo) *Postgres {
	return &Postgres{orders: o, costs: c}
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Load(ctx context.Context) (store.Snapshot, error) {
	snap := emptySnapshot()
	list, err := p.orders.List(ctx)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("bridge: list orders: %w", err)
	}
	costs, err := p.costs.List(ctx)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("bridge: list batch costs: %w", err)
	}
	if list != nil {
		snap.Orders = list
	}
	if costs != nil {
		snap.BatchCosts = costs
	}
	return snap, nil
}

func (p *Postgres) SaveOrders(ctx context.Context, list []orders.Order) error {
	return p.orders.ReplaceAll(ctx, list)
}

func (p *Postgres) SaveBatchCosts(ctx context.Context, list []batches.Cost) error {
	return p.costs.ReplaceAll(ctx, list)
}
