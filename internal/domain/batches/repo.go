package batches

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) List(ctx context.Context) ([]Cost, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT batch_name, total_cost_price, oat_input_value, delivery_fee_quantity
		FROM batch_costs
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cost
	for rows.Next() {
		var c Cost
		var qty sql.NullFloat64
		if err := rows.Scan(&c.BatchName, &c.TotalCostPrice, &c.OatInputValue, &qty); err != nil {
			return nil, err
		}
		if qty.Valid {
			c.DeliveryFeeQuantity = Qty(qty.Float64)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceAll очистить и переписать все затраты одной транзакцией.
func (r *Repo) ReplaceAll(ctx context.Context, list []Cost) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM batch_costs`); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, c := range list {
		batch.Queue(`
			INSERT INTO batch_costs (position, batch_name, total_cost_price, oat_input_value, delivery_fee_quantity)
			VALUES ($1,$2,$3,$4,$5)
		`, i, c.BatchName, c.TotalCostPrice, c.OatInputValue, c.DeliveryFeeQuantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
