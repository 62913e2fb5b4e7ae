package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// List порядок как в store: новые сверху.
func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, created_at, batch_name, customer_name, address, phone_number,
		       product_name, selling_price, quantity, advance_paid, transport_mode,
		       is_full_payment_received, note
		FROM orders
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var mode string
		if err := rows.Scan(
			&o.ID, &o.GroupID, &o.CreatedAt, &o.BatchName, &o.CustomerName, &o.Address, &o.PhoneNumber,
			&o.ProductName, &o.SellingPrice, &o.Quantity, &o.AdvancePaid, &mode,
			&o.IsFullPaymentReceived, &o.Note,
		); err != nil {
			return nil, err
		}
		o.TransportMode = ParseTransport(mode)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ReplaceAll очищает таблицу и записывает всё заново (last write wins).
func (r *Repo) ReplaceAll(ctx context.Context, list []Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM orders`); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, o := range list {
		batch.Queue(`
			INSERT INTO orders (position, id, group_id, created_at, batch_name, customer_name, address,
			                    phone_number, product_name, selling_price, quantity, advance_paid,
			                    transport_mode, is_full_payment_received, note)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`, i, o.ID, o.GroupID, o.CreatedAt, o.BatchName, o.CustomerName, o.Address,
			o.PhoneNumber, o.ProductName, o.SellingPrice, o.Quantity, o.AdvancePaid,
			string(o.TransportMode), o.IsFullPaymentReceived, o.Note)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
