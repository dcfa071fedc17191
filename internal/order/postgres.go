package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRepository stores orders in PostgreSQL:
//
//	CREATE TABLE IF NOT EXISTS orders (
//	    id             TEXT PRIMARY KEY,
//	    number         TEXT NOT NULL UNIQUE,
//	    user_id        TEXT,
//	    customer       JSONB NOT NULL,
//	    items          JSONB NOT NULL,
//	    total          INTEGER NOT NULL,
//	    status         TEXT NOT NULL,
//	    payment_method TEXT NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL
//	)
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("failed to encode customer: %w", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, number, user_id, customer, items, total, status, payment_method, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.Number, o.UserID, customer, items, o.Total, o.Status, o.PaymentMethod,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

const orderColumns = `id, number, COALESCE(user_id, ''), customer, items, total, status, payment_method, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.getOne(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOne(ctx, "SELECT "+orderColumns+" FROM orders WHERE number = $1", number)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*Order, error) {
	var (
		o               Order
		customer, items []byte
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&o.ID, &o.Number, &o.UserID, &customer, &items, &o.Total,
		&o.Status, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return &o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var (
			o               Order
			customer, items []byte
		)
		if err := rows.Scan(&o.ID, &o.Number, &o.UserID, &customer, &items, &o.Total,
			&o.Status, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(customer, &o.Customer); err != nil {
			return nil, fmt.Errorf("failed to decode customer: %w", err)
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
