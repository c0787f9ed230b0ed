package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopcore-be/internal/db"

	"github.com/lib/pq"
)

type Repository interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, onlyActive bool, limit, offset int32) ([]*Product, error)
	GetForUpdate(ctx context.Context, q db.DBTX, ids []int64) (map[int64]*Product, error)
	DecrementStockTx(ctx context.Context, q db.DBTX, productID int64, qty int) error
	RestoreStockTx(ctx context.Context, q db.DBTX, productID int64, qty int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, stock, status, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListProducts(ctx context.Context, onlyActive bool, limit, offset int32) ([]*Product, error) {
	query := `
		SELECT id, name, price, stock, status, created_at, updated_at
		FROM products
	`
	args := []any{}
	if onlyActive {
		query += ` WHERE status = $1`
		args = append(args, StatusActive)
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// GetForUpdate loads and row-locks every product an order touches. Locking
// up front keeps the subsequent per-line conditional decrements free of
// deadlock regardless of line order in concurrent orders.
func (r *repository) GetForUpdate(ctx context.Context, q db.DBTX, ids []int64) (map[int64]*Product, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, price, stock, status, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]*Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}

// DecrementStockTx takes qty off a product's stock. The availability check
// and the subtraction are one conditional statement; zero rows affected
// means the stock was not there and nothing moved.
func (r *repository) DecrementStockTx(ctx context.Context, q db.DBTX, productID int64, qty int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStockShort
	}
	return nil
}

func (r *repository) RestoreStockTx(ctx context.Context, q db.DBTX, productID int64, qty int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}
