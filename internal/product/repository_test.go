package product

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "price", "stock", "status", "created_at", "updated_at"}).
			AddRow(1, "Keyboard", 12900, 5, StatusActive, time.Now(), time.Now())

		mock.ExpectQuery(`SELECT id, name, price, stock, status, created_at, updated_at FROM products WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		p, err := repo.GetProduct(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, "Keyboard", p.Name)
		assert.Equal(t, 5, p.Stock)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, price, stock, status, created_at, updated_at FROM products`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetProduct(ctx, 99)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestRepository_DecrementStockTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = stock - \$1, updated_at = NOW\(\) WHERE id = \$2 AND stock >= \$1`).
			WithArgs(3, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DecrementStockTx(ctx, db, 1, 3)
		assert.NoError(t, err)
	})

	t.Run("ShortStock", func(t *testing.T) {
		mock.ExpectExec(`UPDATE products SET stock = stock - \$1`).
			WithArgs(10, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DecrementStockTx(ctx, db, 1, 10)
		assert.ErrorIs(t, err, ErrStockShort)
	})
}

func TestRepository_GetForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name", "price", "stock", "status", "created_at", "updated_at"}).
		AddRow(1, "Keyboard", 12900, 5, StatusActive, time.Now(), time.Now()).
		AddRow(2, "Mouse", 4900, 0, StatusActive, time.Now(), time.Now())

	mock.ExpectQuery(`SELECT id, name, price, stock, status, created_at, updated_at FROM products WHERE id = ANY\(\$1\) ORDER BY id FOR UPDATE`).
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnRows(rows)

	got, err := repo.GetForUpdate(ctx, db, []int64{1, 2})
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 0, got[2].Stock)
}
