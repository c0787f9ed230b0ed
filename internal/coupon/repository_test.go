package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Claim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE coupon_templates SET claimed_count = claimed_count \+ 1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO user_coupons \(template_id, user_id, status\)`).
			WithArgs(int64(5), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "user_id", "status", "created_at"}).
				AddRow(11, 5, 1, "unused", time.Now()))
		mock.ExpectCommit()

		uc, err := repo.Claim(ctx, 1, 5)
		assert.NoError(t, err)
		assert.Equal(t, int64(11), uc.ID)
		assert.Equal(t, StatusUnused, uc.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("QuotaExhaustedRollsCounterBack", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE coupon_templates SET claimed_count = claimed_count \+ 1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.Claim(ctx, 1, 5)
		assert.ErrorIs(t, err, ErrNotClaimable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingTemplate", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE coupon_templates SET claimed_count = claimed_count \+ 1`).
			WithArgs(int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := repo.Claim(ctx, 1, 404)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("PerUserLimitReached", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE coupon_templates SET claimed_count = claimed_count \+ 1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO user_coupons \(template_id, user_id, status\)`).
			WithArgs(int64(5), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"})) // zero rows
		mock.ExpectRollback()

		_, err := repo.Claim(ctx, 1, 5)
		assert.ErrorIs(t, err, ErrDuplicateClaim)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UniqueIndexRaceMapsToDuplicate", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE coupon_templates SET claimed_count = claimed_count \+ 1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO user_coupons \(template_id, user_id, status\)`).
			WithArgs(int64(5), int64(1)).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.Claim(ctx, 1, 5)
		assert.ErrorIs(t, err, ErrDuplicateClaim)
	})
}

func TestUseTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	t.Run("UnusedBecomesUsed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE user_coupons SET status = 'used', use_time = NOW\(\), order_id = \$3 WHERE id = \$1 AND user_id = \$2 AND status = 'unused'`).
			WithArgs(int64(11), int64(1), int64(77)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := UseTx(ctx, db, 11, 1, 77)
		assert.NoError(t, err)
	})

	t.Run("SecondUseConflictsAndChangesNothing", func(t *testing.T) {
		mock.ExpectExec(`UPDATE user_coupons SET status = 'used'`).
			WithArgs(int64(11), int64(1), int64(78)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := UseTx(ctx, db, 11, 1, 78)
		assert.ErrorIs(t, err, ErrAlreadyUsed)
	})
}

func TestRepository_GetUserCoupon(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	cols := []string{
		"id", "template_id", "user_id", "status", "use_time", "order_id", "created_at",
		"t_id", "code", "name", "type", "value", "min_amount", "max_amount",
		"total_limit", "claimed_count", "per_user_limit", "starts_at", "ends_at", "active", "t_created_at",
	}

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows(cols).AddRow(
			11, 5, 1, "unused", nil, nil, time.Now(),
			5, "WELCOME", "Welcome coupon", "percentage", 20, 0, 50,
			100, 3, 1, time.Now().Add(-time.Hour), time.Now().Add(time.Hour), true, time.Now(),
		)

		mock.ExpectQuery(`SELECT uc.id, uc.template_id, .* FROM user_coupons uc JOIN coupon_templates t`).
			WithArgs(int64(11)).
			WillReturnRows(rows)

		uc, err := repo.GetUserCoupon(ctx, 11)
		assert.NoError(t, err)
		require.NotNil(t, uc.Template)
		assert.Equal(t, TypePercentage, uc.Template.Type)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT uc.id, uc.template_id, .* FROM user_coupons uc`).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetUserCoupon(ctx, 404)
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})
}
