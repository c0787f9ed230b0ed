package withdraw

import (
	"context"
	"testing"
	"time"

	"shopcore-be/internal/ledger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Apply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("FreezesAndRecordsPending", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO withdraw_applies`).
			WithArgs(int64(9), int64(6000), int64(600), int64(5400), StatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(41), now, now))
		mock.ExpectExec(`UPDATE accounts SET available = available - \$1, frozen = frozen \+ \$1`).
			WithArgs(int64(6000), int64(9), ledger.KindBalance).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO ledger_entries`).
			WithArgs(int64(9), ledger.KindBalance, int64(-6000), ledger.ReasonWithdrawFreeze, "WD-41").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		a, err := repo.Apply(ctx, 9, 6000, 600, 5400)
		require.NoError(t, err)
		assert.Equal(t, int64(41), a.ID)
		assert.Equal(t, StatusPending, a.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BalanceShortfallRollsBackApplication", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO withdraw_applies`).
			WithArgs(int64(9), int64(6000), int64(600), int64(5400), StatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))
		mock.ExpectExec(`UPDATE accounts SET available = available - \$1, frozen = frozen \+ \$1`).
			WithArgs(int64(6000), int64(9), ledger.KindBalance).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.Apply(ctx, 9, 6000, 600, 5400)
		assert.ErrorIs(t, err, ledger.ErrInsufficientAvailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Approve(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("SettlesFrozenOnce", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE withdraw_applies\s+SET status = \$2`).
			WithArgs(int64(41), StatusSettled, StatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount"}).AddRow(int64(9), int64(6000)))
		mock.ExpectExec(`UPDATE accounts SET frozen = frozen - \$1`).
			WithArgs(int64(6000), int64(9), ledger.KindBalance).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO ledger_entries`).
			WithArgs(int64(9), ledger.KindBalance, int64(-6000), ledger.ReasonWithdrawSettle, "WD-41").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.Approve(ctx, 41))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SecondApprovalConflicts", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE withdraw_applies\s+SET status = \$2`).
			WithArgs(int64(41), StatusSettled, StatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount"}))
		mock.ExpectRollback()

		err := repo.Approve(ctx, 41)
		assert.ErrorIs(t, err, ErrNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Reject(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("UnfreezesBackToAvailable", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE withdraw_applies\s+SET status = \$2, remark = \$4`).
			WithArgs(int64(41), StatusRejected, StatusPending, "account flagged").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount"}).AddRow(int64(9), int64(6000)))
		mock.ExpectExec(`UPDATE accounts\s+SET frozen = frozen - \$1, available = available \+ \$1`).
			WithArgs(int64(6000), int64(9), ledger.KindBalance).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO ledger_entries`).
			WithArgs(int64(9), ledger.KindBalance, int64(6000), ledger.ReasonWithdrawUnfreeze, "WD-41").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.Reject(ctx, 41, "account flagged"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyDecidedConflicts", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE withdraw_applies\s+SET status = \$2, remark = \$4`).
			WithArgs(int64(41), StatusRejected, StatusPending, "late").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount"}))
		mock.ExpectRollback()

		err := repo.Reject(ctx, 41, "late")
		assert.ErrorIs(t, err, ErrNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_CompleteRecharge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("CreditsBalanceOnce", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE recharge_applies\s+SET status = \$2`).
			WithArgs("RC-1", RechargePaid, RechargePending).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount"}).AddRow(int64(9), int64(10000)))
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(int64(9), ledger.KindBalance, int64(10000)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO ledger_entries`).
			WithArgs(int64(9), ledger.KindBalance, int64(10000), ledger.ReasonRecharge, "RC-1").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.CompleteRecharge(ctx, "RC-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateCallbackConflicts", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE recharge_applies\s+SET status = \$2`).
			WithArgs("RC-1", RechargePaid, RechargePending).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount"}))
		mock.ExpectRollback()

		err := repo.CompleteRecharge(ctx, "RC-1")
		assert.ErrorIs(t, err, ErrRechargeNotOpen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
