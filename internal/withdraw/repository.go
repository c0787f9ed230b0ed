package withdraw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopcore-be/internal/ledger"
	"shopcore-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Apply(ctx context.Context, userID, amount, fee, actual int64) (*Apply, error)
	Approve(ctx context.Context, applyID int64) error
	Reject(ctx context.Context, applyID int64, remark string) error
	Get(ctx context.Context, applyID int64) (*Apply, error)
	List(ctx context.Context, userID int64, limit, offset int32) ([]*Apply, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int32) ([]*Apply, error)

	CreateRecharge(ctx context.Context, userID int64, sn string, amount int64) (*Recharge, error)
	CompleteRecharge(ctx context.Context, sn string) error
	ListRecharges(ctx context.Context, userID int64, limit, offset int32) ([]*Recharge, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func refID(applyID int64) string { return fmt.Sprintf("WD-%d", applyID) }

// Apply freezes the full amount and records the pending application in one
// transaction. A balance shortfall rolls both back.
func (r *repository) Apply(ctx context.Context, userID, amount, fee, actual int64) (*Apply, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "withdraw.Apply"),
		zap.Int64("user_id", userID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	a := &Apply{UserID: userID, Amount: amount, Fee: fee, Actual: actual, Status: StatusPending}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO withdraw_applies (user_id, amount, fee, actual, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, userID, amount, fee, actual, StatusPending).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert withdraw apply: %w", err)
	}

	if err := ledger.FreezeTx(ctx, tx, userID, ledger.KindBalance, amount, ledger.ReasonWithdrawFreeze, refID(a.ID)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit withdraw apply: %w", err)
	}
	committed = true

	log.Info("withdraw applied",
		zap.Int64("apply_id", a.ID),
		zap.Int64("amount", amount),
		zap.Int64("fee", fee),
	)
	return a, nil
}

// Approve settles a pending application: the frozen amount leaves the
// account for good. The status guard on the UPDATE makes a second approval
// affect zero rows.
func (r *repository) Approve(ctx context.Context, applyID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var userID, amount int64
	err = tx.QueryRowContext(ctx, `
		UPDATE withdraw_applies
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING user_id, amount
	`, applyID, StatusSettled, StatusPending).Scan(&userID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotPending
	}
	if err != nil {
		return fmt.Errorf("approve withdraw: %w", err)
	}

	if err := ledger.SettleFrozenTx(ctx, tx, userID, ledger.KindBalance, amount, ledger.ReasonWithdrawSettle, refID(applyID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Reject returns the frozen amount to available under the same pending
// guard as Approve.
func (r *repository) Reject(ctx context.Context, applyID int64, remark string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var userID, amount int64
	err = tx.QueryRowContext(ctx, `
		UPDATE withdraw_applies
		SET status = $2, remark = $4, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING user_id, amount
	`, applyID, StatusRejected, StatusPending, remark).Scan(&userID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotPending
	}
	if err != nil {
		return fmt.Errorf("reject withdraw: %w", err)
	}

	if err := ledger.UnfreezeTx(ctx, tx, userID, ledger.KindBalance, amount, ledger.ReasonWithdrawUnfreeze, refID(applyID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const applyCols = "id, user_id, amount, fee, actual, status, remark, created_at, updated_at"

func scanApply(row interface{ Scan(...any) error }) (*Apply, error) {
	var a Apply
	err := row.Scan(&a.ID, &a.UserID, &a.Amount, &a.Fee, &a.Actual, &a.Status, &a.Remark, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Get(ctx context.Context, applyID int64) (*Apply, error) {
	a, err := scanApply(r.db.QueryRowContext(ctx,
		`SELECT `+applyCols+` FROM withdraw_applies WHERE id = $1`, applyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrApplyNotFound
	}
	return a, err
}

func (r *repository) List(ctx context.Context, userID int64, limit, offset int32) ([]*Apply, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applyCols+` FROM withdraw_applies
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplies(rows)
}

func (r *repository) ListByStatus(ctx context.Context, status Status, limit, offset int32) ([]*Apply, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applyCols+` FROM withdraw_applies
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplies(rows)
}

func collectApplies(rows *sql.Rows) ([]*Apply, error) {
	var out []*Apply
	for rows.Next() {
		a, err := scanApply(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) CreateRecharge(ctx context.Context, userID int64, sn string, amount int64) (*Recharge, error) {
	rc := &Recharge{SN: sn, UserID: userID, Amount: amount, Status: RechargePending}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO recharge_applies (sn, user_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, sn, userID, amount, RechargePending).Scan(&rc.ID, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert recharge: %w", err)
	}
	return rc, nil
}

// CompleteRecharge credits the balance once per application: the pending
// guard absorbs duplicate payment callbacks.
func (r *repository) CompleteRecharge(ctx context.Context, sn string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var userID, amount int64
	err = tx.QueryRowContext(ctx, `
		UPDATE recharge_applies
		SET status = $2, updated_at = NOW()
		WHERE sn = $1 AND status = $3
		RETURNING user_id, amount
	`, sn, RechargePaid, RechargePending).Scan(&userID, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRechargeNotOpen
	}
	if err != nil {
		return fmt.Errorf("complete recharge: %w", err)
	}

	if err := ledger.CreditTx(ctx, tx, userID, ledger.KindBalance, amount, ledger.ReasonRecharge, sn); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *repository) ListRecharges(ctx context.Context, userID int64, limit, offset int32) ([]*Recharge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sn, user_id, amount, status, created_at, updated_at
		FROM recharge_applies
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Recharge
	for rows.Next() {
		var rc Recharge
		if err := rows.Scan(&rc.ID, &rc.SN, &rc.UserID, &rc.Amount, &rc.Status, &rc.CreatedAt, &rc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rc)
	}
	return out, rows.Err()
}
