package ledger

import (
	"context"
	"fmt"

	"shopcore-be/internal/db"
)

// The five ledger operations are written against db.DBTX so other packages
// (order, withdraw, aftersales) can fold a ledger move into their own
// transaction; an entry row and its balance effect then commit or roll back
// together with everything else in that unit.

// CreditTx adds amount to available. Creates the account row on first use.
func CreditTx(ctx context.Context, q db.DBTX, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	if err := checkArgs(kind, amount); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (user_id, kind, available, frozen)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, kind)
		DO UPDATE SET available = accounts.available + EXCLUDED.available, updated_at = NOW()
	`, userID, kind, amount)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	return appendEntry(ctx, q, userID, kind, amount, reason, refID)
}

// DebitTx subtracts amount from available. The balance check and the
// subtraction are one conditional statement; zero rows affected means the
// funds were not there and nothing moved.
func DebitTx(ctx context.Context, q db.DBTX, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	if err := checkArgs(kind, amount); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET available = available - $1, updated_at = NOW()
		WHERE user_id = $2 AND kind = $3 AND available >= $1
	`, amount, userID, kind)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientAvailable
	}

	return appendEntry(ctx, q, userID, kind, -amount, reason, refID)
}

// FreezeTx moves amount from available to frozen.
func FreezeTx(ctx context.Context, q db.DBTX, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	if err := checkArgs(kind, amount); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET available = available - $1, frozen = frozen + $1, updated_at = NOW()
		WHERE user_id = $2 AND kind = $3 AND available >= $1
	`, amount, userID, kind)
	if err != nil {
		return fmt.Errorf("freeze account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientAvailable
	}

	return appendEntry(ctx, q, userID, kind, -amount, reason, refID)
}

// UnfreezeTx moves amount from frozen back to available.
func UnfreezeTx(ctx context.Context, q db.DBTX, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	if err := checkArgs(kind, amount); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET frozen = frozen - $1, available = available + $1, updated_at = NOW()
		WHERE user_id = $2 AND kind = $3 AND frozen >= $1
	`, amount, userID, kind)
	if err != nil {
		return fmt.Errorf("unfreeze account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientFrozen
	}

	return appendEntry(ctx, q, userID, kind, amount, reason, refID)
}

// SettleFrozenTx removes amount from frozen permanently (a completed
// payout).
func SettleFrozenTx(ctx context.Context, q db.DBTX, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	if err := checkArgs(kind, amount); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET frozen = frozen - $1, updated_at = NOW()
		WHERE user_id = $2 AND kind = $3 AND frozen >= $1
	`, amount, userID, kind)
	if err != nil {
		return fmt.Errorf("settle frozen: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientFrozen
	}

	return appendEntry(ctx, q, userID, kind, -amount, reason, refID)
}

func appendEntry(ctx context.Context, q db.DBTX, userID int64, kind Kind, delta int64, reason Reason, refID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries (user_id, kind, delta, reason, ref_id)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, kind, delta, reason, refID)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func checkArgs(kind Kind, amount int64) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
