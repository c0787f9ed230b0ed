package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository interface {
	GetAccount(ctx context.Context, userID int64, kind Kind) (*Account, error)
	ListEntries(ctx context.Context, userID int64, kind Kind, limit, offset int32) ([]*Entry, error)

	Credit(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error
	Debit(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error
	Freeze(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error
	Unfreeze(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error
	SettleFrozen(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetAccount returns a zero-valued account when the user has no row yet;
// an account materializes on first credit.
func (r *repository) GetAccount(ctx context.Context, userID int64, kind Kind) (*Account, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	var a Account
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, available, frozen, created_at, updated_at
		FROM accounts
		WHERE user_id = $1 AND kind = $2
	`, userID, kind).Scan(&a.ID, &a.UserID, &a.Kind, &a.Available, &a.Frozen, &a.CreatedAt, &a.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return &Account{UserID: userID, Kind: kind}, nil
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *repository) ListEntries(ctx context.Context, userID int64, kind Kind, limit, offset int32) ([]*Entry, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, delta, reason, ref_id, created_at
		FROM ledger_entries
		WHERE user_id = $1 AND kind = $2
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`, userID, kind, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Delta, &e.Reason, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

func (r *repository) Credit(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return CreditTx(ctx, tx, userID, kind, amount, reason, refID)
	})
}

func (r *repository) Debit(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return DebitTx(ctx, tx, userID, kind, amount, reason, refID)
	})
}

func (r *repository) Freeze(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return FreezeTx(ctx, tx, userID, kind, amount, reason, refID)
	})
}

func (r *repository) Unfreeze(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return UnfreezeTx(ctx, tx, userID, kind, amount, reason, refID)
	})
}

func (r *repository) SettleFrozen(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return SettleFrozenTx(ctx, tx, userID, kind, amount, reason, refID)
	})
}

// inTx runs fn inside one transaction; the balance mutation and its entry
// row commit together or not at all.
func (r *repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
