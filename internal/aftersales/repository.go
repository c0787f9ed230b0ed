package aftersales

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"shopcore-be/internal/ledger"
	"shopcore-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

type CreateParams struct {
	UserID       int64
	OrderID      int64
	Serial       string
	Type         Type
	Reason       string
	RefundAmount int64
	Pics         []string
	Items        []*Item
}

type Repository interface {
	Create(ctx context.Context, p CreateParams) (*Aftersale, error)
	Get(ctx context.Context, id int64) (*Aftersale, error)
	List(ctx context.Context, userID int64, limit, offset int32) ([]*Aftersale, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int32) ([]*Aftersale, error)
	Logs(ctx context.Context, aftersaleID int64) ([]*Log, error)
	Transition(ctx context.Context, id int64, from, to Status, actor, note string, pics []string) error
	Complete(ctx context.Context, id int64, actor string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Create records the application, its items, and the opening log row in one
// transaction. The partial unique index on open records per order turns a
// concurrent second application into a conflict instead of a duplicate.
func (r *repository) Create(ctx context.Context, p CreateParams) (*Aftersale, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "aftersales.Create"),
		zap.Int64("order_id", p.OrderID),
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

	a := &Aftersale{
		Serial: p.Serial, OrderID: p.OrderID, UserID: p.UserID,
		Type: p.Type, Reason: p.Reason, RefundAmount: p.RefundAmount,
		Pics: p.Pics, Status: StatusInReview,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO aftersales (serial, order_id, user_id, type, reason, refund_amount, pics, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, p.Serial, p.OrderID, p.UserID, p.Type, p.Reason, p.RefundAmount, picsArray(p.Pics), StatusInReview).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return nil, ErrOpenExists
		}
		return nil, fmt.Errorf("insert aftersale: %w", err)
	}

	for _, it := range p.Items {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO aftersales_items (aftersale_id, order_item_id, product_id, product_name, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, a.ID, it.OrderItemID, it.ProductID, it.ProductName, it.Quantity, it.Price).Scan(&it.ID)
		if err != nil {
			return nil, fmt.Errorf("insert aftersale item: %w", err)
		}
		it.AftersaleID = a.ID
	}

	if err := appendLog(ctx, tx, a.ID, "", StatusInReview, "user", p.Reason, p.Pics); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit aftersale creation: %w", err)
	}
	committed = true

	a.Items = p.Items
	log.Info("aftersale created", zap.Int64("aftersale_id", a.ID), zap.String("serial", a.Serial))
	return a, nil
}

func appendLog(ctx context.Context, tx *sql.Tx, aftersaleID int64, from, to Status, actor, note string, pics []string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO aftersales_logs (aftersale_id, from_status, to_status, actor, note, pics)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, aftersaleID, from, to, actor, note, picsArray(pics))
	if err != nil {
		return fmt.Errorf("append aftersale log: %w", err)
	}
	return nil
}

// picsArray keeps the NOT NULL pics column happy when no evidence was
// attached.
func picsArray(pics []string) interface {
	driver.Valuer
	sql.Scanner
} {
	if pics == nil {
		pics = []string{}
	}
	return pq.Array(pics)
}

// Transition moves a record one step and writes its log row in the same
// transaction. The from-state guard means a raced or repeated call affects
// zero rows and leaves no duplicate log behind.
func (r *repository) Transition(ctx context.Context, id int64, from, to Status, actor, note string, pics []string) error {
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

	res, err := tx.ExecContext(ctx, `
		UPDATE aftersales
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("transition aftersale: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBadTransition
	}

	if err := appendLog(ctx, tx, id, from, to, actor, note, pics); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Complete closes a returned record: the refund lands on the user's balance
// and the order flips to refunded, all in one transaction. The
// returned-state guard makes the credit fire at most once.
func (r *repository) Complete(ctx context.Context, id int64, actor string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "aftersales.Complete"),
		zap.Int64("aftersale_id", id),
	)

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

	var userID, orderID, refund int64
	var serial string
	err = tx.QueryRowContext(ctx, `
		UPDATE aftersales
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING user_id, order_id, refund_amount, serial
	`, id, StatusCompleted, StatusReturned).Scan(&userID, &orderID, &refund, &serial)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadTransition
	}
	if err != nil {
		return fmt.Errorf("complete aftersale: %w", err)
	}

	if refund > 0 {
		if err := ledger.CreditTx(ctx, tx, userID, ledger.KindBalance, refund, ledger.ReasonRefund, serial); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'refunded', payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1
	`, orderID)
	if err != nil {
		return fmt.Errorf("mark order refunded: %w", err)
	}

	if err := appendLog(ctx, tx, id, StatusReturned, StatusCompleted, actor, "", nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	log.Info("aftersale completed", zap.Int64("refund_amount", refund))
	return nil
}

const aftersaleCols = "id, serial, order_id, user_id, type, reason, refund_amount, pics, status, created_at, updated_at"

func scanAftersale(row interface{ Scan(...any) error }) (*Aftersale, error) {
	var a Aftersale
	err := row.Scan(&a.ID, &a.Serial, &a.OrderID, &a.UserID, &a.Type, &a.Reason,
		&a.RefundAmount, pq.Array(&a.Pics), &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Aftersale, error) {
	a, err := scanAftersale(r.db.QueryRowContext(ctx,
		`SELECT `+aftersaleCols+` FROM aftersales WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aftersale_id, order_item_id, product_id, product_name, quantity, price
		FROM aftersales_items
		WHERE aftersale_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.AftersaleID, &it.OrderItemID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		a.Items = append(a.Items, &it)
	}
	return a, rows.Err()
}

func (r *repository) List(ctx context.Context, userID int64, limit, offset int32) ([]*Aftersale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+aftersaleCols+` FROM aftersales
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAftersales(rows)
}

func (r *repository) ListByStatus(ctx context.Context, status Status, limit, offset int32) ([]*Aftersale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+aftersaleCols+` FROM aftersales
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAftersales(rows)
}

func collectAftersales(rows *sql.Rows) ([]*Aftersale, error) {
	var out []*Aftersale
	for rows.Next() {
		a, err := scanAftersale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Logs(ctx context.Context, aftersaleID int64) ([]*Log, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aftersale_id, from_status, to_status, actor, note, pics, created_at
		FROM aftersales_logs
		WHERE aftersale_id = $1
		ORDER BY id
	`, aftersaleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.AftersaleID, &l.FromStatus, &l.ToStatus, &l.Actor, &l.Note, pq.Array(&l.Pics), &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
