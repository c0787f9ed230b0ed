package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopcore-be/internal/db"

	"github.com/lib/pq"
)

type Repository interface {
	CreateTemplate(ctx context.Context, tpl *Template) (int64, error)
	GetTemplate(ctx context.Context, id int64) (*Template, error)
	ListTemplates(ctx context.Context, onlyActive bool, limit, offset int32) ([]*Template, error)

	Claim(ctx context.Context, userID, templateID int64) (*UserCoupon, error)
	GetUserCoupon(ctx context.Context, id int64) (*UserCoupon, error)
	ListUserCoupons(ctx context.Context, userID int64, status *Status) ([]*UserCoupon, error)
	Use(ctx context.Context, userCouponID, userID, orderID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(database *sql.DB) Repository {
	return &repository{db: database}
}

const templateCols = `id, code, name, type, value, min_amount, max_amount,
	total_limit, claimed_count, per_user_limit, starts_at, ends_at, active, created_at`

func scanTemplate(row interface{ Scan(...any) error }) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Type, &t.Value, &t.MinAmount, &t.MaxAmount,
		&t.TotalLimit, &t.ClaimedCount, &t.PerUserLimit, &t.StartsAt, &t.EndsAt, &t.Active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) CreateTemplate(ctx context.Context, tpl *Template) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO coupon_templates
			(code, name, type, value, min_amount, max_amount, total_limit, per_user_limit, starts_at, ends_at, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, tpl.Code, tpl.Name, tpl.Type, tpl.Value, tpl.MinAmount, tpl.MaxAmount,
		tpl.TotalLimit, tpl.PerUserLimit, tpl.StartsAt, tpl.EndsAt, tpl.Active).Scan(&id)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
		return 0, fmt.Errorf("coupon code %q taken: %w", tpl.Code, err)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM coupon_templates WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	return t, err
}

func (r *repository) ListTemplates(ctx context.Context, onlyActive bool, limit, offset int32) ([]*Template, error) {
	query := `SELECT ` + templateCols + ` FROM coupon_templates`
	args := []any{}
	if onlyActive {
		query += ` WHERE active AND NOW() BETWEEN starts_at AND ends_at`
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Claim issues one instance of a template to a user. The quota check and
// the counter increment are a single conditional UPDATE that also
// row-locks the template; the per-user count check behind the INSERT is
// therefore serialized against concurrent claims of the same template, and
// the partial unique index on (user_id, template_id) backstops the
// single-claim invariant. Any failure rolls the counter back too.
func (r *repository) Claim(ctx context.Context, userID, templateID int64) (*UserCoupon, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE coupon_templates
		SET claimed_count = claimed_count + 1
		WHERE id = $1 AND active
		  AND NOW() BETWEEN starts_at AND ends_at
		  AND (total_limit = 0 OR claimed_count < total_limit)
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("increment claim counter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing template from an exhausted/inactive one.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM coupon_templates WHERE id = $1)`, templateID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrTemplateNotFound
		}
		return nil, ErrNotClaimable
	}

	var uc UserCoupon
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_coupons (template_id, user_id, status)
		SELECT $1, $2, 'unused'
		WHERE (
			SELECT COUNT(*) FROM user_coupons
			WHERE template_id = $1 AND user_id = $2 AND status IN ('unused', 'used')
		) < (SELECT per_user_limit FROM coupon_templates WHERE id = $1)
		RETURNING id, template_id, user_id, status, created_at
	`, templateID, userID).Scan(&uc.ID, &uc.TemplateID, &uc.UserID, &uc.Status, &uc.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateClaim
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
		return nil, ErrDuplicateClaim
	}
	if err != nil {
		return nil, fmt.Errorf("insert user coupon: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &uc, nil
}

func (r *repository) GetUserCoupon(ctx context.Context, id int64) (*UserCoupon, error) {
	var uc UserCoupon
	var t Template
	err := r.db.QueryRowContext(ctx, `
		SELECT uc.id, uc.template_id, uc.user_id, uc.status, uc.use_time, uc.order_id, uc.created_at,
		       t.id, t.code, t.name, t.type, t.value, t.min_amount, t.max_amount,
		       t.total_limit, t.claimed_count, t.per_user_limit, t.starts_at, t.ends_at, t.active, t.created_at
		FROM user_coupons uc
		JOIN coupon_templates t ON t.id = uc.template_id
		WHERE uc.id = $1
	`, id).Scan(
		&uc.ID, &uc.TemplateID, &uc.UserID, &uc.Status, &uc.UseTime, &uc.OrderID, &uc.CreatedAt,
		&t.ID, &t.Code, &t.Name, &t.Type, &t.Value, &t.MinAmount, &t.MaxAmount,
		&t.TotalLimit, &t.ClaimedCount, &t.PerUserLimit, &t.StartsAt, &t.EndsAt, &t.Active, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	uc.Template = &t
	return &uc, nil
}

func (r *repository) ListUserCoupons(ctx context.Context, userID int64, status *Status) ([]*UserCoupon, error) {
	query := `
		SELECT uc.id, uc.template_id, uc.user_id, uc.status, uc.use_time, uc.order_id, uc.created_at,
		       t.id, t.code, t.name, t.type, t.value, t.min_amount, t.max_amount,
		       t.total_limit, t.claimed_count, t.per_user_limit, t.starts_at, t.ends_at, t.active, t.created_at
		FROM user_coupons uc
		JOIN coupon_templates t ON t.id = uc.template_id
		WHERE uc.user_id = $1
	`
	args := []any{userID}
	if status != nil {
		query += ` AND uc.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY uc.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*UserCoupon
	for rows.Next() {
		var uc UserCoupon
		var t Template
		if err := rows.Scan(
			&uc.ID, &uc.TemplateID, &uc.UserID, &uc.Status, &uc.UseTime, &uc.OrderID, &uc.CreatedAt,
			&t.ID, &t.Code, &t.Name, &t.Type, &t.Value, &t.MinAmount, &t.MaxAmount,
			&t.TotalLimit, &t.ClaimedCount, &t.PerUserLimit, &t.StartsAt, &t.EndsAt, &t.Active, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		uc.Template = &t
		out = append(out, &uc)
	}
	return out, rows.Err()
}

func (r *repository) Use(ctx context.Context, userCouponID, userID, orderID int64) error {
	return UseTx(ctx, r.db, userCouponID, userID, orderID)
}

// UseTx flips a claim unused → used. Re-invoking on an already-used claim
// affects zero rows and fails Conflict with the record unchanged.
func UseTx(ctx context.Context, q db.DBTX, userCouponID, userID, orderID int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE user_coupons
		SET status = 'used', use_time = NOW(), order_id = $3
		WHERE id = $1 AND user_id = $2 AND status = 'unused'
	`, userCouponID, userID, orderID)
	if err != nil {
		return fmt.Errorf("use coupon: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyUsed
	}
	return nil
}

// UnuseTx reverts a use when the order it paid for is cancelled. Guarded by
// the order id so it can never release a claim consumed by another order.
func UnuseTx(ctx context.Context, q db.DBTX, userCouponID, orderID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE user_coupons
		SET status = 'unused', use_time = NULL, order_id = NULL
		WHERE id = $1 AND order_id = $2 AND status = 'used'
	`, userCouponID, orderID)
	if err != nil {
		return fmt.Errorf("unuse coupon: %w", err)
	}
	return nil
}
