package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopcore-be/internal/coupon"
	"shopcore-be/internal/ledger"
	"shopcore-be/internal/logger"
	"shopcore-be/internal/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

// CreateParams carries everything the creation transaction needs. Coupon,
// when set, has already passed ownership/window validation; the discount
// and min-amount are recomputed inside the transaction against the locked
// product prices.
type CreateParams struct {
	UserID      int64
	Serial      string
	Lines       []Line
	Address     AddressInput
	Coupon      *coupon.UserCoupon
	UseBalance  int64
	UsePoints   int64
	ShippingFee int64
}

type Repository interface {
	CreateOrder(ctx context.Context, p CreateParams) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	GetOrderBySN(ctx context.Context, sn string) (*Order, error)
	ListOrders(ctx context.Context, userID int64, filter *FilterInput, limit, offset int32) ([]*Order, error)
	Cancel(ctx context.Context, orderID int64, reason string) error
	Transition(ctx context.Context, orderID int64, from, to Status) error
	MarkPaid(ctx context.Context, orderSN string) error
	MarkRefundedTx(ctx context.Context, tx *sql.Tx, orderID int64) error
}

type repository struct {
	db       *sql.DB
	products product.Repository
}

func NewRepository(db *sql.DB, products product.Repository) Repository {
	return &repository{db: db, products: products}
}

// CreateOrder performs the whole creation unit atomically: stock check for
// every line before any mutation, coupon use, ledger debits, stock
// decrement, and the order/items/address inserts. Any failure inside rolls
// everything back; a short line never leaves another line's stock touched.
func (r *repository) CreateOrder(ctx context.Context, p CreateParams) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.String("order_sn", p.Serial),
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

	// 1. Lock every product, then verify every line before mutating any.
	ids := make([]int64, 0, len(p.Lines))
	for _, l := range p.Lines {
		ids = append(ids, l.ProductID)
	}
	locked, err := r.products.GetForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	var shorts []product.ShortLine
	var subtotal int64
	items := make([]*Item, 0, len(p.Lines))
	for _, l := range p.Lines {
		prod, ok := locked[l.ProductID]
		if !ok {
			return nil, product.ErrProductNotFound
		}
		if prod.Status != product.StatusActive {
			return nil, product.ErrProductInactive
		}
		if prod.Stock < l.Quantity {
			shorts = append(shorts, product.ShortLine{
				ProductID: prod.ID,
				Requested: l.Quantity,
				Available: prod.Stock,
			})
			continue
		}
		lineTotal := prod.Price * int64(l.Quantity)
		subtotal += lineTotal
		items = append(items, &Item{
			ProductID:   prod.ID,
			ProductName: prod.Name,
			Quantity:    l.Quantity,
			Price:       prod.Price,
			LineTotal:   lineTotal,
		})
	}
	if len(shorts) > 0 {
		return nil, stockShortError(shorts)
	}

	// 2. Recompute the discount against locked prices.
	var discount int64
	var couponID *int64
	if p.Coupon != nil {
		if subtotal < p.Coupon.Template.MinAmount {
			return nil, coupon.ErrBelowMinAmount
		}
		discount, err = coupon.Discount(p.Coupon.Template, subtotal)
		if err != nil {
			return nil, err
		}
		couponID = &p.Coupon.ID
	}

	total := subtotal - discount + p.ShippingFee
	if p.UseBalance+p.UsePoints > total {
		return nil, ErrOverpaid
	}
	payAmount := total - p.UseBalance - p.UsePoints

	// 3. Insert the order row; a serial collision aborts the unit and the
	// caller retries with a fresh serial.
	o := &Order{
		OrderSN:        p.Serial,
		UserID:         p.UserID,
		Status:         StatusPending,
		PaymentStatus:  PaymentUnpaid,
		ShippingStatus: ShippingPending,
		TotalAmount:    total,
		DiscountAmount: discount,
		ShippingFee:    p.ShippingFee,
		PayAmount:      payAmount,
		CouponID:       couponID,
		BalancePaid:    p.UseBalance,
		PointsPaid:     p.UsePoints,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders
			(order_sn, user_id, status, payment_status, shipping_status,
			 total_amount, discount_amount, shipping_fee, pay_amount,
			 coupon_id, balance_paid, points_paid)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at
	`, o.OrderSN, o.UserID, o.Status, o.PaymentStatus, o.ShippingStatus,
		o.TotalAmount, o.DiscountAmount, o.ShippingFee, o.PayAmount,
		o.CouponID, o.BalancePaid, o.PointsPaid,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return nil, errSerialCollision
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	// 4. Coupon and ledger effects join the same unit.
	if p.Coupon != nil {
		if err := coupon.UseTx(ctx, tx, p.Coupon.ID, p.UserID, o.ID); err != nil {
			return nil, err
		}
	}
	if p.UseBalance > 0 {
		if err := ledger.DebitTx(ctx, tx, p.UserID, ledger.KindBalance, p.UseBalance, ledger.ReasonOrderPay, o.OrderSN); err != nil {
			return nil, err
		}
	}
	if p.UsePoints > 0 {
		if err := ledger.DebitTx(ctx, tx, p.UserID, ledger.KindPoints, p.UsePoints, ledger.ReasonOrderPay, o.OrderSN); err != nil {
			return nil, err
		}
	}

	// 5. Decrement stock and persist lines.
	for _, it := range items {
		if err := r.products.DecrementStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id
		`, o.ID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.LineTotal).Scan(&it.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		it.OrderID = o.ID
	}

	// 6. Address snapshot.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_addresses (order_id, receiver, phone, province, city, detail)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, o.ID, p.Address.Receiver, p.Address.Phone, p.Address.Province, p.Address.City, p.Address.Detail)
	if err != nil {
		return nil, fmt.Errorf("insert order address: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order creation: %w", err)
	}
	committed = true

	o.Items = items
	o.Address = &Address{
		OrderID:  o.ID,
		Receiver: p.Address.Receiver,
		Phone:    p.Address.Phone,
		Province: p.Address.Province,
		City:     p.Address.City,
		Detail:   p.Address.Detail,
	}

	log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("total_amount", o.TotalAmount),
	)
	return o, nil
}

const orderCols = `id, order_sn, user_id, status, payment_status, shipping_status,
	total_amount, discount_amount, shipping_fee, pay_amount,
	coupon_id, balance_paid, points_paid, cancel_reason,
	pay_time, confirm_time, ship_time, receive_time, cancel_time,
	created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderSN, &o.UserID, &o.Status, &o.PaymentStatus, &o.ShippingStatus,
		&o.TotalAmount, &o.DiscountAmount, &o.ShippingFee, &o.PayAmount,
		&o.CouponID, &o.BalancePaid, &o.PointsPaid, &o.CancelReason,
		&o.PayTime, &o.ConfirmTime, &o.ShipTime, &o.ReceiveTime, &o.CancelTime,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Address, err = r.loadAddress(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetOrderBySN(ctx context.Context, sn string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE order_sn = $1`, sn))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (r *repository) loadItems(ctx context.Context, orderID int64) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repository) loadAddress(ctx context.Context, orderID int64) (*Address, error) {
	var a Address
	err := r.db.QueryRowContext(ctx, `
		SELECT order_id, receiver, phone, province, city, detail
		FROM order_addresses
		WHERE order_id = $1
	`, orderID).Scan(&a.OrderID, &a.Receiver, &a.Phone, &a.Province, &a.City, &a.Detail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListOrders(ctx context.Context, userID int64, filter *FilterInput, limit, offset int32) ([]*Order, error) {
	query := `SELECT ` + orderCols + ` FROM orders WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if filter != nil && filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Cancel reverses the creation unit: restores stock, credits back ledger
// debits, releases the coupon, and stamps the cancelled state in one unit.
// The status guard on the UPDATE carries the unpaid precondition, so a
// concurrent payment or a second cancel affects zero rows and conflicts.
func (r *repository) Cancel(ctx context.Context, orderID int64, reason string) error {
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

	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'cancelled', cancel_reason = $2, cancel_time = NOW(), updated_at = NOW()
		WHERE id = $1
		  AND status IN ('pending', 'confirmed')
		  AND payment_status = 'unpaid'
	`, orderID, reason)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotCancellable
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return err
	}
	type line struct {
		productID int64
		qty       int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.qty); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		if err := r.products.RestoreStockTx(ctx, tx, l.productID, l.qty); err != nil {
			return err
		}
	}

	if o.BalancePaid > 0 {
		if err := ledger.CreditTx(ctx, tx, o.UserID, ledger.KindBalance, o.BalancePaid, ledger.ReasonOrderCancel, o.OrderSN); err != nil {
			return err
		}
	}
	if o.PointsPaid > 0 {
		if err := ledger.CreditTx(ctx, tx, o.UserID, ledger.KindPoints, o.PointsPaid, ledger.ReasonOrderCancel, o.OrderSN); err != nil {
			return err
		}
	}
	if o.CouponID != nil {
		if err := coupon.UnuseTx(ctx, tx, *o.CouponID, o.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Transition moves an order one step forward. The from-state guard makes
// retries and races affect zero rows instead of double-applying.
func (r *repository) Transition(ctx context.Context, orderID int64, from, to Status) error {
	var query string
	switch to {
	case StatusConfirmed:
		query = `UPDATE orders SET status = $3, confirm_time = NOW(), updated_at = NOW() WHERE id = $1 AND status = $2`
	case StatusShipped:
		query = `UPDATE orders SET status = $3, ship_time = NOW(), shipping_status = 'shipped', updated_at = NOW() WHERE id = $1 AND status = $2`
	case StatusReceived:
		query = `UPDATE orders SET status = $3, receive_time = NOW(), shipping_status = 'delivered', updated_at = NOW() WHERE id = $1 AND status = $2`
	case StatusCompleted:
		query = `UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	default:
		return ErrBadTransition
	}

	res, err := r.db.ExecContext(ctx, query, orderID, from, to)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBadTransition
	}
	return nil
}

func (r *repository) MarkPaid(ctx context.Context, orderSN string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'paid', pay_time = NOW(), updated_at = NOW()
		WHERE order_sn = $1 AND payment_status = 'unpaid'
	`, orderSN)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyPaid
	}
	return nil
}

// MarkRefundedTx joins an aftersales completion transaction.
func (r *repository) MarkRefundedTx(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'refunded', payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1
	`, orderID)
	return err
}
