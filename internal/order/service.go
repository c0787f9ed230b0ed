package order

import (
	"context"
	"errors"
	"strings"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/coupon"
	"shopcore-be/internal/logger"
	"shopcore-be/internal/product"
	"shopcore-be/internal/utils"

	"go.uber.org/zap"
)

// Flat-rate shipping, waived once the discounted goods total clears the
// free-shipping threshold. Amounts in cents.
const (
	shippingFlatFee  int64 = 1000
	freeShippingOver int64 = 10000
)

// Notifier receives lifecycle events. Implementations must not block or
// fail the calling operation; delivery is best effort.
type Notifier interface {
	OrderEvent(ctx context.Context, userID int64, orderSN, event string)
}

type Service interface {
	Create(ctx context.Context, userID int64, in CreateInput) (*Order, error)
	List(ctx context.Context, userID int64, filter *FilterInput, page, pageSize int32) ([]*Order, error)
	Detail(ctx context.Context, userID int64, isAdmin bool, orderID int64) (*Order, error)
	Cancel(ctx context.Context, userID, orderID int64, reason string) error
	Confirm(ctx context.Context, orderID int64) error
	Ship(ctx context.Context, orderID int64) error
	Receive(ctx context.Context, userID, orderID int64) error
	Complete(ctx context.Context, orderID int64) error
	MarkPaid(ctx context.Context, orderSN string) error
}

type service struct {
	repo             Repository
	products         product.Repository
	coupons          coupon.Service
	notifier         Notifier
	serialMaxRetries int
}

func NewService(repo Repository, products product.Repository, coupons coupon.Service, notifier Notifier, serialMaxRetries int) Service {
	if serialMaxRetries <= 0 {
		serialMaxRetries = 3
	}
	return &service{
		repo:             repo,
		products:         products,
		coupons:          coupons,
		notifier:         notifier,
		serialMaxRetries: serialMaxRetries,
	}
}

func (s *service) Create(ctx context.Context, userID int64, in CreateInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "order.Create"),
		zap.Int64("user_id", userID),
	)

	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	// Price estimate from current (unlocked) rows drives coupon validation
	// and the shipping fee; the transaction recomputes both against locked
	// prices before any money moves.
	subtotal, err := s.estimateSubtotal(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	var uc *coupon.UserCoupon
	var discount int64
	if in.UserCouponID != nil {
		v, err := s.coupons.Validate(ctx, *in.UserCouponID, userID, subtotal)
		if err != nil {
			return nil, err
		}
		uc = v.UserCoupon
		discount = v.Discount
	}

	var shippingFee int64
	if subtotal-discount < freeShippingOver {
		shippingFee = shippingFlatFee
	}

	params := CreateParams{
		UserID:      userID,
		Lines:       in.Lines,
		Address:     in.Address,
		Coupon:      uc,
		UseBalance:  in.UseBalance,
		UsePoints:   in.UsePoints,
		ShippingFee: shippingFee,
	}

	var created *Order
	for attempt := 0; attempt < s.serialMaxRetries; attempt++ {
		params.Serial = utils.GenerateOrderSerial()
		created, err = s.repo.CreateOrder(ctx, params)
		if errors.Is(err, errSerialCollision) {
			log.Warn("order serial collided, regenerating",
				zap.String("order_sn", params.Serial),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		break
	}
	if errors.Is(err, errSerialCollision) {
		return nil, apperr.Wrap(apperr.KindInternal, "could not allocate order serial", err)
	}
	if err != nil {
		log.Error("order creation failed", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, userID, created.OrderSN, "order.created")
	log.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.String("order_sn", created.OrderSN),
	)
	return created, nil
}

func validateCreateInput(in CreateInput) error {
	if len(in.Lines) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	seen := make(map[int64]bool, len(in.Lines))
	for _, l := range in.Lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return apperr.Validation("item product id and quantity must be positive")
		}
		if seen[l.ProductID] {
			return apperr.Validation("duplicate product in order items")
		}
		seen[l.ProductID] = true
	}
	if strings.TrimSpace(in.Address.Receiver) == "" || strings.TrimSpace(in.Address.Phone) == "" ||
		strings.TrimSpace(in.Address.Detail) == "" {
		return apperr.Validation("shipping address is incomplete")
	}
	if in.UseBalance < 0 || in.UsePoints < 0 {
		return apperr.Validation("balance and points amounts must not be negative")
	}
	return nil
}

func (s *service) estimateSubtotal(ctx context.Context, lines []Line) (int64, error) {
	var subtotal int64
	for _, l := range lines {
		p, err := s.products.GetProduct(ctx, l.ProductID)
		if err != nil {
			return 0, err
		}
		if p.Status != product.StatusActive {
			return 0, product.ErrProductInactive
		}
		subtotal += p.Price * int64(l.Quantity)
	}
	return subtotal, nil
}

func (s *service) List(ctx context.Context, userID int64, filter *FilterInput, page, pageSize int32) ([]*Order, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.ListOrders(ctx, userID, filter, pageSize, (page-1)*pageSize)
}

func (s *service) Detail(ctx context.Context, userID int64, isAdmin bool, orderID int64) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		return nil, ErrNotOwner
	}
	return o, nil
}

func (s *service) Cancel(ctx context.Context, userID, orderID int64, reason string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "order.Cancel"),
		zap.Int64("order_id", orderID),
	)

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		return ErrNotOwner
	}

	if err := s.repo.Cancel(ctx, orderID, reason); err != nil {
		return err
	}

	s.publish(ctx, userID, o.OrderSN, "order.cancelled")
	log.Info("order cancelled", zap.String("order_sn", o.OrderSN))
	return nil
}

func (s *service) Confirm(ctx context.Context, orderID int64) error {
	return s.repo.Transition(ctx, orderID, StatusPending, StatusConfirmed)
}

func (s *service) Ship(ctx context.Context, orderID int64) error {
	if err := s.repo.Transition(ctx, orderID, StatusConfirmed, StatusShipped); err != nil {
		return err
	}
	if o, err := s.repo.GetOrder(ctx, orderID); err == nil {
		s.publish(ctx, o.UserID, o.OrderSN, "order.shipped")
	}
	return nil
}

func (s *service) Receive(ctx context.Context, userID, orderID int64) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		return ErrNotOwner
	}
	return s.repo.Transition(ctx, orderID, StatusShipped, StatusReceived)
}

func (s *service) Complete(ctx context.Context, orderID int64) error {
	return s.repo.Transition(ctx, orderID, StatusReceived, StatusCompleted)
}

func (s *service) MarkPaid(ctx context.Context, orderSN string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "order.MarkPaid"),
		zap.String("order_sn", orderSN),
	)

	if err := s.repo.MarkPaid(ctx, orderSN); err != nil {
		return err
	}

	if o, err := s.repo.GetOrderBySN(ctx, orderSN); err == nil {
		s.publish(ctx, o.UserID, orderSN, "order.paid")
	}
	log.Info("order marked paid")
	return nil
}

func (s *service) publish(ctx context.Context, userID int64, orderSN, event string) {
	if s.notifier == nil {
		return
	}
	s.notifier.OrderEvent(ctx, userID, orderSN, event)
}
