package aftersales

import (
	"context"
	"strings"

	"shopcore-be/internal/logger"
	"shopcore-be/internal/order"
	"shopcore-be/internal/utils"

	"go.uber.org/zap"
)

const (
	actorUser  = "user"
	actorAdmin = "admin"
)

// ReasonPresets is what clients offer in the application form. Free-text
// reasons are still accepted.
var ReasonPresets = []string{
	"item damaged in transit",
	"wrong item received",
	"item not as described",
	"quality not acceptable",
	"no longer needed",
}

type Service interface {
	Create(ctx context.Context, userID int64, in CreateInput) (*Aftersale, error)
	List(ctx context.Context, userID int64, page, pageSize int32) ([]*Aftersale, error)
	ListInReview(ctx context.Context, page, pageSize int32) ([]*Aftersale, error)
	Detail(ctx context.Context, userID int64, isAdmin bool, id int64) (*Aftersale, error)
	Record(ctx context.Context, userID int64, isAdmin bool, id int64) ([]*Log, error)
	Config(ctx context.Context) []string
	ApplyData(ctx context.Context, userID, orderID int64) ([]*ApplyLine, error)

	Review(ctx context.Context, id int64, approve bool, note string) error
	Feedback(ctx context.Context, userID, id int64, trackingNo string, pics []string) error
	MarkReturned(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	Cancel(ctx context.Context, userID, id int64) error
}

type service struct {
	repo   Repository
	orders order.Repository
}

func NewService(repo Repository, orders order.Repository) Service {
	return &service{repo: repo, orders: orders}
}

func (s *service) Create(ctx context.Context, userID int64, in CreateInput) (*Aftersale, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "aftersales.Create"),
		zap.Int64("user_id", userID),
		zap.Int64("order_id", in.OrderID),
	)

	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, ErrReasonRequired
	}
	if in.RefundAmount <= 0 {
		return nil, ErrRefundNotPositive
	}

	o, err := s.orders.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotOwner
	}
	if o.Status != order.StatusReceived && o.Status != order.StatusCompleted {
		return nil, ErrOrderNotEligible
	}
	// refund comes out of the internal ledger, so only a settled order
	// has anything to give back
	if o.PaymentStatus != order.PaymentPaid {
		return nil, ErrOrderNotPaid
	}
	if in.RefundAmount > o.TotalAmount {
		return nil, ErrRefundTooLarge
	}

	items, err := matchItems(o, in.Items)
	if err != nil {
		return nil, err
	}

	a, err := s.repo.Create(ctx, CreateParams{
		UserID:       userID,
		OrderID:      in.OrderID,
		Serial:       utils.GenerateAftersalesSerial(),
		Type:         in.Type,
		Reason:       in.Reason,
		RefundAmount: in.RefundAmount,
		Pics:         in.Pics,
		Items:        items,
	})
	if err != nil {
		log.Error("aftersale creation failed", zap.Error(err))
		return nil, err
	}

	log.Info("aftersale created", zap.String("serial", a.Serial))
	return a, nil
}

func matchItems(o *order.Order, inputs []ItemInput) ([]*Item, error) {
	byID := make(map[int64]*order.Item, len(o.Items))
	for _, it := range o.Items {
		byID[it.ID] = it
	}

	out := make([]*Item, 0, len(inputs))
	for _, in := range inputs {
		oi, ok := byID[in.OrderItemID]
		if !ok {
			return nil, ErrItemNotInOrder
		}
		if in.Quantity <= 0 || in.Quantity > oi.Quantity {
			return nil, ErrQuantityExceeds
		}
		out = append(out, &Item{
			OrderItemID: oi.ID,
			ProductID:   oi.ProductID,
			ProductName: oi.ProductName,
			Quantity:    in.Quantity,
			Price:       oi.Price,
		})
	}
	return out, nil
}

func (s *service) List(ctx context.Context, userID int64, page, pageSize int32) ([]*Aftersale, error) {
	limit, offset := clampPage(page, pageSize)
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *service) ListInReview(ctx context.Context, page, pageSize int32) ([]*Aftersale, error) {
	limit, offset := clampPage(page, pageSize)
	return s.repo.ListByStatus(ctx, StatusInReview, limit, offset)
}

func (s *service) Detail(ctx context.Context, userID int64, isAdmin bool, id int64) (*Aftersale, error) {
	a, err := s.owned(ctx, userID, isAdmin, id)
	if err != nil {
		return nil, err
	}
	if a.Logs, err = s.repo.Logs(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Record(ctx context.Context, userID int64, isAdmin bool, id int64) ([]*Log, error) {
	if _, err := s.owned(ctx, userID, isAdmin, id); err != nil {
		return nil, err
	}
	return s.repo.Logs(ctx, id)
}

func (s *service) Config(_ context.Context) []string {
	return ReasonPresets
}

// ApplyData returns the lines of an order a user may open aftersales for,
// after the same eligibility checks Create applies.
func (s *service) ApplyData(ctx context.Context, userID, orderID int64) ([]*ApplyLine, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotOwner
	}
	if o.Status != order.StatusReceived && o.Status != order.StatusCompleted {
		return nil, ErrOrderNotEligible
	}
	if o.PaymentStatus != order.PaymentPaid {
		return nil, ErrOrderNotPaid
	}

	lines := make([]*ApplyLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, &ApplyLine{
			OrderItemID: it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return lines, nil
}

func (s *service) Review(ctx context.Context, id int64, approve bool, note string) error {
	if approve {
		return s.repo.Transition(ctx, id, StatusInReview, StatusApproved, actorAdmin, note, nil)
	}
	if strings.TrimSpace(note) == "" {
		return ErrReasonRequired
	}
	return s.repo.Transition(ctx, id, StatusInReview, StatusRefused, actorAdmin, note, nil)
}

func (s *service) Feedback(ctx context.Context, userID, id int64, trackingNo string, pics []string) error {
	if strings.TrimSpace(trackingNo) == "" {
		return ErrTrackingRequired
	}
	if _, err := s.owned(ctx, userID, false, id); err != nil {
		return err
	}
	return s.repo.Transition(ctx, id, StatusApproved, StatusSendBack, actorUser, trackingNo, pics)
}

func (s *service) MarkReturned(ctx context.Context, id int64) error {
	return s.repo.Transition(ctx, id, StatusSendBack, StatusReturned, actorAdmin, "", nil)
}

func (s *service) Complete(ctx context.Context, id int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "aftersales.Complete"),
		zap.Int64("aftersale_id", id),
	)

	if err := s.repo.Complete(ctx, id, actorAdmin); err != nil {
		return err
	}
	log.Info("aftersale refund settled")
	return nil
}

func (s *service) Cancel(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, false, id); err != nil {
		return err
	}
	return s.repo.Transition(ctx, id, StatusInReview, StatusCancelled, actorUser, "", nil)
}

func (s *service) owned(ctx context.Context, userID int64, isAdmin bool, id int64) (*Aftersale, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && a.UserID != userID {
		return nil, ErrNotOwner
	}
	return a, nil
}

func clampPage(page, pageSize int32) (limit, offset int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}
