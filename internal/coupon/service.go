package coupon

import (
	"context"
	"strings"
	"time"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/logger"

	"go.uber.org/zap"
)

type CreateTemplateInput struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Type         Type   `json:"type"`
	Value        int64  `json:"value"`
	MinAmount    int64  `json:"min_amount"`
	MaxAmount    *int64 `json:"max_amount"`
	TotalLimit   int    `json:"total_limit"`
	PerUserLimit int    `json:"per_user_limit"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Active       bool   `json:"active"`
}

// Validation holds the outcome of validating a claim against an order
// amount: the claim, its template, and the discount it would grant.
type Validation struct {
	UserCoupon *UserCoupon `json:"user_coupon"`
	Discount   int64       `json:"discount"`
}

type Service interface {
	Create(ctx context.Context, in CreateTemplateInput) (*Template, error)
	List(ctx context.Context, onlyActive bool, limit, offset int32) ([]*Template, error)
	Detail(ctx context.Context, templateID int64) (*Template, error)

	Claim(ctx context.Context, userID, templateID int64) (*UserCoupon, error)
	Validate(ctx context.Context, userCouponID, userID, orderAmount int64) (*Validation, error)
	Use(ctx context.Context, userCouponID, userID, orderID int64) error
	Available(ctx context.Context, userID, orderAmount int64) ([]*UserCoupon, error)
	ListMine(ctx context.Context, userID int64, status *Status) ([]*UserCoupon, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, in CreateTemplateInput) (*Template, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "coupon.Create"),
		zap.String("code", in.Code),
	)

	if strings.TrimSpace(in.Code) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("coupon code and name are required")
	}
	if in.Type != TypeFixed && in.Type != TypePercentage {
		return nil, ErrUnknownType
	}
	if in.Value <= 0 {
		return nil, apperr.Validation("coupon value must be positive")
	}
	if in.Type == TypePercentage && in.Value > 100 {
		return nil, apperr.Validation("percentage value must not exceed 100")
	}
	if in.MinAmount < 0 || in.TotalLimit < 0 || in.PerUserLimit < 0 {
		return nil, apperr.Validation("limits must not be negative")
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, apperr.Validation("validity window is empty")
	}
	if in.PerUserLimit == 0 {
		in.PerUserLimit = 1
	}

	tpl := &Template{
		Code:         in.Code,
		Name:         in.Name,
		Type:         in.Type,
		Value:        in.Value,
		MinAmount:    in.MinAmount,
		MaxAmount:    in.MaxAmount,
		TotalLimit:   in.TotalLimit,
		PerUserLimit: in.PerUserLimit,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		Active:       in.Active,
	}

	id, err := s.repo.CreateTemplate(ctx, tpl)
	if err != nil {
		log.Error("failed to create coupon template", zap.Error(err))
		return nil, err
	}
	tpl.ID = id

	log.Info("coupon template created", zap.Int64("template_id", id))
	return tpl, nil
}

func (s *service) List(ctx context.Context, onlyActive bool, limit, offset int32) ([]*Template, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTemplates(ctx, onlyActive, limit, offset)
}

func (s *service) Detail(ctx context.Context, templateID int64) (*Template, error) {
	return s.repo.GetTemplate(ctx, templateID)
}

func (s *service) Claim(ctx context.Context, userID, templateID int64) (*UserCoupon, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "coupon.Claim"),
		zap.Int64("user_id", userID),
		zap.Int64("template_id", templateID),
	)

	uc, err := s.repo.Claim(ctx, userID, templateID)
	if err != nil {
		log.Warn("claim rejected", zap.Error(err))
		return nil, err
	}

	log.Info("coupon claimed", zap.Int64("user_coupon_id", uc.ID))
	return uc, nil
}

func (s *service) Validate(ctx context.Context, userCouponID, userID, orderAmount int64) (*Validation, error) {
	uc, err := s.repo.GetUserCoupon(ctx, userCouponID)
	if err != nil {
		return nil, err
	}
	if uc.UserID != userID {
		return nil, ErrNotOwned
	}
	if uc.Status != StatusUnused {
		return nil, ErrAlreadyUsed
	}

	now := time.Now()
	if now.Before(uc.Template.StartsAt) || now.After(uc.Template.EndsAt) {
		return nil, ErrOutsideWindow
	}
	if orderAmount < uc.Template.MinAmount {
		return nil, ErrBelowMinAmount
	}

	discount, err := Discount(uc.Template, orderAmount)
	if err != nil {
		return nil, err
	}
	return &Validation{UserCoupon: uc, Discount: discount}, nil
}

func (s *service) Use(ctx context.Context, userCouponID, userID, orderID int64) error {
	return s.repo.Use(ctx, userCouponID, userID, orderID)
}

func (s *service) Available(ctx context.Context, userID, orderAmount int64) ([]*UserCoupon, error) {
	unused := StatusUnused
	coupons, err := s.repo.ListUserCoupons(ctx, userID, &unused)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]*UserCoupon, 0, len(coupons))
	for _, uc := range coupons {
		if now.Before(uc.Template.StartsAt) || now.After(uc.Template.EndsAt) {
			continue
		}
		if orderAmount < uc.Template.MinAmount {
			continue
		}
		out = append(out, uc)
	}
	return out, nil
}

func (s *service) ListMine(ctx context.Context, userID int64, status *Status) ([]*UserCoupon, error) {
	return s.repo.ListUserCoupons(ctx, userID, status)
}
