package withdraw

import (
	"context"
	"strings"

	"shopcore-be/internal/logger"
	"shopcore-be/internal/payment"
	"shopcore-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PasswordVerifier checks a user's credential before money leaves the
// account. Implemented by the user service.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, userID int64, password string) error
}

// RechargeParams bundles the recorded application with the payment payload
// the client continues with.
type RechargeParams struct {
	Recharge *Recharge       `json:"recharge"`
	Payment  *payment.Params `json:"payment"`
}

type Service interface {
	Apply(ctx context.Context, userID, amount int64, password string) (*Apply, error)
	Approve(ctx context.Context, applyID int64) error
	Reject(ctx context.Context, applyID int64, remark string) error
	List(ctx context.Context, userID int64, page, pageSize int32) ([]*Apply, error)
	ListPending(ctx context.Context, page, pageSize int32) ([]*Apply, error)

	RechargeApply(ctx context.Context, userID, amount int64, method payment.Method) (*RechargeParams, error)
	RechargeComplete(ctx context.Context, sn string) error
	RechargeList(ctx context.Context, userID int64, page, pageSize int32) ([]*Recharge, error)
}

type service struct {
	repo     Repository
	verifier PasswordVerifier
	payments payment.Service
	feeRate  decimal.Decimal
}

func NewService(repo Repository, verifier PasswordVerifier, payments payment.Service, feeRate decimal.Decimal) Service {
	return &service{repo: repo, verifier: verifier, payments: payments, feeRate: feeRate}
}

// Fee computes the platform fee for a withdrawal amount: rate × amount,
// truncated toward zero to whole cents.
func Fee(amount int64, rate decimal.Decimal) int64 {
	return rate.Mul(decimal.NewFromInt(amount)).Truncate(0).IntPart()
}

func (s *service) Apply(ctx context.Context, userID, amount int64, password string) (*Apply, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "withdraw.Apply"),
		zap.Int64("user_id", userID),
	)

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := s.verifier.VerifyPassword(ctx, userID, password); err != nil {
		log.Warn("credential check failed")
		return nil, err
	}

	fee := Fee(amount, s.feeRate)
	actual := amount - fee
	if actual <= 0 {
		return nil, ErrAmountTooSmall
	}

	a, err := s.repo.Apply(ctx, userID, amount, fee, actual)
	if err != nil {
		log.Error("withdraw apply failed", zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (s *service) Approve(ctx context.Context, applyID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "withdraw.Approve"),
		zap.Int64("apply_id", applyID),
	)

	if err := s.repo.Approve(ctx, applyID); err != nil {
		return err
	}
	log.Info("withdraw approved")
	return nil
}

func (s *service) Reject(ctx context.Context, applyID int64, remark string) error {
	if strings.TrimSpace(remark) == "" {
		return ErrRemarkRequired
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "withdraw.Reject"),
		zap.Int64("apply_id", applyID),
	)

	if err := s.repo.Reject(ctx, applyID, remark); err != nil {
		return err
	}
	log.Info("withdraw rejected", zap.String("remark", remark))
	return nil
}

func (s *service) List(ctx context.Context, userID int64, page, pageSize int32) ([]*Apply, error) {
	limit, offset := clampPage(page, pageSize)
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *service) ListPending(ctx context.Context, page, pageSize int32) ([]*Apply, error) {
	limit, offset := clampPage(page, pageSize)
	return s.repo.ListByStatus(ctx, StatusPending, limit, offset)
}

func (s *service) RechargeApply(ctx context.Context, userID, amount int64, method payment.Method) (*RechargeParams, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !method.Valid() || method == payment.MethodBalance {
		return nil, payment.ErrUnknownMethod
	}

	sn := utils.GenerateRechargeSerial()
	rc, err := s.repo.CreateRecharge(ctx, userID, sn, amount)
	if err != nil {
		return nil, err
	}

	params, err := s.payments.Generate(ctx, sn, amount, method)
	if err != nil {
		return nil, err
	}
	return &RechargeParams{Recharge: rc, Payment: params}, nil
}

func (s *service) RechargeComplete(ctx context.Context, sn string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "withdraw.RechargeComplete"),
		zap.String("sn", sn),
	)

	if err := s.repo.CompleteRecharge(ctx, sn); err != nil {
		return err
	}
	log.Info("recharge completed")
	return nil
}

func (s *service) RechargeList(ctx context.Context, userID int64, page, pageSize int32) ([]*Recharge, error) {
	limit, offset := clampPage(page, pageSize)
	return s.repo.ListRecharges(ctx, userID, limit, offset)
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
