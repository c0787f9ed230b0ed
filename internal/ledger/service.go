package ledger

import (
	"context"

	"shopcore-be/internal/logger"

	"go.uber.org/zap"
)

type Detail struct {
	Balance *Account `json:"balance"`
	Points  *Account `json:"points"`
}

type Service interface {
	// Detail returns both of the caller's accounts.
	Detail(ctx context.Context, userID int64) (*Detail, error)
	// Log pages through the caller's ledger entries for one kind.
	Log(ctx context.Context, userID int64, kind Kind, limit, offset int32) ([]*Entry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Detail(ctx context.Context, userID int64) (*Detail, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ledger.Detail"),
		zap.Int64("user_id", userID),
	)

	balance, err := s.repo.GetAccount(ctx, userID, KindBalance)
	if err != nil {
		log.Error("failed to load balance account", zap.Error(err))
		return nil, err
	}

	points, err := s.repo.GetAccount(ctx, userID, KindPoints)
	if err != nil {
		log.Error("failed to load points account", zap.Error(err))
		return nil, err
	}

	return &Detail{Balance: balance, Points: points}, nil
}

func (s *service) Log(ctx context.Context, userID int64, kind Kind, limit, offset int32) ([]*Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.repo.ListEntries(ctx, userID, kind, limit, offset)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list ledger entries",
			zap.Int64("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}
	return entries, nil
}
