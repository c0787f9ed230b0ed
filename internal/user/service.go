package user

import (
	"context"
	"strings"

	"shopcore-be/internal/logger"
	"shopcore-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, email, password string) (string, *User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	VerifyPassword(ctx context.Context, userID int64, password string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, email, password string) (string, *User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "user.Register"),
		zap.String("email", email),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return "", nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return "", nil, ErrWeakPassword
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u, err := s.repo.Create(ctx, email, hashed, utils.RoleUser)
	if err != nil {
		return "", nil, err
	}

	token, err := GenerateJWT(u.ID, u.Role, u.Email)
	if err != nil {
		log.Error("failed to generate jwt", zap.Int64("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("user registered", zap.Int64("user_id", u.ID))
	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "user.Login"),
		zap.String("email", email),
	)

	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		// do not leak which of the two was wrong
		return "", nil, ErrBadCredentials
	}
	if !CheckPasswordHash(password, u.Password) {
		log.Warn("login failed", zap.Int64("user_id", u.ID))
		return "", nil, ErrBadCredentials
	}

	token, err := GenerateJWT(u.ID, u.Role, u.Email)
	if err != nil {
		return "", nil, err
	}

	log.Info("user logged in", zap.Int64("user_id", u.ID))
	return token, u, nil
}

// VerifyPassword re-checks an authenticated user's credential before
// sensitive operations (withdrawals).
func (s *service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(password, u.Password) {
		return ErrBadCredentials
	}
	return nil
}
