package verify

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const resendCooldown = 60 * time.Second

var (
	ErrCodeMismatch = apperr.Validation("verification code is wrong or expired")
	ErrTooFrequent  = apperr.Conflict("a code was sent recently, try again later")
)

type Service interface {
	// Send generates a single-use code for target (an email address or
	// phone number) and stores it under the given purpose. The code is
	// returned to the caller for delivery; it never goes into the HTTP
	// response.
	Send(ctx context.Context, target, purpose string) (string, error)
	Check(ctx context.Context, target, purpose, code string) error
}

type service struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewService(rdb *redis.Client, ttl time.Duration) Service {
	return &service{rdb: rdb, ttl: ttl}
}

func key(purpose, target string) string {
	return fmt.Sprintf("verify:%s:%s", purpose, target)
}

func cooldownKey(purpose, target string) string {
	return fmt.Sprintf("verify:cooldown:%s:%s", purpose, target)
}

func (s *service) Send(ctx context.Context, target, purpose string) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "verify.Send"),
		zap.String("purpose", purpose),
	)

	if target == "" || purpose == "" {
		return "", apperr.Validation("target and purpose are required")
	}

	ok, err := s.rdb.SetNX(ctx, cooldownKey(purpose, target), 1, resendCooldown).Result()
	if err != nil {
		return "", fmt.Errorf("verify cooldown: %w", err)
	}
	if !ok {
		return "", ErrTooFrequent
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	if err := s.rdb.Set(ctx, key(purpose, target), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}

	log.Info("verification code issued")
	return code, nil
}

// Check consumes the code: a correct code is deleted with GETDEL so it can
// never be used twice; a wrong code leaves the stored one in place until it
// expires.
func (s *service) Check(ctx context.Context, target, purpose, code string) error {
	k := key(purpose, target)

	stored, err := s.rdb.Get(ctx, k).Result()
	if err == redis.Nil {
		return ErrCodeMismatch
	}
	if err != nil {
		return fmt.Errorf("load verification code: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}

	consumed, err := s.rdb.GetDel(ctx, k).Result()
	if err == redis.Nil || (err == nil && consumed != code) {
		// raced with another check or with expiry
		return ErrCodeMismatch
	}
	if err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
