package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetAccount(ctx context.Context, userID int64, kind Kind) (*Account, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockRepository) ListEntries(ctx context.Context, userID int64, kind Kind, limit, offset int32) ([]*Entry, error) {
	args := m.Called(ctx, userID, kind, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Entry), args.Error(1)
}

func (m *MockRepository) Credit(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return m.Called(ctx, userID, kind, amount, reason, refID).Error(0)
}
func (m *MockRepository) Debit(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return m.Called(ctx, userID, kind, amount, reason, refID).Error(0)
}
func (m *MockRepository) Freeze(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return m.Called(ctx, userID, kind, amount, reason, refID).Error(0)
}
func (m *MockRepository) Unfreeze(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return m.Called(ctx, userID, kind, amount, reason, refID).Error(0)
}
func (m *MockRepository) SettleFrozen(ctx context.Context, userID int64, kind Kind, amount int64, reason Reason, refID string) error {
	return m.Called(ctx, userID, kind, amount, reason, refID).Error(0)
}

func TestService_Detail(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	ctx := context.Background()

	repo.On("GetAccount", ctx, int64(1), KindBalance).
		Return(&Account{UserID: 1, Kind: KindBalance, Available: 1000}, nil)
	repo.On("GetAccount", ctx, int64(1), KindPoints).
		Return(&Account{UserID: 1, Kind: KindPoints, Available: 50}, nil)

	d, err := svc.Detail(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), d.Balance.Available)
	assert.Equal(t, int64(50), d.Points.Available)
	repo.AssertExpectations(t)
}

func TestService_Log_ClampsPaging(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	ctx := context.Background()

	repo.On("ListEntries", ctx, int64(1), KindBalance, int32(20), int32(0)).
		Return([]*Entry{{ID: 1, Delta: -500}}, nil)

	entries, err := svc.Log(ctx, 1, KindBalance, 0, -3)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	repo.AssertExpectations(t)
}
