package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// MockSettlementRepository is a testify mock of SettlementRepository.
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) ReplaceDay(ctx context.Context, date time.Time, mode models.StakeMode, settlements []models.Settlement) error {
	args := m.Called(ctx, date, mode, settlements)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) ListByRange(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, error) {
	args := m.Called(ctx, mode, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) ListDates(ctx context.Context, mode models.StakeMode) ([]time.Time, error) {
	args := m.Called(ctx, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockSettlementRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSettlementRepository) Close() error {
	return m.Called().Error(0)
}
