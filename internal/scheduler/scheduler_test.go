package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/settlement"
)

type mockSettler struct {
	mock.Mock
}

func (m *mockSettler) SettleDay(ctx context.Context, date time.Time) (*settlement.DayResult, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.DayResult), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestScheduler() *Scheduler {
	l := logrus.New()
	l.SetOutput(io.Discard)
	s := NewScheduler(l)
	s.now = func() time.Time { return time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC) }
	return s
}

func TestRunSettlementSettlesPreviousDay(t *testing.T) {
	s := newTestScheduler()
	settler := &mockSettler{}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	settler.On("SettleDay", mock.Anything, want).Return(&settlement.DayResult{Date: want}, nil)

	s.RunSettlement(context.Background(), settler)
	settler.AssertExpectations(t)
}

func TestRunSettlementSwallowsErrors(t *testing.T) {
	s := newTestScheduler()
	settler := &mockSettler{}
	settler.On("SettleDay", mock.Anything, mock.Anything).
		Return(nil, models.NewMissingInputError(models.InputResults, time.Now(), "x.csv", nil)).Once()
	settler.On("SettleDay", mock.Anything, mock.Anything).Return(nil, errors.New("disk full")).Once()

	assert.NotPanics(t, func() {
		s.RunSettlement(context.Background(), settler)
		s.RunSettlement(context.Background(), settler)
	})
	settler.AssertNumberOfCalls(t, "SettleDay", 2)
}

func TestRunRefresh(t *testing.T) {
	s := newTestScheduler()
	r := &mockRefresher{}
	r.On("Refresh", mock.Anything).Return(errors.New("no logs")).Once()
	r.On("Refresh", mock.Anything).Return(nil).Once()

	s.RunRefresh(context.Background(), r)
	s.RunRefresh(context.Background(), r)
	r.AssertNumberOfCalls(t, "Refresh", 2)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.Start(), "no jobs scheduled")

	require.NoError(t, s.ScheduleSettlement("0 30 23 * * *", &mockSettler{}))
	require.NoError(t, s.ScheduleRefresh("0 0 6 * * *", &mockRefresher{}))
	assert.Error(t, s.ScheduleRefresh("not a cron", &mockRefresher{}))

	assert.True(t, s.GetNextRun().IsZero())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleRefresh("0 0 7 * * *", &mockRefresher{}))
	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop())
}
