package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/watsonpaul80/tipping-monster/internal/health"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

type mockStats struct {
	mock.Mock
}

func (m *mockStats) Bands(ctx context.Context, from, to time.Time) ([]roi.BandBucket, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]roi.BandBucket), args.Error(1)
}

func (m *mockStats) Tags(ctx context.Context, from, to time.Time) ([]models.ROIBucket, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ROIBucket), args.Error(1)
}

func (m *mockStats) Periods(ctx context.Context, period roi.Period, from, to time.Time) ([]models.ROIBucket, error) {
	args := m.Called(ctx, period, from, to)
	return args.Get(0).([]models.ROIBucket), args.Error(1)
}

func (m *mockStats) NAPHistory(ctx context.Context, period roi.Period, from, to time.Time) ([]models.ROIBucket, error) {
	args := m.Called(ctx, period, from, to)
	return args.Get(0).([]models.ROIBucket), args.Error(1)
}

func (m *mockStats) Rolling(ctx context.Context, windowDays int, from, to time.Time) ([]roi.RollingPoint, error) {
	args := m.Called(ctx, windowDays, from, to)
	return args.Get(0).([]roi.RollingPoint), args.Error(1)
}

func newTestServer(stats Stats) *httptest.Server {
	l := logrus.New()
	l.SetOutput(io.Discard)
	checker := health.NewChecker(health.Config{ServiceName: "tipping-monster"})
	checker.SetReady(true)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	s := NewServer(Config{Metrics: metrics}, stats, checker, l)
	return httptest.NewServer(s.Handler())
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func day(s string) time.Time {
	d, _ := time.Parse(models.DateLayout, s)
	return d
}

func TestBands(t *testing.T) {
	stats := &mockStats{}
	band := roi.NewBand(0.8, 0.9, false)
	stats.On("Bands", mock.Anything, day("2025-06-01"), day("2025-06-30")).Return([]roi.BandBucket{
		{Band: band, ROIBucket: models.ROIBucket{Label: band.Label, Tips: 4, Wins: 1, Stake: 4, Profit: 2, WeightedStake: 4, WeightedProfit: 2}},
	}, nil)

	srv := newTestServer(stats)
	defer srv.Close()

	var out []map[string]any
	code := getJSON(t, srv.URL+"/roi/bands?from=2025-06-01&to=2025-06-30", &out)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out, 1)
	assert.Equal(t, "0.80-0.90", out[0]["label"])
	assert.Equal(t, 0.8, out[0]["low"])
	assert.Equal(t, 50.0, out[0]["roi_pct"])
	assert.Equal(t, 25.0, out[0]["win_pct"])
	stats.AssertExpectations(t)
}

func TestTagsError(t *testing.T) {
	stats := &mockStats{}
	stats.On("Tags", mock.Anything, time.Time{}, time.Time{}).Return(nil, errors.New("disk"))

	srv := newTestServer(stats)
	defer srv.Close()

	var out errorResponse
	assert.Equal(t, http.StatusInternalServerError, getJSON(t, srv.URL+"/roi/tags", &out))
	assert.Equal(t, "failed to load statistics", out.Error)
}

func TestPeriodsAndNAPHistory(t *testing.T) {
	stats := &mockStats{}
	stats.On("Periods", mock.Anything, roi.PeriodWeek, time.Time{}, time.Time{}).
		Return([]models.ROIBucket{{Label: "2025-W22", Tips: 2, Stake: 2, Profit: -2}}, nil)
	stats.On("NAPHistory", mock.Anything, roi.PeriodDay, time.Time{}, time.Time{}).
		Return([]models.ROIBucket{{Label: "2025-06-01", Tips: 1, Wins: 1, Stake: 1, Profit: 4}}, nil)

	srv := newTestServer(stats)
	defer srv.Close()

	var periods []BucketResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/roi/periods?period=week", &periods))
	require.Len(t, periods, 1)
	assert.Equal(t, -100.0, periods[0].ROIPct)

	var naps []BucketResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/nap/history", &naps))
	require.Len(t, naps, 1)
	assert.Equal(t, 100.0, naps[0].WinPct)
}

func TestRolling(t *testing.T) {
	stats := &mockStats{}
	stats.On("Rolling", mock.Anything, 7, time.Time{}, time.Time{}).
		Return([]roi.RollingPoint{{Date: day("2025-06-07"), Days: 7, Tips: 3, Stake: 3, Profit: 1.5}}, nil)

	srv := newTestServer(stats)
	defer srv.Close()

	var out []RollingResponse
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/roi/rolling?window=7", &out))
	require.Len(t, out, 1)
	assert.Equal(t, 50.0, out[0].ROIPct)
	assert.Equal(t, 7, out[0].Days)
}

func TestBadQueries(t *testing.T) {
	srv := newTestServer(&mockStats{})
	defer srv.Close()

	for _, path := range []string{
		"/roi/bands?from=June",
		"/roi/tags?from=2025-06-02&to=2025-06-01",
		"/roi/periods?period=fortnight",
		"/roi/rolling?window=-1",
	} {
		t.Run(path, func(t *testing.T) {
			var out errorResponse
			assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+path, &out))
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(&mockStats{})
	defer srv.Close()

	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", nil))
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/ready", nil))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "# metrics\n", string(body))
}
