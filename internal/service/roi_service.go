package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/watsonpaul80/tipping-monster/internal/datasource"
	"github.com/watsonpaul80/tipping-monster/internal/logger"
	"github.com/watsonpaul80/tipping-monster/internal/metrics"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/repository"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

// HistorySource loads settled rows for aggregation. Zero bounds are open.
type HistorySource interface {
	Settlements(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, error)
}

// LogHistory reads history from the settlement CSV logs.
type LogHistory struct {
	reader *datasource.LogReader
	logger *logger.SettlementLogger
}

// NewLogHistory creates a log-backed history source. log may be nil.
func NewLogHistory(reader *datasource.LogReader, log *logger.SettlementLogger) *LogHistory {
	return &LogHistory{reader: reader, logger: log}
}

// Settlements implements HistorySource. Malformed rows are skipped and counted.
func (h *LogHistory) Settlements(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, error) {
	rows, stats, err := h.reader.LoadSettlements(ctx, mode, from, to)
	if err != nil {
		return nil, err
	}
	if stats.Skipped > 0 {
		metrics.RecordParseFailures("settlement_log", stats.Skipped)
		if h.logger != nil {
			h.logger.LogParseFailures(stats.Source, stats.Skipped, stats.FirstErr)
		}
	}
	return rows, nil
}

// RepositoryHistory reads history from the repository mirror.
type RepositoryHistory struct {
	repo repository.SettlementRepository
}

// NewRepositoryHistory creates a repository-backed history source.
func NewRepositoryHistory(repo repository.SettlementRepository) *RepositoryHistory {
	return &RepositoryHistory{repo: repo}
}

// Settlements implements HistorySource.
func (h *RepositoryHistory) Settlements(ctx context.Context, mode models.StakeMode, from, to time.Time) ([]models.Settlement, error) {
	return h.repo.ListByRange(ctx, mode, from, to)
}

// ROIService answers ROI questions over accumulated settlements. Every call
// reloads history, so results always reflect the latest logs.
type ROIService struct {
	history    HistorySource
	agg        *roi.Aggregator
	mode       models.StakeMode
	windowDays int
	logger     *logrus.Entry
}

// NewROIService creates an ROI service.
func NewROIService(history HistorySource, agg *roi.Aggregator, mode models.StakeMode, windowDays int, log *logrus.Logger) *ROIService {
	if windowDays <= 0 {
		windowDays = roi.DefaultWindowDays
	}
	if mode == "" {
		mode = models.StakeModeAdvised
	}
	return &ROIService{
		history:    history,
		agg:        agg,
		mode:       mode,
		windowDays: windowDays,
		logger:     log.WithField("component", "roi"),
	}
}

// WindowDays returns the default rolling window.
func (s *ROIService) WindowDays() int {
	return s.windowDays
}

func (s *ROIService) load(ctx context.Context, from, to time.Time) ([]models.Settlement, error) {
	rows, err := s.history.Settlements(ctx, s.mode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlement history: %w", err)
	}
	return rows, nil
}

func (s *ROIService) timed(name string, start time.Time, rows int) {
	elapsed := time.Since(start)
	metrics.RecordAggregationDuration(elapsed.Seconds())
	s.logger.WithFields(logrus.Fields{
		"report":      name,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	}).Debug("Aggregation complete")
}

// Overall aggregates everything in range into one bucket.
func (s *ROIService) Overall(ctx context.Context, from, to time.Time) (models.ROIBucket, error) {
	start := time.Now()
	rows, err := s.load(ctx, from, to)
	if err != nil {
		return models.ROIBucket{}, err
	}
	defer s.timed("overall", start, len(rows))
	return s.agg.Overall(rows), nil
}

// Bands aggregates per confidence band and refreshes the band ROI gauges.
func (s *ROIService) Bands(ctx context.Context, from, to time.Time) ([]roi.BandBucket, error) {
	start := time.Now()
	rows, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	defer s.timed("bands", start, len(rows))

	buckets := s.agg.ByBand(rows)
	for i := range buckets {
		metrics.UpdateBandROI(buckets[i].Band.Label, buckets[i].WeightedROIPct())
	}
	return buckets, nil
}

// Tags aggregates per tag.
func (s *ROIService) Tags(ctx context.Context, from, to time.Time) ([]models.ROIBucket, error) {
	start := time.Now()
	rows, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	defer s.timed("tags", start, len(rows))
	return s.agg.ByTag(rows), nil
}

// Periods aggregates per calendar period.
func (s *ROIService) Periods(ctx context.Context, period roi.Period, from, to time.Time) ([]models.ROIBucket, error) {
	start := time.Now()
	rows, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	defer s.timed("periods", start, len(rows))
	return s.agg.ByPeriod(rows, period), nil
}

// NAPHistory aggregates NAP settlements per period.
func (s *ROIService) NAPHistory(ctx context.Context, period roi.Period, from, to time.Time) ([]models.ROIBucket, error) {
	start := time.Now()
	rows, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	defer s.timed("nap_history", start, len(rows))
	return s.agg.NAPHistory(rows, period), nil
}

// Rolling returns trailing-window points for days in [from, to]. History
// before from is loaded so the first points see full windows. The latest
// point refreshes the rolling ROI gauge.
func (s *ROIService) Rolling(ctx context.Context, windowDays int, from, to time.Time) ([]roi.RollingPoint, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	start := time.Now()

	loadFrom := from
	if !from.IsZero() {
		loadFrom = roi.Day(from).AddDate(0, 0, -(windowDays - 1))
	}
	rows, err := s.load(ctx, loadFrom, to)
	if err != nil {
		return nil, err
	}
	defer s.timed("rolling", start, len(rows))

	points := roi.Rolling(rows, windowDays)
	if !from.IsZero() {
		first := roi.Day(from)
		kept := points[:0]
		for _, p := range points {
			if !p.Date.Before(first) {
				kept = append(kept, p)
			}
		}
		points = kept
	}
	if len(points) > 0 {
		metrics.UpdateRollingROI(points[len(points)-1].ROIPct())
	}
	return points, nil
}

// Refresh recomputes the band and rolling gauges over all history.
func (s *ROIService) Refresh(ctx context.Context) error {
	if _, err := s.Bands(ctx, time.Time{}, time.Time{}); err != nil {
		return err
	}
	_, err := s.Rolling(ctx, s.windowDays, time.Time{}, time.Time{})
	return err
}
