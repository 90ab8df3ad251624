package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/datasource"
	"github.com/watsonpaul80/tipping-monster/internal/dispatch"
	"github.com/watsonpaul80/tipping-monster/internal/logger"
	"github.com/watsonpaul80/tipping-monster/internal/metrics"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/report"
	"github.com/watsonpaul80/tipping-monster/internal/repository"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
	"github.com/watsonpaul80/tipping-monster/internal/settlement"
)

// SettlementService settles days end to end: load inputs, settle, write the
// settlement log, mirror to the repository and dispatch the summary.
type SettlementService struct {
	tips     datasource.TipSource
	results  datasource.ResultSource
	layout   datasource.Layout
	repo     repository.SettlementRepository
	notifier dispatch.Notifier
	logger   *logger.SettlementLogger
	opts     settlement.Options
}

// NewSettlementService creates a settlement service. repo and notifier may be
// nil to disable the mirror and dispatch.
func NewSettlementService(
	tips datasource.TipSource,
	results datasource.ResultSource,
	layout datasource.Layout,
	repo repository.SettlementRepository,
	notifier dispatch.Notifier,
	log *logger.SettlementLogger,
	opts settlement.Options,
) *SettlementService {
	if notifier == nil {
		notifier = dispatch.NoopNotifier{}
	}
	if opts.Mode == "" {
		opts.Mode = models.StakeModeAdvised
	}
	return &SettlementService{
		tips:     tips,
		results:  results,
		layout:   layout,
		repo:     repo,
		notifier: notifier,
		logger:   log,
		opts:     opts,
	}
}

// Mode returns the staking mode days are settled under.
func (s *SettlementService) Mode() models.StakeMode {
	return s.opts.Mode
}

// SettleDay settles one date. A missing tips or results file returns a
// MissingInputError and writes nothing. Re-settling a date replaces its log
// and repository rows.
func (s *SettlementService) SettleDay(ctx context.Context, date time.Time) (*settlement.DayResult, error) {
	day, _, err := s.settleDay(ctx, date)
	return day, err
}

func (s *SettlementService) settleDay(ctx context.Context, date time.Time) (*settlement.DayResult, int, error) {
	start := time.Now()
	date = roi.Day(date)

	tipBatch, err := s.tips.LoadTips(ctx, date)
	if err != nil {
		return nil, 0, s.inputError(date, err)
	}
	s.recordParseFailures(tipBatch.Stats)

	resultBatch, err := s.results.LoadResults(ctx, date)
	if err != nil {
		return nil, tipBatch.Stats.Skipped, s.inputError(date, err)
	}
	s.recordParseFailures(resultBatch.Stats)
	skipped := tipBatch.Stats.Skipped + resultBatch.Stats.Skipped

	day := settlement.Settle(date, tipBatch.Tips, resultBatch.Results, s.opts)
	for i := range day.Settlements {
		row := &day.Settlements[i]
		metrics.RecordTipSettled(string(row.Outcome))
		if !row.Matched {
			metrics.RecordUnmatchedTip()
			s.logger.LogUnmatchedTip(date, row.Time+" "+row.Course, row.Horse)
		}
	}

	path := s.layout.Settlement(date, s.opts.Mode)
	if err := datasource.WriteSettlementLog(path, day.Settlements); err != nil {
		return nil, skipped, fmt.Errorf("failed to write settlement log for %s: %w", date.Format(models.DateLayout), err)
	}

	if s.repo != nil {
		if err := s.repo.ReplaceDay(ctx, date, s.opts.Mode, day.Settlements); err != nil {
			return day, skipped, fmt.Errorf("failed to mirror settlements for %s: %w", date.Format(models.DateLayout), err)
		}
	}

	sum := day.Summary
	elapsed := time.Since(start)
	s.logger.LogDaySettled(date, string(s.opts.Mode), sum.Tips, sum.Wins, sum.Places, sum.NonRunners, sum.Unmatched,
		sum.Stake, sum.Profit, sum.GetROI(), elapsed)
	metrics.RecordDaySettled(string(s.opts.Mode), sum.Profit, sum.GetROI(), elapsed.Seconds())

	s.dispatchSummary(ctx, sum)
	return day, skipped, nil
}

// SettleRange settles every date in [from, to]. A date that fails is recorded
// in the report and the batch moves on; only cancellation stops it early.
func (s *SettlementService) SettleRange(ctx context.Context, from, to time.Time) (*BatchReport, error) {
	from, to = roi.Day(from), roi.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is after %s", from.Format(models.DateLayout), to.Format(models.DateLayout))
	}

	rep := NewBatchReport()
	defer rep.Finish()

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.DatesRequested++

		day, skipped, err := s.settleDay(ctx, date)
		rep.RecordParseFailures(skipped)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return rep, err
			}
			if !models.IsMissingInput(err) {
				s.logger.WithError(err).WithField("date", date.Format(models.DateLayout)).Error("Failed to settle date")
			}
			rep.RecordFailure(date, err)
			continue
		}
		rep.RecordSettled(day.Summary)
	}
	return rep, nil
}

func (s *SettlementService) inputError(date time.Time, err error) error {
	var missing *models.MissingInputError
	if errors.As(err, &missing) {
		s.logger.LogMissingInput(date, string(missing.Kind), missing.Path)
		metrics.RecordMissingInput(string(missing.Kind))
	}
	return err
}

func (s *SettlementService) recordParseFailures(stats datasource.ReadStats) {
	if stats.Skipped == 0 {
		return
	}
	s.logger.LogParseFailures(stats.Source, stats.Skipped, stats.FirstErr)
	metrics.RecordParseFailures(stats.Source, stats.Skipped)
}

// dispatchSummary makes one attempt to send the day's summary. Failure never
// affects settlement state.
func (s *SettlementService) dispatchSummary(ctx context.Context, sum models.DailySummary) {
	err := s.notifier.Send(ctx, report.DispatchMessage(sum, s.opts.Mode))
	if errors.Is(err, dispatch.ErrDisabled) {
		return
	}
	metrics.RecordDispatch(err == nil)
	if err != nil {
		s.logger.LogDispatchFailure(sum.Date, err)
	}
}
