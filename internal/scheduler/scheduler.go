// Package scheduler runs the nightly settlement and ROI refresh jobs on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/settlement"
)

// Settler settles a single day.
type Settler interface {
	SettleDay(ctx context.Context, date time.Time) (*settlement.DayResult, error)
}

// Refresher recomputes derived ROI statistics.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages the scheduled jobs. Jobs never overlap: a job that fires
// while another is running waits for it.
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	jobMu           sync.Mutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
	jobTimeout      time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler. Cron expressions carry a leading
// seconds field.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry))),
		),
		logger:          entry,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
		jobTimeout:      time.Hour,
		now:             time.Now,
	}
}

func (s *Scheduler) add(name, spec string, job func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		s.jobMu.Lock()
		defer s.jobMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"job": name, "schedule": spec}).Info("Scheduled job")
	return nil
}

// ScheduleSettlement settles the previous day on each firing.
func (s *Scheduler) ScheduleSettlement(spec string, settler Settler) error {
	return s.add("settle", spec, func(ctx context.Context) {
		s.RunSettlement(ctx, settler)
	})
}

// ScheduleRefresh refreshes ROI statistics on each firing.
func (s *Scheduler) ScheduleRefresh(spec string, refresher Refresher) error {
	return s.add("roi_refresh", spec, func(ctx context.Context) {
		s.RunRefresh(ctx, refresher)
	})
}

// RunSettlement settles the day before now. A missing input is logged by the
// settler and is not retried.
func (s *Scheduler) RunSettlement(ctx context.Context, settler Settler) {
	now := s.now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	log := s.logger.WithField("date", date.Format(models.DateLayout))

	log.Info("Starting scheduled settlement")
	if _, err := settler.SettleDay(ctx, date); err != nil {
		if models.IsMissingInput(err) {
			return
		}
		log.WithError(err).Error("Scheduled settlement failed")
		return
	}
	log.Info("Scheduled settlement complete")
}

// RunRefresh recomputes ROI statistics.
func (s *Scheduler) RunRefresh(ctx context.Context, refresher Refresher) {
	if err := refresher.Refresh(ctx); err != nil {
		s.logger.WithError(err).Error("ROI refresh failed")
		return
	}
	s.logger.Debug("ROI refresh complete")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for a running
// job to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %v", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}
