package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// DateFailure records a date that could not be settled.
type DateFailure struct {
	Date    time.Time
	Err     error
	Missing bool
}

// BatchReport tracks the outcome of settling a range of dates. A failed
// date never aborts the batch; it is recorded here instead.
type BatchReport struct {
	mu             sync.RWMutex
	RunID          uuid.UUID
	StartTime      time.Time
	Duration       time.Duration
	DatesRequested int
	Summaries      []models.DailySummary
	Failures       []DateFailure
	ParseFailures  int
}

// NewBatchReport creates a report for a new run.
func NewBatchReport() *BatchReport {
	return &BatchReport{
		RunID:     uuid.New(),
		StartTime: time.Now(),
	}
}

// RecordSettled adds a settled day's summary.
func (r *BatchReport) RecordSettled(summary models.DailySummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Summaries = append(r.Summaries, summary)
}

// RecordFailure adds a date that could not be settled.
func (r *BatchReport) RecordFailure(date time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, DateFailure{Date: date, Err: err, Missing: models.IsMissingInput(err)})
}

// RecordParseFailures adds skipped malformed records.
func (r *BatchReport) RecordParseFailures(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ParseFailures += n
}

// Finish stamps the run duration.
func (r *BatchReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = time.Since(r.StartTime)
}

// Total sums the settled days into one summary.
func (r *BatchReport) Total() models.DailySummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total models.DailySummary
	for _, s := range r.Summaries {
		total.Tips += s.Tips
		total.Wins += s.Wins
		total.Places += s.Places
		total.NonRunners += s.NonRunners
		total.Unmatched += s.Unmatched
		total.Stake += s.Stake
		total.Profit += s.Profit
	}
	return total
}

// Skipped returns the number of dates skipped for a missing input.
func (r *BatchReport) Skipped() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, f := range r.Failures {
		if f.Missing {
			n++
		}
	}
	return n
}

// String returns a formatted string representation of the report
func (r *BatchReport) String() string {
	total := r.Total()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf(
		"BatchReport{Run=%s, Dates=%d, Settled=%d, Failed=%d, Tips=%d, Stake=%.2f, Profit=%.2f, ROI=%.2f%%, ParseFailures=%d, Duration=%v}",
		r.RunID,
		r.DatesRequested,
		len(r.Summaries),
		len(r.Failures),
		total.Tips,
		total.Stake,
		total.Profit,
		total.GetROI(),
		r.ParseFailures,
		r.Duration,
	)
}
