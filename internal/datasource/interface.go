// Package datasource reads a day's tips and results and reads and writes
// settlement logs.
package datasource

import (
	"context"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// TipSource loads the tips issued for a day.
type TipSource interface {
	// LoadTips returns a MissingInputError when the day has no tips file.
	LoadTips(ctx context.Context, date time.Time) (*TipBatch, error)
}

// ResultSource loads the official results for a day.
type ResultSource interface {
	// LoadResults returns a MissingInputError when the day has no results file.
	LoadResults(ctx context.Context, date time.Time) (*ResultBatch, error)
}

// ReadStats counts records read from a file and those skipped as malformed.
type ReadStats struct {
	Source   string
	Records  int
	Skipped  int
	FirstErr error
}

func (s *ReadStats) skip(err error) {
	s.Skipped++
	if s.FirstErr == nil {
		s.FirstErr = err
	}
}

// TipBatch is a day's parsed tips.
type TipBatch struct {
	Date  time.Time
	Tips  []models.Tip
	Stats ReadStats
}

// ResultBatch is a day's parsed results.
type ResultBatch struct {
	Date    time.Time
	Results []models.ResultRecord
	Stats   ReadStats
}
