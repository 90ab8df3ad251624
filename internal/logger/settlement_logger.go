// Package logger provides settlement-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SettlementLogger provides dedicated logging for settlement runs.
type SettlementLogger struct {
	*logrus.Entry
}

// NewSettlementLogger creates a new settlement logger.
func NewSettlementLogger(baseLogger *logrus.Logger) *SettlementLogger {
	return &SettlementLogger{
		Entry: baseLogger.WithField("component", "settlement"),
	}
}

// LogDaySettled logs the totals of a settled day.
func (sl *SettlementLogger) LogDaySettled(date time.Time, mode string, tips, wins, places, nonRunners, unmatched int, stake, profit, roi float64, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"date":        date.Format("2006-01-02"),
		"mode":        mode,
		"tips":        tips,
		"wins":        wins,
		"places":      places,
		"non_runners": nonRunners,
		"unmatched":   unmatched,
		"stake":       stake,
		"profit":      profit,
		"roi":         roi,
		"duration_ms": duration.Milliseconds(),
	}).Info("Day settled")
}

// LogUnmatchedTip logs a tip that found no result.
func (sl *SettlementLogger) LogUnmatchedTip(date time.Time, race, horse string) {
	sl.WithFields(logrus.Fields{
		"date":  date.Format("2006-01-02"),
		"race":  race,
		"horse": horse,
	}).Debug("Tip has no matching result, settled as NR")
}

// LogParseFailures logs records skipped while reading an input file.
func (sl *SettlementLogger) LogParseFailures(source string, skipped int, firstErr error) {
	entry := sl.WithFields(logrus.Fields{
		"source":  source,
		"skipped": skipped,
	})
	if firstErr != nil {
		entry = entry.WithError(firstErr)
	}
	entry.Warn("Skipped malformed records")
}

// LogMissingInput logs a date that could not be settled.
func (sl *SettlementLogger) LogMissingInput(date time.Time, kind, path string) {
	sl.WithFields(logrus.Fields{
		"date": date.Format("2006-01-02"),
		"kind": kind,
		"path": path,
	}).Warn("Missing input, skipping date")
}

// LogDispatchFailure logs a failed best-effort summary dispatch.
func (sl *SettlementLogger) LogDispatchFailure(date time.Time, err error) {
	sl.WithError(err).WithField("date", date.Format("2006-01-02")).Warn("Summary dispatch failed")
}
