// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogNAPOverride logs a blocked NAP and its replacement, if any.
func (al *AuditLogger) LogNAPOverride(date time.Time, blocked string, blockedPrice string, replacement string, replacementPrice string, line string) {
	fields := logrus.Fields{
		"date":          date.Format("2006-01-02"),
		"blocked_horse": blocked,
		"blocked_price": blockedPrice,
		"audit_line":    line,
	}
	if replacement != "" {
		fields["replacement_horse"] = replacement
		fields["replacement_price"] = replacementPrice
		al.WithFields(fields).Info("NAP reassigned")
		return
	}
	al.WithFields(fields).Warn("NAP blocked with no replacement")
}

// LogGateDecision logs a confidence-gate decision for a sub-threshold tip.
func (al *AuditLogger) LogGateDecision(race, horse, band string, confidence, bandROI float64, hasHistory, issued bool) {
	al.WithFields(logrus.Fields{
		"race":        race,
		"horse":       horse,
		"band":        band,
		"confidence":  confidence,
		"band_roi":    bandROI,
		"has_history": hasHistory,
		"issued":      issued,
	}).Info("Confidence gate decision")
}

// LogConfigChange logs a runtime override of a configuration value.
func (al *AuditLogger) LogConfigChange(key string, oldValue, newValue interface{}, source string) {
	al.WithFields(logrus.Fields{
		"key":       key,
		"old_value": oldValue,
		"new_value": newValue,
		"source":    source,
	}).Info("Configuration value overridden")
}
