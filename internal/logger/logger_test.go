package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

var testDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestNewLoggerLevelAndFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerWithOutput("debug", FormatJSON, buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.Info("hello")
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "hello", entry["msg"])
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	log := NewLoggerWithOutput("loud", FormatText, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	_, ok := log.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestFormatForEnvironment(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForEnvironment("production"))
	assert.Equal(t, FormatText, FormatForEnvironment("development"))
}

func TestSettlementLoggerDaySettled(t *testing.T) {
	log, buf := setupTestLogger()
	settlementLogger := NewSettlementLogger(log)

	settlementLogger.LogDaySettled(testDate, "advised", 10, 3, 2, 1, 1, 10, 4.5, 45, 20*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "settlement", logEntry["component"])
	assert.Equal(t, "2025-06-01", logEntry["date"])
	assert.Equal(t, float64(10), logEntry["tips"])
	assert.Equal(t, 4.5, logEntry["profit"])
}

func TestSettlementLoggerParseFailures(t *testing.T) {
	log, buf := setupTestLogger()
	settlementLogger := NewSettlementLogger(log)

	settlementLogger.LogParseFailures("tips.jsonl", 2, errors.New("bad json"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "bad json", logEntry["error"])
	assert.Equal(t, float64(2), logEntry["skipped"])
}

func TestSettlementLoggerMissingInput(t *testing.T) {
	log, buf := setupTestLogger()
	settlementLogger := NewSettlementLogger(log)

	settlementLogger.LogMissingInput(testDate, "results", "results.csv")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "results", logEntry["kind"])
}

func TestAuditLoggerNAPOverride(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogNAPOverride(testDate, "Big Price", "30.0", "Short", "5.0", "Blocked NAP: Big Price @ 30.0 -> Short @ 5.0")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "Short", logEntry["replacement_horse"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestAuditLoggerNAPNoReplacement(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogNAPOverride(testDate, "Big Price", "30.0", "", "", "Blocked NAP: Big Price @ 30.0 (no replacement)")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.NotContains(t, logEntry, "replacement_horse")
}

func TestAuditLoggerGateDecision(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogGateDecision("13:30 Ascot", "Horse", "0.70-0.80", 0.72, 12.5, true, true)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, true, logEntry["issued"])
	assert.Equal(t, "0.70-0.80", logEntry["band"])
}
