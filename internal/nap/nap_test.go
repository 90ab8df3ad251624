package nap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watsonpaul80/tipping-monster/internal/logger"
	"github.com/watsonpaul80/tipping-monster/internal/models"
)

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func tip(name string, conf, price float64) models.Tip {
	return models.Tip{Race: "13:30 Ascot", Name: name, Confidence: ptr(conf), PriceAtIssue: ptr(price)}
}

func TestSelectBlockedTopTip(t *testing.T) {
	sink := &MemorySink{}
	selector := NewSelector(21, sink)

	tips := []models.Tip{tip("Long Shot", 0.99, 30), tip("Solid", 0.95, 5)}
	sel, err := selector.Select(context.Background(), day, tips)
	require.NoError(t, err)

	require.True(t, sel.HasNAP())
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, "Solid", sel.Tip.Name)
	assert.Equal(t, []string{"Blocked NAP: Long Shot @ 30.0 -> Solid @ 5.0"}, sink.Lines())
}

func TestSelectTopTipQualifies(t *testing.T) {
	sink := &MemorySink{}
	selector := NewSelector(0, sink)
	assert.Equal(t, DefaultCeiling, selector.Ceiling())

	tips := []models.Tip{tip("B", 0.80, 4), tip("A", 0.90, 21)}
	sel, err := selector.Select(context.Background(), day, tips)
	require.NoError(t, err)

	assert.Equal(t, "A", sel.Tip.Name)
	assert.Nil(t, sel.Event)
	assert.Empty(t, sink.Lines())
}

func TestSelectNoReplacement(t *testing.T) {
	sink := &MemorySink{}
	selector := NewSelector(21, sink)

	tips := []models.Tip{tip("A", 0.9, 26), tip("B", 0.8, 34)}
	sel, err := selector.Select(context.Background(), day, tips)
	require.NoError(t, err)

	assert.False(t, sel.HasNAP())
	assert.Equal(t, -1, sel.Index)
	assert.Equal(t, []string{"Blocked NAP: A @ 26.0 (no replacement)"}, sink.Lines())
}

func TestSelectOverrideFlag(t *testing.T) {
	tips := []models.Tip{tip("A", 0.9, 50), tip("B", 0.8, 34)}
	tips[1].OverrideNAP = true

	sel := Choose(day, tips, 21)
	assert.Equal(t, "B", sel.Tip.Name)
	require.NotNil(t, sel.Event)
	assert.Equal(t, "Blocked NAP: A @ 50.0 -> B @ 34.0", sel.Event.Line())
}

func TestSelectMissingPriceNeedsOverride(t *testing.T) {
	tips := []models.Tip{
		{Name: "Unpriced", Confidence: ptr(0.95)},
		tip("Priced", 0.7, 6.5),
	}
	sel := Choose(day, tips, 21)
	assert.Equal(t, "Priced", sel.Tip.Name)
	assert.Equal(t, "Blocked NAP: Unpriced @ N/A -> Priced @ 6.5", sel.Event.Line())
}

func TestSelectTiesKeepInputOrder(t *testing.T) {
	tips := []models.Tip{tip("First", 0.9, 4), tip("Second", 0.9, 4)}
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, Choose(day, tips, 21).Index)
	}
}

func TestSelectEmpty(t *testing.T) {
	sel := Choose(day, nil, 21)
	assert.False(t, sel.HasNAP())
	assert.Nil(t, sel.Event)
}

func TestSelectIsDeterministic(t *testing.T) {
	tips := []models.Tip{tip("A", 0.7, 3), tip("B", 0.99, 40), tip("C", 0.85, 8), tip("D", 0.85, 2)}
	first := Choose(day, tips, 21)
	second := Choose(day, tips, 21)
	assert.Equal(t, first, second)
	assert.Equal(t, "C", first.Tip.Name)
}

func TestApplyKeepsSingleNAP(t *testing.T) {
	tips := []models.Tip{tip("A", 0.9, 4), tip("B", 0.8, 4)}
	tips[1].NAP = true
	tips[1].Tags = []string{"nap", "Value"}

	Apply(tips, Selection{Index: 0, Tip: &tips[0]})

	assert.True(t, tips[0].NAP)
	assert.True(t, tips[0].HasTag(models.NAPTag))
	assert.False(t, tips[1].NAP)
	assert.Equal(t, []string{"Value"}, tips[1].Tags)
}

func TestApplyNoSelection(t *testing.T) {
	tips := []models.Tip{tip("A", 0.9, 40)}
	tips[0].Tags = []string{"NAP"}
	Apply(tips, Selection{Index: -1})
	assert.False(t, tips[0].NAP)
	assert.Empty(t, tips[0].Tags)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "30.0", FormatPrice(ptr(30)))
	assert.Equal(t, "5.5", FormatPrice(ptr(5.5)))
	assert.Equal(t, "4.333", FormatPrice(ptr(4.333)))
	assert.Equal(t, "N/A", FormatPrice(nil))
}

func TestFileSinkAppends(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(func(d time.Time) string {
		return filepath.Join(dir, "logs", "nap_override_"+d.Format("2006-01-02")+".log")
	})
	selector := NewSelector(21, sink)
	tips := []models.Tip{tip("Long Shot", 0.99, 30), tip("Solid", 0.95, 5)}

	for i := 0; i < 2; i++ {
		_, err := selector.Select(context.Background(), day, tips)
		require.NoError(t, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "nap_override_2025-06-01.log"))
	require.NoError(t, err)
	line := "Blocked NAP: Long Shot @ 30.0 -> Solid @ 5.0\n"
	assert.Equal(t, line+line, string(data))
}

func TestLogSink(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	sink := NewLogSink(logger.NewAuditLogger(log))
	require.NoError(t, sink.Record(context.Background(), Event{Date: day, Blocked: Candidate{Name: "A", Price: ptr(30)}}))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Blocked NAP: A @ 30.0 (no replacement)", entry["audit_line"])
	assert.Equal(t, "audit", entry["component"])
}

type failingSink struct{}

func (failingSink) Record(context.Context, Event) error { return errors.New("disk full") }

func TestMultiSinkTriesEverySink(t *testing.T) {
	mem := &MemorySink{}
	multi := MultiSink{failingSink{}, mem}

	err := multi.Record(context.Background(), Event{Date: day, Blocked: Candidate{Name: "A"}})
	assert.EqualError(t, err, "disk full")
	assert.Len(t, mem.Events(), 1)

	selector := NewSelector(21, multi)
	_, err = selector.Select(context.Background(), day, []models.Tip{tip("A", 0.9, 40)})
	assert.ErrorContains(t, err, "failed to record NAP override")
}
