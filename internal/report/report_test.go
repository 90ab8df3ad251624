package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watsonpaul80/tipping-monster/internal/gate"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

var testDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestSummaryLine(t *testing.T) {
	s := models.DailySummary{Date: testDate, Tips: 3, Wins: 2, Places: 1, NonRunners: 2, Stake: 3, Profit: 9}
	assert.Equal(t,
		"2025-06-01   Tips: 3    Wins: 2   Places: 1   NRs: 2   Stake: 3.00 Profit: 9.00 ROI: 300.00%",
		SummaryLine(s))
}

func TestSummaryLine_ZeroStake(t *testing.T) {
	s := models.DailySummary{Date: testDate}
	assert.True(t, strings.HasSuffix(SummaryLine(s), "ROI: 0.00%"))
}

func TestDispatchMessage(t *testing.T) {
	msg := DispatchMessage(models.DailySummary{Date: testDate, Tips: 4, Wins: 1, Stake: 4, Profit: -1.5}, models.StakeModeAdvised)
	assert.Contains(t, msg, "2025-06-01 ROI Summary")
	assert.Contains(t, msg, "-1.50 pts")
	assert.Contains(t, msg, "-37.50%")
	assert.NotContains(t, msg, "NRs")

	msg = DispatchMessage(models.DailySummary{Date: testDate, NonRunners: 1}, models.StakeModeLevel)
	assert.Contains(t, msg, "NRs:</b> 1")
}

func TestWriteBucketsCSV(t *testing.T) {
	var buf bytes.Buffer
	buckets := []models.ROIBucket{{Label: "Form", Tips: 4, Wins: 1, Places: 2, Stake: 4, Profit: 2}}
	require.NoError(t, WriteBucketsCSV(&buf, buckets))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Label", records[0][0])
	assert.Equal(t, []string{"Form", "4", "1", "2", "0", "4.00", "2.00", "25.00", "50.00", "50.00"}, records[1][:10])
}

func TestWriteRollingCSV(t *testing.T) {
	var buf bytes.Buffer
	points := []roi.RollingPoint{{Date: testDate, Days: 1, Tips: 2, Wins: 1, Stake: 2, Profit: 1}}
	require.NoError(t, WriteRollingCSV(&buf, points))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2025-06-01,1,2,1,2.00,1.00,50.00", lines[1])
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	agg := roi.NewAggregator(nil, roi.Ascending, roi.Decay{})
	conf := 0.85
	rows := []models.Settlement{{
		Date: testDate, Time: "13:30", Course: "Ascot", Horse: "Alpha",
		Price: 5, PriceValid: true, Confidence: &conf, Position: models.Finished(1),
		Stake: 1, Profit: 4, Outcome: models.OutcomeWin, Tags: []string{"Form"}, NAP: true,
	}}

	p.Settlements(rows)
	p.Bands(agg.ByBand(rows))
	p.Buckets("tags", agg.ByTag(rows))
	p.Rolling(roi.Rolling(rows, 30), 30)
	p.GateDecisions([]models.Tip{{Race: "13:30 Ascot", Name: "Alpha", Confidence: &conf}},
		[]gate.Decision{{Issue: true, Reason: gate.ReasonAboveThreshold}})

	out := buf.String()
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Confidence Bands")
	assert.Contains(t, out, "Rolling 30-")
	assert.Contains(t, out, "0.80-0.90")
	assert.Contains(t, out, "above_threshold")
}
