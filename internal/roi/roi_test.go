package roi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

var base = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func settled(daysAgo int, conf float64, rank int, stake, profit float64, tags ...string) models.Settlement {
	pos := models.Finished(rank)
	if rank == 0 {
		pos = models.NotRun()
	}
	return models.Settlement{
		Date:       base.AddDate(0, 0, -daysAgo),
		Confidence: ptr(conf),
		Position:   pos,
		PriceValid: true,
		Stake:      stake,
		Profit:     profit,
		Tags:       tags,
	}
}

func TestBandContains(t *testing.T) {
	half := DefaultBands[0]
	assert.True(t, half.Contains(0.50))
	assert.False(t, half.Contains(0.60))

	near := DefaultBands[5]
	assert.True(t, near.Closed)
	assert.True(t, near.Contains(1.01))
	assert.True(t, near.Contains(0.99))
	assert.False(t, near.Contains(1.02))
}

func TestFindBandOrder(t *testing.T) {
	b, ok := FindBand(0.995, DefaultBands, Ascending)
	require.True(t, ok)
	assert.Equal(t, "0.90-1.00", b.Label)

	b, ok = FindBand(0.995, DefaultBands, Descending)
	require.True(t, ok)
	assert.Equal(t, "0.99-1.01", b.Label)

	b, ok = FindBand(1.0, DefaultBands, Ascending)
	require.True(t, ok)
	assert.Equal(t, "0.99-1.01", b.Label)

	_, ok = FindBand(0.42, DefaultBands, Ascending)
	assert.False(t, ok)
}

func TestDecayWeight(t *testing.T) {
	assert.Equal(t, 1.0, DefaultDecay.Weight(0))
	assert.Equal(t, 1.0, DefaultDecay.Weight(30))
	assert.Equal(t, 0.5, DefaultDecay.Weight(31))
	assert.Equal(t, 0.5, DefaultDecay.Weight(90))
	assert.Equal(t, 0.1, DefaultDecay.Weight(91))

	unsorted := Decay{Buckets: []DecayBucket{{90, 0.5}, {30, 1}}, Floor: 0}
	assert.Equal(t, 1.0, unsorted.Weight(10))
	assert.Equal(t, 0.0, unsorted.Weight(200))
}

func TestByBand(t *testing.T) {
	agg := NewAggregator(nil, "", Decay{})
	rows := []models.Settlement{
		settled(0, 0.55, 1, 1, 3),
		settled(0, 0.58, 3, 1, -1),
		settled(40, 0.72, 1, 1, 4),
		settled(100, 0.72, 5, 1, -1),
		settled(0, 0.995, 2, 1, -1),
		settled(0, 0.65, 0, 1, 0),
		settled(0, 0.30, 1, 1, 5),
	}
	rows = append(rows, models.Settlement{Date: base, Position: models.Finished(1), PriceValid: true, Stake: 1, Profit: 9})

	buckets := agg.ByBand(rows)
	require.Len(t, buckets, len(DefaultBands))

	low := buckets[0]
	assert.Equal(t, 2, low.Tips)
	assert.Equal(t, 1, low.Wins)
	assert.Equal(t, 1, low.Places)
	assert.Equal(t, 2.0, low.ROIBucket.Stake)
	assert.Equal(t, 100.0, low.ROIPct())
	assert.Equal(t, 50.0, low.WinPct())

	nr := buckets[1]
	assert.Equal(t, 0, nr.Tips)
	assert.Equal(t, 1, nr.NonRunners)
	assert.Equal(t, 0.0, nr.ROIPct())

	seventy := buckets[2]
	assert.Equal(t, 2, seventy.Tips)
	assert.InDelta(t, 0.6, seventy.WeightedTips, 1e-9)
	assert.InDelta(t, 0.5*4-0.1, seventy.WeightedProfit, 1e-9)

	assert.Equal(t, 1, buckets[4].Tips, "0.995 lands in the half-open band when scanning ascending")
	assert.Equal(t, 0, buckets[5].Tips)
}

func TestByBandDescendingOrder(t *testing.T) {
	agg := NewAggregator(nil, Descending, Decay{})
	buckets := agg.ByBand([]models.Settlement{settled(0, 0.995, 1, 1, 2)})
	assert.Equal(t, 0, buckets[4].Tips)
	assert.Equal(t, 1, buckets[5].Tips)
}

func TestByTag(t *testing.T) {
	agg := NewAggregator(nil, Ascending, DefaultDecay)
	rows := []models.Settlement{
		settled(0, 0.8, 1, 1, 2, "Value", "NAP"),
		settled(1, 0.7, 4, 1, -1, "Value", "Value"),
		settled(2, 0.6, 6, 1, -1),
	}

	buckets := agg.ByTag(rows)
	require.Len(t, buckets, 2)
	assert.Equal(t, "NAP", buckets[0].Label)
	assert.Equal(t, 1, buckets[0].Tips)
	assert.Equal(t, "Value", buckets[1].Label)
	assert.Equal(t, 2, buckets[1].Tips)
	assert.Equal(t, 1.0, buckets[1].Profit)
	assert.Equal(t, 50.0, buckets[1].ROIPct())
}

func TestByPeriod(t *testing.T) {
	agg := NewAggregator(nil, Ascending, DefaultDecay)
	rows := []models.Settlement{
		settled(0, 0.8, 1, 1, 2),   // 2025-06-30, W27
		settled(1, 0.8, 5, 1, -1),  // 2025-06-29, W26
		settled(30, 0.8, 2, 1, -1), // 2025-05-31, W22
	}

	weeks := agg.ByPeriod(rows, PeriodWeek)
	require.Len(t, weeks, 3)
	assert.Equal(t, "2025-W22", weeks[0].Label)
	assert.Equal(t, "2025-W26", weeks[1].Label)
	assert.Equal(t, "2025-W27", weeks[2].Label)

	months := agg.ByPeriod(rows, PeriodMonth)
	require.Len(t, months, 2)
	assert.Equal(t, "2025-05", months[0].Label)
	assert.Equal(t, 2, months[1].Tips)

	days := agg.ByPeriod(rows, PeriodDay)
	assert.Equal(t, "2025-05-31", days[0].Label)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("Weekly")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, p)

	p, err = ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodDay, p)

	_, err = ParsePeriod("fortnight")
	assert.Error(t, err)
}

func TestNAPHistory(t *testing.T) {
	agg := NewAggregator(nil, Ascending, DefaultDecay)
	nap := settled(0, 0.9, 1, 1, 3)
	nap.NAP = true
	rows := []models.Settlement{nap, settled(0, 0.8, 1, 1, 3), settled(1, 0.9, 4, 1, -1, "nap")}

	history := agg.NAPHistory(rows, PeriodDay)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Tips)
	assert.Equal(t, -1.0, history[0].Profit)
	assert.Equal(t, 100.0, history[1].WinPct())
}

func TestOverallZeroStake(t *testing.T) {
	agg := NewAggregator(nil, Ascending, DefaultDecay)
	overall := agg.Overall([]models.Settlement{settled(0, 0.8, 0, 1, 0)})
	assert.Equal(t, 0.0, overall.Stake)
	assert.Equal(t, 0.0, overall.ROIPct())
	assert.Equal(t, 1, overall.NonRunners)
}

func TestBandWindow(t *testing.T) {
	agg := NewAggregator(nil, Ascending, DefaultDecay)
	band := DefaultBands[2]
	rows := []models.Settlement{
		settled(1, 0.75, 1, 1, 3),   // inside
		settled(30, 0.72, 4, 1, -1), // inside, first day of window
		settled(31, 0.72, 1, 1, 9),  // too old
		settled(0, 0.72, 1, 1, 9),   // same day as asOf, excluded
		settled(2, 0.85, 1, 1, 9),   // other band
	}

	bucket := agg.BandWindow(rows, band, base, 30)
	assert.Equal(t, 2, bucket.Tips)
	assert.Equal(t, 2.0, bucket.Profit)
}

func TestRollingWindow(t *testing.T) {
	rows := []models.Settlement{
		settled(40, 0.8, 1, 1, 4),
		settled(10, 0.8, 2, 1, -1),
		settled(10, 0.8, 1, 2, 2),
		settled(0, 0.8, 0, 1, 0),
		settled(0, 0.8, 5, 1, -1),
	}

	points := Rolling(rows, 30)
	require.Len(t, points, 3)

	assert.Equal(t, base.AddDate(0, 0, -40), points[0].Date)
	assert.Equal(t, 4.0, points[0].Profit)

	// the 40-day-old row has left the window by day -10
	assert.Equal(t, 2, points[1].Tips)
	assert.Equal(t, 3.0, points[1].Stake)
	assert.Equal(t, 1.0, points[1].Profit)
	assert.Equal(t, 1, points[1].Days)

	assert.Equal(t, 3, points[2].Tips)
	assert.Equal(t, 4.0, points[2].Stake)
	assert.Equal(t, 0.0, points[2].Profit)
	assert.Equal(t, 0.0, points[2].ROIPct())
	assert.Equal(t, 2, points[2].Days)
}

func TestRollingSinglePassMatchesIncremental(t *testing.T) {
	rows := make([]models.Settlement, 0, 30)
	for i := 0; i < 30; i++ {
		rank := 1 + i%4
		profit := -1.0
		if rank == 1 {
			profit = 2.5
		}
		rows = append(rows, settled(29-i, 0.7, rank, 1, profit))
	}

	points := Rolling(rows, 30)
	require.Len(t, points, 30)
	last := points[len(points)-1]

	var tips, wins int
	var stake, profit float64
	for _, day := range DailyTotals(rows) {
		tips += day.Tips
		wins += day.Wins
		stake += day.Stake
		profit += day.Profit
	}

	assert.Equal(t, tips, last.Tips)
	assert.Equal(t, wins, last.Wins)
	assert.InDelta(t, stake, last.Stake, 1e-9)
	assert.InDelta(t, profit, last.Profit, 1e-9)
	assert.Equal(t, 30, last.Days)
}
