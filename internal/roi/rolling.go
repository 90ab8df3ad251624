package roi

import (
	"sort"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// DefaultWindowDays is the default rolling window length.
const DefaultWindowDays = 30

// RollingPoint is the trailing-window total ending on Date.
type RollingPoint struct {
	Date   time.Time `json:"date"`
	Days   int       `json:"days"`
	Tips   int       `json:"tips"`
	Wins   int       `json:"wins"`
	Stake  float64   `json:"stake"`
	Profit float64   `json:"profit"`
}

// ROIPct returns the window ROI percentage, 0 when nothing was staked.
func (p RollingPoint) ROIPct() float64 {
	if p.Stake == 0 {
		return 0
	}
	return p.Profit / p.Stake * 100
}

// DailyTotals groups settlements by calendar day, oldest first.
func DailyTotals(settlements []models.Settlement) []models.ROIBucket {
	byDay := make(map[string]*models.ROIBucket)
	for i := range settlements {
		label := Day(settlements[i].Date).Format(models.DateLayout)
		b, ok := byDay[label]
		if !ok {
			b = &models.ROIBucket{Label: label}
			byDay[label] = b
		}
		b.Add(&settlements[i], 1)
	}
	return sortedBuckets(byDay)
}

// Rolling returns, for every calendar day with data, the totals of the
// windowDays days ending on that day. Each point is summed from the daily
// rows inside its window; missing days are simply absent.
func Rolling(settlements []models.Settlement, windowDays int) []RollingPoint {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	daily := DailyTotals(settlements)
	dates := make([]time.Time, len(daily))
	for i, b := range daily {
		// labels were produced from DateLayout
		dates[i], _ = time.Parse(models.DateLayout, b.Label)
	}

	points := make([]RollingPoint, 0, len(daily))
	for i, end := range dates {
		start := end.AddDate(0, 0, -(windowDays - 1))
		first := sort.Search(i+1, func(j int) bool { return !dates[j].Before(start) })

		p := RollingPoint{Date: end, Days: i - first + 1}
		for _, b := range daily[first : i+1] {
			p.Tips += b.Tips
			p.Wins += b.Wins
			p.Stake += b.Stake
			p.Profit += b.Profit
		}
		points = append(points, p)
	}
	return points
}
