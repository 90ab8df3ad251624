package roi

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// Period is a calendar grouping.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Label returns the period label a date falls in: "2025-06-01", "2025-W22"
// or "2025-06".
func (p Period) Label(t time.Time) string {
	switch p {
	case PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodMonth:
		return t.Format("2006-01")
	default:
		return t.Format(models.DateLayout)
	}
}

// ParsePeriod converts a period name, defaulting to day.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day", "daily":
		return PeriodDay, nil
	case "week", "weekly":
		return PeriodWeek, nil
	case "month", "monthly":
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// BandBucket is the aggregate of one confidence band.
type BandBucket struct {
	Band Band
	models.ROIBucket
}

// Aggregator turns settlements into bucketed statistics. Every call
// recomputes from the settlements it is given.
type Aggregator struct {
	bands []Band
	order BandOrder
	decay Decay
}

// NewAggregator creates an aggregator. Nil bands use DefaultBands, an empty
// order scans ascending and a decay without buckets uses DefaultDecay.
func NewAggregator(bands []Band, order BandOrder, decay Decay) *Aggregator {
	if len(bands) == 0 {
		bands = DefaultBands
	}
	if order == "" {
		order = Ascending
	}
	if len(decay.Buckets) == 0 {
		decay = DefaultDecay
	}
	return &Aggregator{bands: bands, order: order, decay: decay}
}

// Bands returns the configured bands.
func (a *Aggregator) Bands() []Band {
	return a.bands
}

// Order returns the band scan order.
func (a *Aggregator) Order() BandOrder {
	return a.order
}

// Overall aggregates every settlement into one bucket.
func (a *Aggregator) Overall(settlements []models.Settlement) models.ROIBucket {
	ref := newestDate(settlements)
	bucket := models.ROIBucket{Label: "all"}
	for i := range settlements {
		bucket.Add(&settlements[i], a.weight(ref, settlements[i].Date))
	}
	return bucket
}

// ByBand aggregates settlements per confidence band. Every band is returned,
// in band order, even when empty. Settlements without a usable confidence or
// outside every band are left out.
func (a *Aggregator) ByBand(settlements []models.Settlement) []BandBucket {
	ref := newestDate(settlements)

	out := make([]BandBucket, len(a.bands))
	index := make(map[string]int, len(a.bands))
	for i, b := range a.bands {
		out[i] = BandBucket{Band: b, ROIBucket: models.ROIBucket{Label: b.Label}}
		index[b.Label] = i
	}

	for i := range settlements {
		s := &settlements[i]
		conf, ok := s.GetConfidence()
		if !ok {
			continue
		}
		band, ok := FindBand(conf, a.bands, a.order)
		if !ok {
			continue
		}
		out[index[band.Label]].Add(s, a.weight(ref, s.Date))
	}
	return out
}

// ByTag aggregates settlements under each tag they carry, sorted by label.
// Untagged settlements are left out.
func (a *Aggregator) ByTag(settlements []models.Settlement) []models.ROIBucket {
	ref := newestDate(settlements)
	buckets := make(map[string]*models.ROIBucket)

	for i := range settlements {
		s := &settlements[i]
		w := a.weight(ref, s.Date)
		seen := make(map[string]bool, len(s.Tags))
		for _, tag := range s.Tags {
			label := strings.TrimSpace(tag)
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			b, ok := buckets[label]
			if !ok {
				b = &models.ROIBucket{Label: label}
				buckets[label] = b
			}
			b.Add(s, w)
		}
	}
	return sortedBuckets(buckets)
}

// ByPeriod aggregates settlements per calendar period in chronological order.
func (a *Aggregator) ByPeriod(settlements []models.Settlement, period Period) []models.ROIBucket {
	ref := newestDate(settlements)
	buckets := make(map[string]*models.ROIBucket)

	for i := range settlements {
		s := &settlements[i]
		label := period.Label(s.Date)
		b, ok := buckets[label]
		if !ok {
			b = &models.ROIBucket{Label: label}
			buckets[label] = b
		}
		b.Add(s, a.weight(ref, s.Date))
	}
	// labels sort chronologically
	return sortedBuckets(buckets)
}

// NAPHistory aggregates NAP settlements only, per period.
func (a *Aggregator) NAPHistory(settlements []models.Settlement, period Period) []models.ROIBucket {
	naps := make([]models.Settlement, 0)
	for i := range settlements {
		if settlements[i].NAP || settlements[i].HasTag(models.NAPTag) {
			naps = append(naps, settlements[i])
		}
	}
	return a.ByPeriod(naps, period)
}

// BandWindow aggregates the settlements of one band dated in the window of
// windowDays days ending the day before asOf.
func (a *Aggregator) BandWindow(settlements []models.Settlement, band Band, asOf time.Time, windowDays int) models.ROIBucket {
	bucket := models.ROIBucket{Label: band.Label}
	end := Day(asOf)
	start := end.AddDate(0, 0, -windowDays)

	for i := range settlements {
		s := &settlements[i]
		d := Day(s.Date)
		if d.Before(start) || !d.Before(end) {
			continue
		}
		conf, ok := s.GetConfidence()
		if !ok {
			continue
		}
		found, ok := FindBand(conf, a.bands, a.order)
		if !ok || found.Label != band.Label {
			continue
		}
		bucket.Add(s, 1)
	}
	return bucket
}

func (a *Aggregator) weight(ref, date time.Time) float64 {
	return a.decay.Weight(DaysBetween(date, ref))
}

func newestDate(settlements []models.Settlement) time.Time {
	var newest time.Time
	for i := range settlements {
		if settlements[i].Date.After(newest) {
			newest = settlements[i].Date
		}
	}
	return newest
}

func sortedBuckets(buckets map[string]*models.ROIBucket) []models.ROIBucket {
	out := make([]models.ROIBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
