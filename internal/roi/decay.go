package roi

import (
	"sort"
	"time"
)

// DecayBucket assigns Weight to settlements at most MaxAgeDays old.
type DecayBucket struct {
	MaxAgeDays int     `mapstructure:"max_age_days" validate:"gt=0"`
	Weight     float64 `mapstructure:"weight" validate:"gte=0,lte=1"`
}

// Decay weights settlements by age relative to the newest date in a dataset.
type Decay struct {
	Buckets []DecayBucket
	// Floor is the weight of anything older than every bucket.
	Floor float64
}

// DefaultDecay weights the last 30 days fully, up to 90 days at half and
// anything older at a tenth.
var DefaultDecay = Decay{
	Buckets: []DecayBucket{
		{MaxAgeDays: 30, Weight: 1.0},
		{MaxAgeDays: 90, Weight: 0.5},
	},
	Floor: 0.1,
}

// Weight returns the weight of a settlement ageDays old.
func (d Decay) Weight(ageDays int) float64 {
	buckets := make([]DecayBucket, len(d.Buckets))
	copy(buckets, d.Buckets)
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].MaxAgeDays < buckets[j].MaxAgeDays })

	for _, b := range buckets {
		if ageDays <= b.MaxAgeDays {
			return b.Weight
		}
	}
	return d.Floor
}

// DaysBetween returns the number of whole calendar days from earlier to later.
func DaysBetween(earlier, later time.Time) int {
	e := time.Date(earlier.Year(), earlier.Month(), earlier.Day(), 0, 0, 0, 0, time.UTC)
	l := time.Date(later.Year(), later.Month(), later.Day(), 0, 0, 0, 0, time.UTC)
	return int(l.Sub(e).Hours() / 24)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
