// Package roi aggregates settlements into confidence-band, tag and period
// statistics.
package roi

import (
	"fmt"
	"math"
)

// Band is a confidence interval. Bands are half-open [Low, High) unless
// Closed is set, in which case High is included.
type Band struct {
	Label  string
	Low    float64
	High   float64
	Closed bool
}

// Contains reports whether a confidence falls inside the band.
func (b Band) Contains(conf float64) bool {
	if math.IsNaN(conf) || conf < b.Low {
		return false
	}
	if b.Closed {
		return conf <= b.High
	}
	return conf < b.High
}

// NewBand creates a band labelled by its bounds.
func NewBand(low, high float64, closed bool) Band {
	return Band{Label: fmt.Sprintf("%.2f-%.2f", low, high), Low: low, High: high, Closed: closed}
}

// DefaultBands are the reporting bands. The closed near-certain band
// overlaps [0.90,1.00); which one a confidence such as 0.995 lands in depends
// on the BandOrder used to scan them.
var DefaultBands = []Band{
	NewBand(0.50, 0.60, false),
	NewBand(0.60, 0.70, false),
	NewBand(0.70, 0.80, false),
	NewBand(0.80, 0.90, false),
	NewBand(0.90, 1.00, false),
	NewBand(0.99, 1.01, true),
}

// BandOrder is the direction in which bands are scanned for a confidence.
type BandOrder string

const (
	// Ascending scans from the lowest band; 0.995 lands in [0.90,1.00).
	Ascending BandOrder = "ascending"
	// Descending scans from the highest band; 0.995 lands in [0.99,1.01].
	Descending BandOrder = "descending"
)

// FindBand returns the first band containing conf when scanned in order.
func FindBand(conf float64, bands []Band, order BandOrder) (Band, bool) {
	if order == Descending {
		for i := len(bands) - 1; i >= 0; i-- {
			if bands[i].Contains(conf) {
				return bands[i], true
			}
		}
		return Band{}, false
	}
	for _, b := range bands {
		if b.Contains(conf) {
			return b, true
		}
	}
	return Band{}, false
}
