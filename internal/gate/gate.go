// Package gate decides whether tips below the minimum confidence are issued,
// based on the recent ROI of their confidence band.
package gate

import (
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/logger"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

// Reason explains a gate decision.
type Reason string

const (
	ReasonAboveThreshold Reason = "above_threshold"
	ReasonBandProfitable Reason = "band_profitable"
	ReasonNoHistory      Reason = "no_history"
	ReasonBandLosing     Reason = "band_losing"
	ReasonNoBand         Reason = "no_band"
)

// Decision is the outcome of gating one tip.
type Decision struct {
	Issue      bool
	Reason     Reason
	Band       string
	BandROI    float64
	HasHistory bool
}

// Config holds the gate parameters.
type Config struct {
	MinConfidence float64
	WindowDays    int
	Bands         []roi.Band
	Order         roi.BandOrder
}

// Gate consults band history for sub-threshold tips.
type Gate struct {
	cfg   Config
	agg   *roi.Aggregator
	audit *logger.AuditLogger
}

// New creates a gate. audit may be nil.
func New(cfg Config, audit *logger.AuditLogger) *Gate {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = roi.DefaultWindowDays
	}
	return &Gate{
		cfg:   cfg,
		agg:   roi.NewAggregator(cfg.Bands, cfg.Order, roi.Decay{}),
		audit: audit,
	}
}

// Decide gates a tip to be issued on date. Tips at or above the minimum
// confidence are always issued. Below it the tip's band must show a positive
// ROI over the window of days before date; a band with no history or a
// non-positive ROI suppresses the tip.
func (g *Gate) Decide(tip *models.Tip, date time.Time, history []models.Settlement) Decision {
	conf, ok := tip.GetConfidence()
	if ok && conf >= g.cfg.MinConfidence {
		return Decision{Issue: true, Reason: ReasonAboveThreshold}
	}
	if !ok {
		return g.record(tip, conf, Decision{Reason: ReasonNoBand})
	}

	band, found := roi.FindBand(conf, g.agg.Bands(), g.agg.Order())
	if !found {
		return g.record(tip, conf, Decision{Reason: ReasonNoBand})
	}

	bucket := g.agg.BandWindow(history, band, date, g.cfg.WindowDays)
	d := Decision{
		Band:       band.Label,
		BandROI:    bucket.ROIPct(),
		HasHistory: bucket.Tips > 0,
	}
	switch {
	case !d.HasHistory:
		d.Reason = ReasonNoHistory
	case d.BandROI <= 0:
		d.Reason = ReasonBandLosing
	default:
		d.Issue = true
		d.Reason = ReasonBandProfitable
	}
	return g.record(tip, conf, d)
}

// Filter returns the tips to issue on date, in input order, along with the
// decision for every input tip.
func (g *Gate) Filter(tips []models.Tip, date time.Time, history []models.Settlement) ([]models.Tip, []Decision) {
	issued := make([]models.Tip, 0, len(tips))
	decisions := make([]Decision, len(tips))
	for i := range tips {
		decisions[i] = g.Decide(&tips[i], date, history)
		if decisions[i].Issue {
			issued = append(issued, tips[i])
		}
	}
	return issued, decisions
}

func (g *Gate) record(tip *models.Tip, conf float64, d Decision) Decision {
	if g.audit != nil {
		g.audit.LogGateDecision(tip.Race, tip.Name, d.Band, conf, d.BandROI, d.HasHistory, d.Issue)
	}
	return d
}
