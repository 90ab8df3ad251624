// Package service wires the settlement, ROI and tip-selection components to
// their file sources, repository mirror, metrics and dispatch.
package service

import (
	"github.com/watsonpaul80/tipping-monster/internal/config"
	"github.com/watsonpaul80/tipping-monster/internal/gate"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
	"github.com/watsonpaul80/tipping-monster/internal/settlement"
)

// SettlementOptions converts the settlement section of the configuration.
func SettlementOptions(cfg *config.Config) settlement.Options {
	return settlement.Options{
		Mode:                 models.StakeMode(cfg.Settlement.Mode),
		DefaultStake:         cfg.Settlement.DefaultStake,
		PreferRealisticPrice: cfg.Settlement.PreferRealisticPrice,
		MinConfidence:        cfg.Settlement.MinConfidence,
		Tag:                  cfg.Settlement.Tag,
	}
}

// Bands converts configured bands. An empty list yields nil so callers fall
// back to roi.DefaultBands.
func Bands(cfg []config.BandConfig) []roi.Band {
	if len(cfg) == 0 {
		return nil
	}
	bands := make([]roi.Band, len(cfg))
	for i, b := range cfg {
		bands[i] = roi.NewBand(b.Low, b.High, b.Closed)
	}
	return bands
}

// Decay converts the configured decay buckets.
func Decay(cfg config.ROIConfig) roi.Decay {
	if len(cfg.Decay) == 0 {
		return roi.DefaultDecay
	}
	d := roi.Decay{Floor: cfg.DecayFloor, Buckets: make([]roi.DecayBucket, len(cfg.Decay))}
	for i, b := range cfg.Decay {
		d.Buckets[i] = roi.DecayBucket{MaxAgeDays: b.MaxAgeDays, Weight: b.Weight}
	}
	return d
}

// NewAggregator builds the reporting aggregator from configuration.
func NewAggregator(cfg *config.Config) *roi.Aggregator {
	return roi.NewAggregator(Bands(cfg.ROI.Bands), roi.BandOrder(cfg.ROI.BandOrder), Decay(cfg.ROI))
}

// GateConfig converts the gate section. The gate scans the reporting bands in
// its own order.
func GateConfig(cfg *config.Config) gate.Config {
	return gate.Config{
		MinConfidence: cfg.Gate.MinConfidence,
		WindowDays:    cfg.Gate.WindowDays,
		Bands:         Bands(cfg.ROI.Bands),
		Order:         roi.BandOrder(cfg.Gate.BandOrder),
	}
}
