package datasource

import (
	"github.com/watsonpaul80/tipping-monster/internal/config"
)

// Factory builds the file-backed sources described by configuration.
type Factory struct {
	cfg    *config.Config
	layout Layout
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg, layout: LayoutFromConfig(cfg.Paths)}
}

// LayoutFromConfig builds a Layout from the configured paths. Empty
// templates fall back to the defaults.
func LayoutFromConfig(p config.PathsConfig) Layout {
	l := DefaultLayout(p.Root)
	if p.Tips != "" {
		l.TipsTemplate = p.Tips
	}
	if p.SentTips != "" {
		l.SentTipsTemplate = p.SentTips
	}
	if p.Results != "" {
		l.ResultsTemplate = p.Results
	}
	if p.SettlementLog != "" {
		l.SettlementTemplate = p.SettlementLog
	}
	if p.NAPLog != "" {
		l.NAPLogTemplate = p.NAPLog
	}
	return l
}

// Layout returns the resolved file layout.
func (f *Factory) Layout() Layout {
	return f.layout
}

// TipSource returns the configured tip source.
func (f *Factory) TipSource() TipSource {
	return NewFileTipSource(f.layout, f.cfg.Settlement.UseSentTips)
}

// ResultSource returns the results source, behind a cache when enabled.
func (f *Factory) ResultSource(observer CacheObserver) ResultSource {
	var src ResultSource = NewFileResultSource(f.layout)
	if f.cfg.Cache.Enabled {
		src = NewResultsCache(src, f.cfg.Cache.TTL, f.cfg.Cache.MaxSize, observer)
	}
	return src
}

// LogReader returns a reader over accumulated settlement logs.
func (f *Factory) LogReader() *LogReader {
	return NewLogReader(f.layout)
}
