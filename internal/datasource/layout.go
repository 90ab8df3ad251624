package datasource

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// Default path templates, relative to Layout.Root.
const (
	DefaultTipsTemplate       = "predictions/{date}/tips_with_odds.jsonl"
	DefaultSentTipsTemplate   = "logs/dispatch/sent_tips_{date}.jsonl"
	DefaultResultsTemplate    = "rpscrape/data/dates/all/{date_us}.csv"
	DefaultSettlementTemplate = "logs/roi/tips_results_{date}_{mode}.csv"
	DefaultNAPLogTemplate     = "logs/nap_override_{date}.log"
)

// Layout resolves per-day file paths from templates. Templates may use
// {date} (2006-01-02), {date_us} (2006_01_02) and {mode}.
type Layout struct {
	Root               string
	TipsTemplate       string
	SentTipsTemplate   string
	ResultsTemplate    string
	SettlementTemplate string
	NAPLogTemplate     string
}

// DefaultLayout returns the standard layout rooted at root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:               root,
		TipsTemplate:       DefaultTipsTemplate,
		SentTipsTemplate:   DefaultSentTipsTemplate,
		ResultsTemplate:    DefaultResultsTemplate,
		SettlementTemplate: DefaultSettlementTemplate,
		NAPLogTemplate:     DefaultNAPLogTemplate,
	}
}

// Tips returns the path of the predicted tips for date.
func (l Layout) Tips(date time.Time) string {
	return l.resolve(l.TipsTemplate, date, "")
}

// SentTips returns the path of the tips actually dispatched on date.
func (l Layout) SentTips(date time.Time) string {
	return l.resolve(l.SentTipsTemplate, date, "")
}

// Results returns the path of the results file for date.
func (l Layout) Results(date time.Time) string {
	return l.resolve(l.ResultsTemplate, date, "")
}

// Settlement returns the path of the settlement log for date and mode.
func (l Layout) Settlement(date time.Time, mode models.StakeMode) string {
	return l.resolve(l.SettlementTemplate, date, string(mode))
}

// NAPLog returns the path of the NAP override audit log for date.
func (l Layout) NAPLog(date time.Time) string {
	return l.resolve(l.NAPLogTemplate, date, "")
}

// SettlementGlob returns a glob matching every settlement log for mode.
func (l Layout) SettlementGlob(mode models.StakeMode) string {
	p := strings.NewReplacer("{date}", "*", "{date_us}", "*", "{mode}", string(mode)).Replace(l.SettlementTemplate)
	return filepath.Join(l.Root, p)
}

func (l Layout) resolve(template string, date time.Time, mode string) string {
	p := strings.NewReplacer(
		"{date}", date.Format(models.DateLayout),
		"{date_us}", date.Format("2006_01_02"),
		"{mode}", mode,
	).Replace(template)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}
