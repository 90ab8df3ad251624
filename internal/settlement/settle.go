package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/normalize"
)

// DefaultStake is the stake used when a tip carries none.
const DefaultStake = 1.0

// Options control how a day is settled.
type Options struct {
	Mode                 models.StakeMode
	DefaultStake         float64
	PreferRealisticPrice bool
	// MinConfidence drops tips below the threshold before settling. Zero keeps every tip.
	MinConfidence float64
	// Tag restricts settlement to tips carrying the tag. Empty keeps every tip.
	Tag string
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = models.StakeModeAdvised
	}
	if o.DefaultStake <= 0 {
		o.DefaultStake = DefaultStake
	}
	return o
}

// DayResult is the settled output of one day.
type DayResult struct {
	Date        time.Time
	Settlements []models.Settlement
	Summary     models.DailySummary
	Filtered    int
}

// Settle joins a day's tips to its results and prices every tip.
func Settle(date time.Time, tips []models.Tip, results []models.ResultRecord, opts Options) *DayResult {
	opts = opts.withDefaults()

	selected := make([]models.Tip, 0, len(tips))
	for i := range tips {
		if !include(&tips[i], opts) {
			continue
		}
		selected = append(selected, tips[i])
	}

	out := &DayResult{
		Date:        date,
		Settlements: make([]models.Settlement, 0, len(selected)),
		Filtered:    len(tips) - len(selected),
	}

	for _, m := range MatchTips(selected, results) {
		out.Settlements = append(out.Settlements, settleMatch(date, m, opts))
	}
	out.Summary = Summarize(date, out.Settlements)
	return out
}

// Summarize builds the daily summary line for a set of settlements.
func Summarize(date time.Time, settlements []models.Settlement) models.DailySummary {
	var bucket models.ROIBucket
	unmatched := 0
	for i := range settlements {
		bucket.Add(&settlements[i], 1)
		if !settlements[i].Matched {
			unmatched++
		}
	}
	return models.DailySummary{
		Date:       date,
		Tips:       bucket.Tips,
		Wins:       bucket.Wins,
		Places:     bucket.Places,
		NonRunners: bucket.NonRunners,
		Unmatched:  unmatched,
		Stake:      RoundMoney(bucket.Stake),
		Profit:     RoundMoney(bucket.Profit),
	}
}

func include(tip *models.Tip, opts Options) bool {
	if opts.MinConfidence > 0 && !tip.MeetsThreshold(opts.MinConfidence) {
		return false
	}
	if opts.Tag != "" && !tip.HasTag(opts.Tag) {
		return false
	}
	return true
}

func settleMatch(date time.Time, m Match, opts Options) models.Settlement {
	tip := m.Tip
	raceTime, course := normalize.SplitRace(tip.Race)

	price, priceOK := tip.GetPrice(opts.PreferRealisticPrice)

	stake := 1.0
	if opts.Mode == models.StakeModeAdvised {
		stake = tip.GetStake(opts.DefaultStake)
	}

	terms := WinOnly
	if m.Result != nil {
		terms = ResolvePlaceTerms(m.Result.GetRunners(), m.Result.RaceName)
	}

	pos := m.Position()
	s := models.Settlement{
		Date:       date,
		Time:       normalize.Time(raceTime),
		Course:     course,
		Horse:      tip.Name,
		Price:      price,
		PriceValid: priceOK,
		Confidence: tip.Confidence,
		Position:   pos,
		Stake:      stake,
		Outcome:    Classify(price, pos, terms),
		Mode:       opts.Mode,
		Tags:       tip.Tags,
		NAP:        tip.NAP || tip.HasTag(models.NAPTag),
		Matched:    m.Matched(),
	}
	if priceOK {
		s.Profit = Profit(price, pos, stake, terms)
	}

	s.ID = RowID(&s)
	return s
}

// RowID derives a settlement's ID from its normalized key, falling back to
// the written fields when the row cannot be keyed. Rows read back from a
// settlement log get the same ID they were settled with.
func RowID(s *models.Settlement) uuid.UUID {
	if key, ok := normalize.NewKey(s.Time, s.Course, s.Horse); ok {
		return models.SettlementID(s.Date, key.Time, key.Course, key.Horse, s.Mode)
	}
	return models.SettlementID(s.Date, s.Time, s.Course, s.Horse, s.Mode)
}
