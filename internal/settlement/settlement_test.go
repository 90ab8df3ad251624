package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

func ptr(v float64) *float64 { return &v }

func runners(n int) *int { return &n }

func TestResolvePlaceTerms(t *testing.T) {
	tests := []struct {
		name     string
		runners  int
		raceName string
		want     PlaceTerms
	}{
		{"big handicap", 16, "Lincoln Hcp", PlaceTerms{0.25, 4}},
		{"mid handicap", 12, "Class 4 HCP", PlaceTerms{0.25, 3}},
		{"eight runner handicap uses general rule", 10, "X Hcp", PlaceTerms{0.20, 3}},
		{"large non handicap", 16, "Maiden Stakes", PlaceTerms{0.20, 3}},
		{"eight runners", 8, "Novice Stakes", PlaceTerms{0.20, 3}},
		{"small field", 6, "Conditions Stakes", PlaceTerms{0.25, 2}},
		{"tiny field", 4, "Match", WinOnly},
		{"unknown runners", 0, "Big Hcp", WinOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePlaceTerms(tt.runners, tt.raceName))
		})
	}
}

func TestProfitWorkedExamples(t *testing.T) {
	terms := ResolvePlaceTerms(10, "X Hcp")
	assert.Equal(t, 0.20, terms.Fraction)
	assert.Equal(t, 3, terms.Places)
	assert.Equal(t, 5.0, Profit(10.0, models.Finished(1), 1.0, terms))

	assert.Equal(t, -1.0, Profit(3.0, models.Finished(2), 1.0, terms))
}

func TestProfitWinOnlyPrices(t *testing.T) {
	for _, price := range []float64{1.5, 2.0, 3.75, 4.99} {
		assert.InDelta(t, (price-1)*2, Profit(price, models.Finished(1), 2, WinOnly), 0.005)
		assert.Equal(t, -2.0, Profit(price, models.Finished(3), 2, WinOnly))
		assert.Equal(t, -2.0, Profit(price, models.ParsePosition("PU"), 2, WinOnly))
	}
}

func TestProfitEachWay(t *testing.T) {
	terms := PlaceTerms{Fraction: 0.25, Places: 2}

	// placed: lose the win leg, collect the place leg
	assert.Equal(t, 0.0, Profit(8.0, models.Finished(2), 1, terms))
	// outside the places
	assert.Equal(t, -1.0, Profit(8.0, models.Finished(3), 1, terms))
	// win-only terms never pay the place leg
	assert.Equal(t, -1.0, Profit(8.0, models.Finished(2), 1, WinOnly))
	// unknown position loses both legs
	assert.Equal(t, -1.0, Profit(8.0, models.ParsePosition("F"), 1, terms))
}

func TestProfitNonRunnerAndInvalidPrice(t *testing.T) {
	terms := PlaceTerms{Fraction: 0.2, Places: 3}
	assert.Equal(t, 0.0, Profit(10, models.NotRun(), 1, terms))
	assert.Equal(t, 0.0, Profit(2, models.NotRun(), 1, terms))
	assert.Equal(t, 0.0, Profit(1.0, models.Finished(1), 1, terms))
	assert.Equal(t, 0.0, Profit(0, models.Finished(1), 1, terms))
}

func TestClassify(t *testing.T) {
	terms := PlaceTerms{Fraction: 0.2, Places: 3}
	assert.Equal(t, models.OutcomeWin, Classify(3, models.Finished(1), terms))
	assert.Equal(t, models.OutcomePlace, Classify(8, models.Finished(3), terms))
	assert.Equal(t, models.OutcomeLoss, Classify(3, models.Finished(2), terms))
	assert.Equal(t, models.OutcomeNonRunner, Classify(8, models.NotRun(), terms))
}

func TestMatchTipsFirstDuplicateWins(t *testing.T) {
	tips := []models.Tip{
		{Race: "13:30 Ascot", Name: "Alpha (IRE)"},
		{Race: "14:00 Ascot", Name: "Missing"},
		{Race: "14:30 (IRE)", Name: "No Course"},
	}
	results := []models.ResultRecord{
		{Time: "1:30", Course: "Ascot", Horse: "Alpha", Position: models.Finished(2)},
		{Time: "1:30", Course: "Ascot", Horse: "Alpha (IRE)", Position: models.Finished(7)},
	}

	matches := MatchTips(tips, results)
	require.Len(t, matches, 3)

	assert.True(t, matches[0].Matched())
	assert.Equal(t, 2, matches[0].Position().Rank)

	assert.False(t, matches[1].Matched())
	assert.True(t, matches[1].Position().IsNonRunner())

	assert.False(t, matches[2].Keyed)
	assert.False(t, matches[2].Matched())
}

func TestSettleDay(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tips := []models.Tip{
		{Race: "13:30 Ascot", Name: "Winner", Confidence: ptr(0.9), PriceAtIssue: ptr(10.0), Stake: ptr(2.0), Tags: []string{"NAP"}},
		{Race: "14:00 Ascot", Name: "Loser", Confidence: ptr(0.7), PriceAtIssue: ptr(3.0)},
		{Race: "14:30 Ascot", Name: "Withdrawn", Confidence: ptr(0.8), PriceAtIssue: ptr(4.0)},
		{Race: "15:00 Ascot", Name: "Ghost", Confidence: ptr(0.6), PriceAtIssue: ptr(6.0)},
		{Race: "15:30 Ascot", Name: "No Price", Confidence: ptr(0.6)},
	}
	results := []models.ResultRecord{
		{Time: "1:30", Course: "Ascot", Horse: "Winner", Position: models.Finished(1), Runners: runners(10), RaceName: "X Hcp"},
		{Time: "2:00", Course: "Ascot", Horse: "Loser", Position: models.Finished(2), Runners: runners(6)},
		{Time: "2:30", Course: "Ascot", Horse: "Withdrawn", Position: models.NotRun(), Runners: runners(9)},
		{Time: "3:30", Course: "Ascot", Horse: "No Price", Position: models.Finished(1), Runners: runners(9)},
	}

	day := Settle(date, tips, results, Options{Mode: models.StakeModeAdvised})
	require.Len(t, day.Settlements, 5)

	winner := day.Settlements[0]
	assert.Equal(t, 2.0, winner.Stake)
	assert.Equal(t, 10.0, winner.Profit)
	assert.Equal(t, models.OutcomeWin, winner.Outcome)
	assert.True(t, winner.NAP)
	assert.Equal(t, "13:30", winner.Time)
	assert.Equal(t, "Ascot", winner.Course)

	assert.Equal(t, -1.0, day.Settlements[1].Profit)
	assert.Equal(t, 0.0, day.Settlements[2].Profit)
	assert.True(t, day.Settlements[2].IsNonRunner())

	ghost := day.Settlements[3]
	assert.False(t, ghost.Matched)
	assert.True(t, ghost.IsNonRunner())
	assert.Equal(t, 0.0, ghost.Profit)

	noPrice := day.Settlements[4]
	assert.False(t, noPrice.PriceValid)
	assert.Equal(t, 0.0, noPrice.Profit)

	s := day.Summary
	assert.Equal(t, 3, s.Tips)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Places)
	assert.Equal(t, 2, s.NonRunners)
	assert.Equal(t, 1, s.Unmatched)
	assert.Equal(t, 3.0, s.Stake)
	assert.Equal(t, 9.0, s.Profit)
	assert.InDelta(t, 300.0, s.GetROI(), 1e-9)
}

func TestSettleLevelStakesAndFilters(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tips := []models.Tip{
		{Race: "13:30 York", Name: "A", Confidence: ptr(0.9), PriceAtIssue: ptr(2.0), Stake: ptr(5.0), Tags: []string{"Value"}},
		{Race: "14:00 York", Name: "B", Confidence: ptr(0.5), PriceAtIssue: ptr(2.0), Tags: []string{"Value"}},
		{Race: "14:30 York", Name: "C", Confidence: ptr(0.95), PriceAtIssue: ptr(2.0)},
	}
	results := []models.ResultRecord{
		{Time: "1:30", Course: "York", Horse: "A", Position: models.Finished(1)},
	}

	day := Settle(date, tips, results, Options{Mode: models.StakeModeLevel, MinConfidence: 0.8, Tag: "value"})
	require.Len(t, day.Settlements, 1)
	assert.Equal(t, 2, day.Filtered)
	assert.Equal(t, 1.0, day.Settlements[0].Stake)
	assert.Equal(t, 1.0, day.Settlements[0].Profit)
	assert.Equal(t, models.StakeModeLevel, day.Settlements[0].Mode)
}

func TestSettleIsDeterministic(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tips := []models.Tip{{Race: "13:30 Ascot", Name: "A", PriceAtIssue: ptr(4.0)}}
	results := []models.ResultRecord{{Time: "1:30", Course: "Ascot", Horse: "A", Position: models.Finished(1)}}

	first := Settle(date, tips, results, Options{})
	second := Settle(date, tips, results, Options{})
	assert.Equal(t, first.Settlements, second.Settlements)
}

func TestPreferRealisticPrice(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tips := []models.Tip{{Race: "13:30 Ascot", Name: "A", PriceAtIssue: ptr(4.0), RealisticPrice: ptr(3.0)}}
	results := []models.ResultRecord{{Time: "1:30", Course: "Ascot", Horse: "A", Position: models.Finished(1)}}

	day := Settle(date, tips, results, Options{PreferRealisticPrice: true})
	assert.Equal(t, 3.0, day.Settlements[0].Price)
	assert.Equal(t, 2.0, day.Settlements[0].Profit)
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 1.24, RoundMoney(1.235))
	assert.Equal(t, 0.0, RoundMoney(0))
}
