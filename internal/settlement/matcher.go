package settlement

import (
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/normalize"
)

// Match pairs a tip with its result. Result is nil when the tip found no
// result, which settles as a non-runner.
type Match struct {
	Tip    *models.Tip
	Result *models.ResultRecord
	Key    normalize.Key
	Keyed  bool
}

// Matched reports whether the tip found a result.
func (m Match) Matched() bool {
	return m.Result != nil
}

// Position returns the result's position, or NR when unmatched.
func (m Match) Position() models.Position {
	if m.Result == nil {
		return models.NotRun()
	}
	return m.Result.Position
}

// IndexResults keys results by their normalized triple. When two rows share a
// key the first one is kept. Rows whose key cannot be built are skipped.
func IndexResults(results []models.ResultRecord) map[normalize.Key]*models.ResultRecord {
	index := make(map[normalize.Key]*models.ResultRecord, len(results))
	for i := range results {
		key, ok := normalize.NewKey(results[i].Time, results[i].Course, results[i].Horse)
		if !ok {
			continue
		}
		if _, exists := index[key]; exists {
			continue
		}
		index[key] = &results[i]
	}
	return index
}

// MatchTips left-joins tips against results. Every tip yields exactly one
// Match, in input order.
func MatchTips(tips []models.Tip, results []models.ResultRecord) []Match {
	index := IndexResults(results)

	matches := make([]Match, 0, len(tips))
	for i := range tips {
		m := Match{Tip: &tips[i]}
		m.Key, m.Keyed = normalize.TipKey(tips[i].Race, tips[i].Name)
		if m.Keyed {
			m.Result = index[m.Key]
		}
		matches = append(matches, m)
	}
	return matches
}
