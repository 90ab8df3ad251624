// Package nap selects the day's single best bet under a price ceiling.
package nap

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// DefaultCeiling is the highest decimal price a NAP may carry (20/1).
const DefaultCeiling = 21.0

// Candidate identifies a tip named in an audit event.
type Candidate struct {
	Name  string
	Price *float64
}

// Event records a top-confidence tip that was blocked from being NAP.
// Replacement is nil when no other tip qualified.
type Event struct {
	Date        time.Time
	Blocked     Candidate
	Replacement *Candidate
}

// Line renders the event as one audit log line.
func (e Event) Line() string {
	if e.Replacement == nil {
		return fmt.Sprintf("Blocked NAP: %s @ %s (no replacement)", e.Blocked.Name, FormatPrice(e.Blocked.Price))
	}
	return fmt.Sprintf("Blocked NAP: %s @ %s -> %s @ %s",
		e.Blocked.Name, FormatPrice(e.Blocked.Price),
		e.Replacement.Name, FormatPrice(e.Replacement.Price))
}

// FormatPrice renders a price the way audit lines show it: shortest form
// with at least one decimal place ("30.0", "5.5"). Missing prices render as N/A.
func FormatPrice(price *float64) string {
	if price == nil {
		return "N/A"
	}
	s := strconv.FormatFloat(*price, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Selection is the outcome of choosing a day's NAP.
type Selection struct {
	// Index of the chosen tip in the input slice, -1 when none qualified.
	Index int
	Tip   *models.Tip
	// Event is set when the top-confidence tip was blocked.
	Event *Event
}

// HasNAP reports whether a tip was chosen.
func (s Selection) HasNAP() bool {
	return s.Tip != nil
}

// Selector chooses the NAP from a day's tips.
type Selector struct {
	ceiling float64
	sink    EventSink
}

// NewSelector creates a selector. A ceiling of zero or less uses DefaultCeiling.
// A nil sink discards events.
func NewSelector(ceiling float64, sink EventSink) *Selector {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if sink == nil {
		sink = DiscardSink{}
	}
	return &Selector{ceiling: ceiling, sink: sink}
}

// Ceiling returns the configured price ceiling.
func (s *Selector) Ceiling() float64 {
	return s.ceiling
}

// Select chooses the NAP and records any override event to the sink.
func (s *Selector) Select(ctx context.Context, date time.Time, tips []models.Tip) (Selection, error) {
	sel := Choose(date, tips, s.ceiling)
	if sel.Event != nil {
		if err := s.sink.Record(ctx, *sel.Event); err != nil {
			return sel, fmt.Errorf("failed to record NAP override: %w", err)
		}
	}
	return sel, nil
}

// Choose picks the NAP without recording anything.
//
// Tips are ranked by confidence, highest first, with ties keeping input
// order. The first tip whose price is at or under the ceiling, or which is
// flagged as an override, becomes NAP. A tip without a usable price only
// qualifies through the override flag.
func Choose(date time.Time, tips []models.Tip, ceiling float64) Selection {
	if len(tips) == 0 {
		return Selection{Index: -1}
	}

	order := make([]int, len(tips))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rankConfidence(&tips[order[a]]) > rankConfidence(&tips[order[b]])
	})

	top := order[0]
	for _, idx := range order {
		if !qualifies(&tips[idx], ceiling) {
			continue
		}
		sel := Selection{Index: idx, Tip: &tips[idx]}
		if idx != top {
			replacement := candidate(&tips[idx])
			sel.Event = &Event{Date: date, Blocked: candidate(&tips[top]), Replacement: &replacement}
		}
		return sel
	}

	return Selection{
		Index: -1,
		Event: &Event{Date: date, Blocked: candidate(&tips[top])},
	}
}

// Apply marks the selected tip as NAP and clears the designation from every
// other tip, so at most one tip per day carries it.
func Apply(tips []models.Tip, sel Selection) {
	for i := range tips {
		isNAP := i == sel.Index
		tips[i].NAP = isNAP
		tips[i].Tags = withoutTag(tips[i].Tags, models.NAPTag)
		if isNAP {
			tips[i].Tags = append(tips[i].Tags, models.NAPTag)
		}
	}
}

func qualifies(tip *models.Tip, ceiling float64) bool {
	if tip.OverrideNAP {
		return true
	}
	price, ok := tip.GetPrice(false)
	return ok && price <= ceiling
}

func rankConfidence(tip *models.Tip) float64 {
	conf, ok := tip.GetConfidence()
	if !ok {
		return 0
	}
	return conf
}

func candidate(tip *models.Tip) Candidate {
	return Candidate{Name: tip.Name, Price: tip.PriceAtIssue}
}

func withoutTag(tags []string, tag string) []string {
	out := tags[:0:0]
	for _, t := range tags {
		if !strings.EqualFold(t, tag) {
			out = append(out, t)
		}
	}
	return out
}
