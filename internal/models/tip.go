package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NAPTag is the tag carried by the day's NAP selection.
const NAPTag = "NAP"

// Tip represents a single issued prediction as written by the dispatcher.
type Tip struct {
	Race           string         `json:"race"`
	Name           string         `json:"name"`
	Confidence     *float64       `json:"confidence,omitempty"`
	PriceAtIssue   *float64       `json:"bf_sp,omitempty"`
	RealisticPrice *float64       `json:"realistic_odds,omitempty"`
	Stake          *float64       `json:"stake,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	OverrideNAP    bool           `json:"override_nap,omitempty"`
	NAP            bool           `json:"nap,omitempty"`
	Extras         map[string]any `json:"-"`
}

var knownTipFields = map[string]bool{
	"race": true, "name": true, "confidence": true, "bf_sp": true, "odds": true,
	"realistic_odds": true, "stake": true, "tags": true, "override_nap": true, "nap": true,
}

// UnmarshalJSON decodes a tip leniently. Known fields are typed; anything
// else is kept in Extras. Non-numeric numbers degrade to nil instead of
// failing the record.
func (t *Tip) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("tip record is null")
	}

	*t = Tip{}
	t.Race = stringField(raw["race"])
	t.Name = stringField(raw["name"])
	t.Confidence = numberField(raw["confidence"])
	t.PriceAtIssue = numberField(raw["bf_sp"])
	if t.PriceAtIssue == nil || *t.PriceAtIssue == 0 {
		// bf_sp missing or zero falls back to the quoted odds
		if odds := numberField(raw["odds"]); odds != nil {
			t.PriceAtIssue = odds
		}
	}
	t.RealisticPrice = numberField(raw["realistic_odds"])
	t.Stake = numberField(raw["stake"])
	t.Tags = tagsField(raw["tags"])
	t.OverrideNAP = boolField(raw["override_nap"])
	t.NAP = boolField(raw["nap"])

	for key, value := range raw {
		if knownTipFields[key] {
			continue
		}
		if t.Extras == nil {
			t.Extras = make(map[string]any)
		}
		t.Extras[key] = value
	}
	return nil
}

// MarshalJSON writes the typed fields merged over Extras.
func (t Tip) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extras)+8)
	for key, value := range t.Extras {
		out[key] = value
	}
	out["race"] = t.Race
	out["name"] = t.Name
	if t.Confidence != nil {
		out["confidence"] = *t.Confidence
	}
	if t.PriceAtIssue != nil {
		out["bf_sp"] = *t.PriceAtIssue
	}
	if t.RealisticPrice != nil {
		out["realistic_odds"] = *t.RealisticPrice
	}
	if t.Stake != nil {
		out["stake"] = *t.Stake
	}
	if len(t.Tags) > 0 {
		out["tags"] = t.Tags
	}
	if t.OverrideNAP {
		out["override_nap"] = true
	}
	if t.NAP {
		out["nap"] = true
	}
	return json.Marshal(out)
}

// GetConfidence returns the confidence and whether it is usable.
func (t *Tip) GetConfidence() (float64, bool) {
	if t.Confidence == nil || math.IsNaN(*t.Confidence) || math.IsInf(*t.Confidence, 0) {
		return 0, false
	}
	return *t.Confidence, true
}

// GetPrice returns the price used for staking decisions. When preferRealistic
// is set the realistic price wins over the price at issue if present.
func (t *Tip) GetPrice(preferRealistic bool) (float64, bool) {
	if preferRealistic && validPrice(t.RealisticPrice) {
		return *t.RealisticPrice, true
	}
	if validPrice(t.PriceAtIssue) {
		return *t.PriceAtIssue, true
	}
	return 0, false
}

// GetStake returns the assigned stake, or fallback when none was assigned.
func (t *Tip) GetStake(fallback float64) float64 {
	if t.Stake == nil || math.IsNaN(*t.Stake) || *t.Stake < 0 {
		return fallback
	}
	return *t.Stake
}

// MeetsThreshold checks if the confidence meets the given threshold.
func (t *Tip) MeetsThreshold(threshold float64) bool {
	conf, ok := t.GetConfidence()
	return ok && conf >= threshold
}

// HasTag reports whether the tip carries the tag, ignoring case.
func (t *Tip) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// CompositeID identifies a tip within a day.
func (t *Tip) CompositeID() string {
	return t.Race + "_" + t.Name
}

func validPrice(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0) && *p > 1.0
}

func stringField(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func numberField(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func boolField(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)
		return b
	case float64:
		return val != 0
	default:
		return false
	}
}

func tagsField(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		tags := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}
