package models

import "strings"

// ResultRecord is one runner's line from a day's official results file.
type ResultRecord struct {
	Time      string   `json:"time"`
	Course    string   `json:"course"`
	Horse     string   `json:"horse"`
	Position  Position `json:"-"`
	Runners   *int     `json:"runners"`
	RaceName  string   `json:"race_name"`
	RaceType  string   `json:"race_type"`
	SourceRow int      `json:"-"`
}

// IsHandicap reports whether the race name marks a handicap.
func (r *ResultRecord) IsHandicap() bool {
	return strings.Contains(strings.ToLower(r.RaceName), "hcp")
}

// GetRunners returns the field size, or 0 when it was missing.
func (r *ResultRecord) GetRunners() int {
	if r.Runners == nil {
		return 0
	}
	return *r.Runners
}
