package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used in file names and logs.
const DateLayout = "2006-01-02"

// Outcome classifies a settled bet.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomePlace     Outcome = "place"
	OutcomeLoss      Outcome = "loss"
	OutcomeNonRunner Outcome = "non_runner"
)

// StakeMode selects how stakes are assigned when settling.
type StakeMode string

const (
	// StakeModeAdvised settles each tip at its advised stake.
	StakeModeAdvised StakeMode = "advised"
	// StakeModeLevel settles every tip at one point.
	StakeModeLevel StakeMode = "level"
)

// settlementNamespace seeds deterministic settlement IDs so re-running a day
// produces identical rows.
var settlementNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("tipping-monster/settlement"))

// Settlement is a tip joined with its result and priced.
type Settlement struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Date       time.Time `db:"date" json:"date"`
	Time       string    `db:"race_time" json:"race_time"`
	Course     string    `db:"course" json:"course"`
	Horse      string    `db:"horse" json:"horse"`
	Price      float64   `db:"price" json:"price"`
	PriceValid bool      `db:"price_valid" json:"price_valid"`
	Confidence *float64  `db:"confidence" json:"confidence"`
	Position   Position  `db:"-" json:"-"`
	Stake      float64   `db:"stake" json:"stake"`
	Profit     float64   `db:"profit" json:"profit"`
	Outcome    Outcome   `db:"outcome" json:"outcome"`
	Mode       StakeMode `db:"mode" json:"mode"`
	Tags       []string  `db:"tags" json:"tags"`
	NAP        bool      `db:"nap" json:"nap"`
	Matched    bool      `db:"matched" json:"matched"`
}

// SettlementID derives the deterministic ID of a settled tip.
func SettlementID(date time.Time, raceTime, course, horse string, mode StakeMode) uuid.UUID {
	key := strings.Join([]string{date.Format(DateLayout), raceTime, course, horse, string(mode)}, "|")
	return uuid.NewSHA1(settlementNamespace, []byte(key))
}

// PositionText returns the finishing position as written to logs.
func (s *Settlement) PositionText() string {
	return s.Position.String()
}

// IsNonRunner reports whether the settlement is a non-runner.
func (s *Settlement) IsNonRunner() bool {
	return s.Position.IsNonRunner()
}

// Counts reports whether the row contributes to stake and profit sums.
// Non-runners and rows without a usable price contribute nothing.
func (s *Settlement) Counts() bool {
	return s.PriceValid && !s.Position.IsNonRunner()
}

// GetConfidence returns the confidence and whether it is usable for banding.
func (s *Settlement) GetConfidence() (float64, bool) {
	if s.Confidence == nil {
		return 0, false
	}
	return *s.Confidence, true
}

// GetROI returns the return on investment percentage.
func (s *Settlement) GetROI() float64 {
	if s.Stake == 0 {
		return 0
	}
	return s.Profit / s.Stake * 100
}

// HasTag reports whether the settlement carries the tag, ignoring case.
func (s *Settlement) HasTag(tag string) bool {
	for _, existing := range s.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// DailySummary is the one-line report printed after settling a day.
type DailySummary struct {
	Date       time.Time `json:"date"`
	Tips       int       `json:"tips"`
	Wins       int       `json:"wins"`
	Places     int       `json:"places"`
	NonRunners int       `json:"non_runners"`
	Unmatched  int       `json:"unmatched"`
	Stake      float64   `json:"stake"`
	Profit     float64   `json:"profit"`
}

// GetROI returns profit over stake as a percentage.
func (d DailySummary) GetROI() float64 {
	if d.Stake == 0 {
		return 0
	}
	return d.Profit / d.Stake * 100
}
