package models

import (
	"strconv"
	"strings"
)

// PositionKind tags the variant held by a Position.
type PositionKind int

const (
	// PositionUnknown covers anything that is neither a rank nor a non-runner
	// (pulled up, fell, unseated, blank cells).
	PositionUnknown PositionKind = iota
	// PositionFinished is a numeric finishing rank.
	PositionFinished
	// PositionNotRun marks a non-runner or a tip with no matching result.
	PositionNotRun
)

const (
	// NonRunnerCode is the sentinel used for non-runners in results and settlement logs.
	NonRunnerCode = "NR"
	// UnknownCode is written for an unknown position with no raw text.
	UnknownCode = "?"
)

// Position is a finishing position parsed once from its raw string form.
type Position struct {
	Kind PositionKind
	Rank int
	Raw  string
}

// Finished returns a finished position with the given rank.
func Finished(rank int) Position {
	return Position{Kind: PositionFinished, Rank: rank, Raw: strconv.Itoa(rank)}
}

// NotRun returns the non-runner position.
func NotRun() Position {
	return Position{Kind: PositionNotRun, Raw: NonRunnerCode}
}

// ParsePosition converts a raw results cell into a Position.
func ParsePosition(raw string) Position {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, NonRunnerCode) {
		return Position{Kind: PositionNotRun, Raw: NonRunnerCode}
	}
	if trimmed == "" {
		return Position{Kind: PositionUnknown, Raw: trimmed}
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return Position{Kind: PositionUnknown, Raw: trimmed}
		}
	}
	rank, err := strconv.Atoi(trimmed)
	if err != nil || rank <= 0 {
		return Position{Kind: PositionUnknown, Raw: trimmed}
	}
	return Position{Kind: PositionFinished, Rank: rank, Raw: trimmed}
}

// IsWin reports whether the runner finished first.
func (p Position) IsWin() bool {
	return p.Kind == PositionFinished && p.Rank == 1
}

// IsNonRunner reports whether the runner took no part.
func (p Position) IsNonRunner() bool {
	return p.Kind == PositionNotRun
}

// IsFinished reports whether the position carries a numeric rank.
func (p Position) IsFinished() bool {
	return p.Kind == PositionFinished
}

// WithinPlaces reports whether the runner finished inside the first n places.
func (p Position) WithinPlaces(n int) bool {
	return p.Kind == PositionFinished && p.Rank <= n
}

// IsPlaced reports whether the runner finished 2nd to 4th, the placing
// range used by every ROI report.
func (p Position) IsPlaced() bool {
	return p.Kind == PositionFinished && p.Rank >= 2 && p.Rank <= 4
}

// String returns the canonical text form written to settlement logs.
func (p Position) String() string {
	switch p.Kind {
	case PositionFinished:
		return strconv.Itoa(p.Rank)
	case PositionNotRun:
		return NonRunnerCode
	default:
		if p.Raw == "" {
			return UnknownCode
		}
		return p.Raw
	}
}
