// Package normalize canonicalizes race, course and horse identifiers so tips
// and results from different sources can be joined.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)
	timePattern   = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})\s*([aApP]\.?[mM]\.?)?$`)
)

// Key is the canonical (time, course, horse) triple used to join tips to results.
type Key struct {
	Time   string
	Course string
	Horse  string
}

func (k Key) String() string {
	return k.Time + "|" + k.Course + "|" + k.Horse
}

// Course lowercases and trims a course name and strips country codes and the
// all-weather marker, e.g. "Dundalk (IRE) (AW)" becomes "dundalk".
func Course(raw string) string {
	return clean(parenthetical.ReplaceAllString(raw, " "))
}

// Horse lowercases and trims a horse name and strips origin codes such as "(IRE)".
func Horse(raw string) string {
	return clean(parenthetical.ReplaceAllString(raw, " "))
}

// Time converts a race time to 24-hour "HH:MM". Both "13:30" and "1:30pm"
// give "13:30". Times without a meridiem whose hour is written without a
// leading zero and falls from 1 to 10 are taken as afternoon racing, so the
// results file's "1:30" also gives "13:30" while "09:30" stays "09:30".
// Unparsable input is returned unchanged.
func Time(raw string) string {
	trimmed := strings.TrimSpace(raw)
	m := timePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return raw
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return raw
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return raw
	}

	meridiem := strings.ToLower(strings.ReplaceAll(m[3], ".", ""))
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return raw
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return raw
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return raw
		}
		if hour >= 1 && hour <= 10 && !strings.HasPrefix(m[1], "0") {
			hour += 12
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// SplitRace splits a tip's "HH:MM Course" race string into its time and course.
func SplitRace(race string) (string, string) {
	fields := strings.Fields(race)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// NewKey builds the canonical key from raw fields. ok is false when the course
// or horse is empty after normalization; such a key must never match.
func NewKey(rawTime, rawCourse, rawHorse string) (Key, bool) {
	key := Key{
		Time:   Time(rawTime),
		Course: Course(rawCourse),
		Horse:  Horse(rawHorse),
	}
	if key.Course == "" || key.Horse == "" {
		return key, false
	}
	return key, true
}

// TipKey builds the canonical key for a tip's race string and horse name.
func TipKey(race, horse string) (Key, bool) {
	raceTime, course := SplitRace(race)
	return NewKey(raceTime, course, horse)
}

func clean(s string) string {
	s = strings.ToLower(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	return strings.Join(strings.Fields(s), " ")
}
