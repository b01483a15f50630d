package track

import "strings"

// Matcher decides whether a live position and a scheduled flight refer to
// the same physical flight. Implementations must be pure functions of
// their inputs so results are reproducible.
//
// The two feeds use incompatible identifier namespaces (ICAO alphanumeric
// callsigns vs IATA airline+number codes), so implementations are expected
// to be approximate; the engine treats a nil match as a normal outcome.
type Matcher interface {
	// Match returns the schedule entry for the position, or nil
	Match(pos LivePosition, schedule []ScheduledFlight) *ScheduledFlight
	// Highlights reports whether a selected identity refers to the given
	// schedule entry, for flight-board highlighting
	Highlights(identity string, flight ScheduledFlight) bool
}

// TieredMatcher matches in fixed tiers, first hit wins:
//
//  1. exact equality between the callsign and an ICAO flight number
//  2. the longest digit run of the callsign contained in an IATA flight
//     number
//
// Tier 2 can produce false positives (two flights sharing a digit
// sequence); a stricter Matcher can replace it without touching the
// engine. Runs shorter than three digits are excluded from tier 2
// entirely, since one- and two-digit runs collide with most of a day's
// schedule.
type TieredMatcher struct{}

// minDigitRun is the shortest callsign digit run eligible for tier 2
const minDigitRun = 3

// NewTieredMatcher creates the default matcher
func NewTieredMatcher() *TieredMatcher {
	return &TieredMatcher{}
}

// Match implements Matcher
func (m *TieredMatcher) Match(pos LivePosition, schedule []ScheduledFlight) *ScheduledFlight {
	if pos.Callsign != "" {
		for i := range schedule {
			if schedule[i].ICAOFlightNumber != "" && schedule[i].ICAOFlightNumber == pos.Callsign {
				match := schedule[i]
				return &match
			}
		}
	}

	digits := longestDigitRun(pos.Callsign)
	if len(digits) >= minDigitRun {
		for i := range schedule {
			if schedule[i].IATAFlightNumber != "" && strings.Contains(schedule[i].IATAFlightNumber, digits) {
				match := schedule[i]
				return &match
			}
		}
	}

	return nil
}

// Highlights implements Matcher using the same tiering as Match: exact
// equality against either flight number, then digit-substring containment.
func (m *TieredMatcher) Highlights(identity string, flight ScheduledFlight) bool {
	if identity == "" {
		return false
	}
	if flight.IATAFlightNumber != "" && flight.IATAFlightNumber == identity {
		return true
	}
	if flight.ICAOFlightNumber != "" && flight.ICAOFlightNumber == identity {
		return true
	}
	digits := longestDigitRun(identity)
	return len(digits) >= minDigitRun && flight.IATAFlightNumber != "" &&
		strings.Contains(flight.IATAFlightNumber, digits)
}

// longestDigitRun returns the longest contiguous run of digits in s. Ties
// go to the earliest run.
func longestDigitRun(s string) string {
	best, current := "", ""
	for _, r := range s {
		if r >= '0' && r <= '9' {
			current += string(r)
			if len(current) > len(best) {
				best = current
			}
		} else {
			current = ""
		}
	}
	return best
}
