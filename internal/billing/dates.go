package billing

import "time"

// Calendar dates are represented as midnight UTC so that subtracting two of
// them always yields a whole number of 24h days.

func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns b - a in whole days.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// monthBounds returns the first and last calendar day of a month.
func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// LatestRetirement returns the most recent RETIRED transition whose calendar
// date, in loc, is on or before the calendar date of cutoff.
func (l MovementLog) LatestRetirement(cutoff time.Time, loc *time.Location) (MovementRecord, bool) {
	return l.latestRetirementOn(civilDate(cutoff, loc), loc)
}

func (l MovementLog) latestRetirementOn(cutoffDate time.Time, loc *time.Location) (MovementRecord, bool) {
	var latest MovementRecord
	found := false
	for _, m := range l {
		if m.ToStatus != StatusRetired {
			continue
		}
		if civilDate(m.OccurredAt, loc).After(cutoffDate) {
			continue
		}
		if !found || m.OccurredAt.After(latest.OccurredAt) {
			latest = m
			found = true
		}
	}
	return latest, found
}
