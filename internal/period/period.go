package period

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the layout of calendar dates in query strings.
	DateLayout = "2006-01-02"
	// MinYear is the first year billing data exists for.
	MinYear = 2020
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrOutOfRange    = errors.New("out of range")
)

var periodRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// New builds a Period, rejecting months outside 1..12.
func New(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month %d: %w", month, ErrOutOfRange)
	}
	if year < 1 {
		return Period{}, fmt.Errorf("year %d: %w", year, ErrOutOfRange)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Parse reads a "YYYY-MM" period.
func Parse(raw string) (Period, error) {
	m := periodRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Period{}, fmt.Errorf("period %q: %w, use YYYY-MM", raw, ErrInvalidFormat)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return New(year, month)
}

// FromQuery accepts either a "YYYY-MM" period or separate year and month values.
func FromQuery(rawPeriod, rawYear, rawMonth string) (Period, error) {
	if rawPeriod != "" {
		return Parse(rawPeriod)
	}
	if rawYear == "" || rawMonth == "" {
		return Period{}, fmt.Errorf("period or year and month are required: %w", ErrInvalidFormat)
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return Period{}, fmt.Errorf("year %q: %w", rawYear, ErrInvalidFormat)
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		return Period{}, fmt.Errorf("month %q: %w", rawMonth, ErrInvalidFormat)
	}
	return New(year, month)
}

// Of returns the period containing t in loc.
func Of(t time.Time, loc *time.Location) Period {
	local := t.In(loc)
	return Period{Year: local.Year(), Month: local.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// First returns the first calendar day of the period.
func (p Period) First() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns the last calendar day of the period.
func (p Period) Last() time.Time {
	return p.First().AddDate(0, 1, -1)
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	prev := p.First().AddDate(0, -1, 0)
	return Period{Year: prev.Year(), Month: prev.Month()}
}

// Validate checks that the period falls between MinYear and next year.
func (p Period) Validate(now time.Time) error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("month %d: %w", int(p.Month), ErrOutOfRange)
	}
	if p.Year < MinYear || p.Year > now.Year()+1 {
		return fmt.Errorf("year %d: %w", p.Year, ErrOutOfRange)
	}
	return nil
}

// Closable reports whether the period has fully elapsed in loc at now.
func (p Period) Closable(now time.Time, loc *time.Location) bool {
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return p.Last().Before(today)
}

// ParseDate reads a "YYYY-MM-DD" calendar date as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w, use YYYY-MM-DD", raw, ErrInvalidFormat)
	}
	return t, nil
}

// ParseMonthsBack reads a look-back window, defaulting to def and bounded by max.
func ParseMonthsBack(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("months_back %q: %w", raw, ErrInvalidFormat)
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("months_back must be between 1 and %d: %w", max, ErrOutOfRange)
	}
	return n, nil
}
