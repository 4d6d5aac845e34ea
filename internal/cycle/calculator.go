// Package cycle computes the boundary dates of recurring budget periods.
// All functions are pure: arithmetic is done in UTC calendar days, no I/O,
// no clock access. Bounds are inclusive on both ends, with Start at
// midnight UTC and End at the last instant of its day.
package cycle

import (
	"fmt"
	"time"

	apperrors "kakebo/internal/errors"
	"kakebo/internal/models"
)

// DefaultCustomCycleDays is the period length used for CUSTOM cycles when
// the budget does not specify one.
const DefaultCustomCycleDays = 30

// Config describes a budget's recurrence rule.
type Config struct {
	Type            models.CycleType
	CycleStartDay   *int
	CustomCycleDays *int
	AnchorDate      *time.Time
}

// ConfigFromBudget extracts the recurrence configuration from a budget.
func ConfigFromBudget(b *models.Budget) Config {
	return Config{
		Type:            b.CycleType,
		CycleStartDay:   b.CycleStartDay,
		CustomCycleDays: b.CustomCycleDays,
		AnchorDate:      b.AnchorDate,
	}
}

// Bounds is an inclusive [Start, End] cycle boundary pair.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// BoundsForDate returns the bounds of the cycle containing date under the
// given configuration. It is total over all supported cycle types and
// fails for unknown types rather than defaulting.
func BoundsForDate(date time.Time, cfg Config) (Bounds, error) {
	d := StartOfDay(date)

	switch cfg.Type {
	case models.CycleTypeWeekly:
		return weeklyBounds(d, cfg), nil
	case models.CycleTypeBiweekly:
		return fixedLengthBounds(d, cfg, 14), nil
	case models.CycleTypeMonthly:
		return monthlyBounds(d, cfg), nil
	case models.CycleTypeQuarterly:
		return quarterlyBounds(d), nil
	case models.CycleTypeYearly:
		return yearlyBounds(d), nil
	case models.CycleTypeCustom:
		length := DefaultCustomCycleDays
		if cfg.CustomCycleDays != nil && *cfg.CustomCycleDays > 0 {
			length = *cfg.CustomCycleDays
		}
		return fixedLengthBounds(d, cfg, length), nil
	default:
		return Bounds{}, apperrors.Wrap(apperrors.ErrUnsupportedCycleType,
			fmt.Errorf("unknown cycle type %q", cfg.Type))
	}
}

// NextBounds returns the bounds of the cycle immediately after one ending
// at currentEnd.
func NextBounds(currentEnd time.Time, cfg Config) (Bounds, error) {
	return BoundsForDate(StartOfDay(currentEnd).AddDate(0, 0, 1), cfg)
}

// PreviousBounds returns the bounds of the cycle immediately before one
// starting at currentStart.
func PreviousBounds(currentStart time.Time, cfg Config) (Bounds, error) {
	return BoundsForDate(StartOfDay(currentStart).AddDate(0, 0, -1), cfg)
}

// Contains reports whether date's calendar day falls within [start, end],
// inclusive on both ends.
func Contains(date, start, end time.Time) bool {
	d := StartOfDay(date)
	return !d.Before(StartOfDay(start)) && !d.After(StartOfDay(end))
}

// StartOfDay truncates a time to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of a time's calendar day in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

func weeklyBounds(d time.Time, cfg Config) Bounds {
	if cfg.AnchorDate != nil {
		anchor := StartOfDay(*cfg.AnchorDate)
		days := daysBetween(anchor, d)
		if days < 0 {
			// Dates before the anchor fall into the anchor's own first cycle.
			days = 0
		}
		start := anchor.AddDate(0, 0, (days/7)*7)
		return Bounds{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
	}

	// Fallback: cycle starts on the most recent occurrence of the
	// configured weekday (default Sunday).
	startDay := 0
	if cfg.CycleStartDay != nil {
		startDay = *cfg.CycleStartDay
	}
	back := (int(d.Weekday()) - startDay + 7) % 7
	start := d.AddDate(0, 0, -back)
	return Bounds{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
}

// fixedLengthBounds serves BIWEEKLY (length 14) and CUSTOM cycles: periods
// of a fixed day count indexed from the anchor, defaulting to the start of
// the query date's year. The index uses mathematical floor, so dates before
// the anchor land in negative-indexed cycles and contiguity is preserved.
func fixedLengthBounds(d time.Time, cfg Config, length int) Bounds {
	anchor := anchorOrYearStart(cfg, d)
	idx := floorDiv(daysBetween(anchor, d), length)
	start := anchor.AddDate(0, 0, idx*length)
	return Bounds{Start: start, End: EndOfDay(start.AddDate(0, 0, length-1))}
}

func monthlyBounds(d time.Time, cfg Config) Bounds {
	anchorDay := 1
	if cfg.AnchorDate != nil {
		anchorDay = StartOfDay(*cfg.AnchorDate).Day()
	} else if cfg.CycleStartDay != nil {
		anchorDay = *cfg.CycleStartDay
	}

	// Clamp the anchor day to the query month's length; an anchor of the
	// 31st starts on the last day of shorter months.
	startDay := minInt(anchorDay, daysInMonth(d.Year(), d.Month()))
	var start time.Time
	if d.Day() >= startDay {
		start = time.Date(d.Year(), d.Month(), startDay, 0, 0, 0, 0, time.UTC)
	} else {
		py, pm := addMonth(d.Year(), d.Month(), -1)
		start = time.Date(py, pm, minInt(anchorDay, daysInMonth(py, pm)), 0, 0, 0, 0, time.UTC)
	}

	// The end clamp is recomputed against the following month's length, not
	// the start month's, so Jan 31 is followed by Feb 28 and then Mar 31
	// rather than drifting to Mar 28.
	ny, nm := addMonth(start.Year(), start.Month(), 1)
	nextStart := time.Date(ny, nm, minInt(anchorDay, daysInMonth(ny, nm)), 0, 0, 0, 0, time.UTC)
	return Bounds{Start: start, End: EndOfDay(nextStart.AddDate(0, 0, -1))}
}

func quarterlyBounds(d time.Time) Bounds {
	quarter := (int(d.Month()) - 1) / 3
	start := time.Date(d.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
	return Bounds{Start: start, End: EndOfDay(start.AddDate(0, 3, -1))}
}

func yearlyBounds(d time.Time) Bounds {
	start := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return Bounds{Start: start, End: EndOfDay(time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC))}
}

func anchorOrYearStart(cfg Config, d time.Time) time.Time {
	if cfg.AnchorDate != nil {
		return StartOfDay(*cfg.AnchorDate)
	}
	return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of calendar days from a to b. Both inputs
// must be UTC midnights, so the difference is an exact multiple of 24h.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func addMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
