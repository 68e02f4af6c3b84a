package domain

import (
	"fmt"
	"time"
)

// AbsentSentinel is the canonical rendering of an unknown value in human
// readable output.
const AbsentSentinel = "N/A"

// Date is a calendar date that may be unknown. The zero value is the
// unknown date: source exports routinely omit activity and expiration
// dates, and an absent date must stay distinguishable from any real one.
type Date struct {
	t     time.Time
	known bool
}

// NewDate builds a known date from its calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), known: true}
}

// DateOf truncates a timestamp to a known calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Known reports whether the date carries a value.
func (d Date) Known() bool { return d.known }

// Time returns the underlying timestamp (midnight UTC). Only meaningful
// when the date is known.
func (d Date) Time() time.Time { return d.t }

// Before reports whether d is strictly before other. An unknown date is
// before nothing and nothing is before an unknown date.
func (d Date) Before(other Date) bool {
	if !d.known || !other.known {
		return false
	}
	return d.t.Before(other.t)
}

// DaysUntil returns the number of whole days from d to other. Both dates
// must be known; callers gate on Known first.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t) / (24 * time.Hour))
}

// Month returns the calendar month the date falls in.
func (d Date) Month() YearMonth {
	return YearMonth{Year: d.t.Year(), Month: d.t.Month()}
}

// String renders ISO 8601, or the absent sentinel when unknown.
func (d Date) String() string {
	if !d.known {
		return AbsentSentinel
	}
	return d.t.Format(time.DateOnly)
}

// MarshalJSON emits the ISO date, or null when unknown.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.known {
		return []byte("null"), nil
	}
	return []byte(`"` + d.t.Format(time.DateOnly) + `"`), nil
}

// YearMonth identifies a calendar month, the grain of cohort grouping.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Add returns the month k steps later (k may be negative).
func (ym YearMonth) Add(k int) YearMonth {
	t := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, k, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// FirstDay returns the first calendar day of the month.
func (ym YearMonth) FirstDay() Date {
	return NewDate(ym.Year, ym.Month, 1)
}

// Offset returns the number of whole months from ym to other.
func (ym YearMonth) Offset(other YearMonth) int {
	return (other.Year-ym.Year)*12 + int(other.Month-ym.Month)
}

// String renders "2006-01".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MarshalText lets YearMonth serve as a JSON map key.
func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}
