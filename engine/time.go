package engine

import (
	"time"
)

// =============================================================================
// TIME POINT - Day-granular dates (attribution data is dated, not timed)
// =============================================================================

type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return TimePoint{}, err
	}
	return TimePoint{Time: t}, nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format("2006-01-02")
}

// =============================================================================
// PERIOD - The reporting window a run covers
// =============================================================================

// Period is the inclusive [Start, End] date range of one reporting run.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// DatasetPeriod derives the period spanned by a dataset: the min and max
// date across attribution and burn records. Zero period if empty.
func DatasetPeriod(d *Dataset) Period {
	var p Period
	observe := func(t TimePoint) {
		if t.IsZero() {
			return
		}
		if p.Start.IsZero() || t.Before(p.Start) {
			p.Start = t
		}
		if p.End.IsZero() || t.After(p.End) {
			p.End = t
		}
	}
	for _, r := range d.Attributions {
		observe(r.Date)
	}
	for _, b := range d.Burns {
		observe(b.Date)
	}
	return p
}
