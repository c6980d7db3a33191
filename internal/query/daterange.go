package query

import (
	"fmt"
	"time"
)

// RangeKind is the date-range shorthand accepted at every boundary.
type RangeKind string

// Supported shorthands.
const (
	RangeLast7  RangeKind = "last7"
	RangeLast28 RangeKind = "last28"
	RangeLast90 RangeKind = "last90"
	RangeCustom RangeKind = "custom"
)

// DateLayout is the wire format for calendar dates at every boundary.
const DateLayout = "2006-01-02"

// ResolveDateRange turns a shorthand into a concrete range relative to now.
// lastN means [today-N days, today] in calendar-day arithmetic, never
// calendar months. custom requires both start and end as YYYY-MM-DD with
// start <= end.
func ResolveDateRange(kind RangeKind, start, end string, now time.Time) (DateRange, error) {
	today := truncateToDay(now)
	switch kind {
	case RangeLast7:
		return DateRange{Start: today.AddDate(0, 0, -7), End: today}, nil
	case RangeLast28:
		return DateRange{Start: today.AddDate(0, 0, -28), End: today}, nil
	case RangeLast90:
		return DateRange{Start: today.AddDate(0, 0, -90), End: today}, nil
	case RangeCustom:
		return parseCustomRange(start, end)
	default:
		return DateRange{}, fmt.Errorf("unknown date range type %q", kind)
	}
}

func parseCustomRange(start, end string) (DateRange, error) {
	if start == "" || end == "" {
		return DateRange{}, fmt.Errorf("custom range requires both start and end dates")
	}
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q (want YYYY-MM-DD)", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q (want YYYY-MM-DD)", end)
	}
	if s.After(e) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return DateRange{Start: s, End: e}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date in the wire format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
