package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a 24-hour wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts HH:MM and HH:MM:SS. Seconds are dropped.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM", raw)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Spec is a task's recurrence. Exactly one of Daily, Weekly or Monthly.
type Spec interface {
	Kind() Kind
	At() TimeOfDay
	isSpec()
}

// Daily repeats every local calendar day.
type Daily struct {
	Time TimeOfDay
}

// Weekly repeats on one weekday.
type Weekly struct {
	Time TimeOfDay
	Day  time.Weekday
}

// Monthly repeats on one day of the month, 1 to 31.
type Monthly struct {
	Time TimeOfDay
	Day  int
}

func (Daily) Kind() Kind   { return KindDaily }
func (Weekly) Kind() Kind  { return KindWeekly }
func (Monthly) Kind() Kind { return KindMonthly }

func (s Daily) At() TimeOfDay   { return s.Time }
func (s Weekly) At() TimeOfDay  { return s.Time }
func (s Monthly) At() TimeOfDay { return s.Time }

func (Daily) isSpec()   {}
func (Weekly) isSpec()  {}
func (Monthly) isSpec() {}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts an English day name in any letter case.
func ParseWeekday(raw string) (time.Weekday, bool) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(raw))]
	return day, ok
}

// WeekdayOrder ranks weekdays Monday first, matching the weekly period.
func WeekdayOrder(day time.Weekday) int {
	return (int(day) - int(weekAnchor) + 7) % 7
}

// DueOn reports whether an occurrence of s falls on d. Monthly days past the
// end of a short month fall on its last day.
func DueOn(s Spec, d Date) bool {
	switch spec := s.(type) {
	case Daily:
		return true
	case Weekly:
		return d.Weekday() == spec.Day
	case Monthly:
		day := spec.Day
		if last := d.DaysInMonth(); day > last {
			day = last
		}
		return d.Day == day
	default:
		return false
	}
}

// Describe renders s for people, e.g. "every Monday at 07:30".
func Describe(s Spec) string {
	switch spec := s.(type) {
	case Daily:
		return fmt.Sprintf("every day at %s", spec.Time)
	case Weekly:
		return fmt.Sprintf("every %s at %s", spec.Day, spec.Time)
	case Monthly:
		return fmt.Sprintf("every month on day %d at %s", spec.Day, spec.Time)
	default:
		return "unknown schedule"
	}
}
