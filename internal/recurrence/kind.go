// Package recurrence models how a task repeats: the daily, weekly and monthly
// variants, their validation, and the local-date boundaries at which each
// recurrence period rolls over.
package recurrence

import (
	"fmt"
	"strings"
)

// Kind names a recurrence cadence.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Kinds returns every cadence in a stable order.
func Kinds() []Kind {
	return []Kind{KindDaily, KindWeekly, KindMonthly}
}

// ParseKind accepts a cadence name in any letter case.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindDaily:
		return KindDaily, nil
	case KindWeekly:
		return KindWeekly, nil
	case KindMonthly:
		return KindMonthly, nil
	default:
		return "", fmt.Errorf("unknown recurrence kind %q", raw)
	}
}

func (k Kind) Valid() bool {
	return k == KindDaily || k == KindWeekly || k == KindMonthly
}

func (k Kind) String() string {
	return string(k)
}

// IsBoundary reports whether a period of this kind starts on d.
// Every date starts a daily period, Mondays start weekly ones and the first of
// the month starts monthly ones.
func (k Kind) IsBoundary(d Date) bool {
	switch k {
	case KindDaily:
		return true
	case KindWeekly:
		return d.Weekday() == weekAnchor
	case KindMonthly:
		return d.Day == 1
	default:
		return false
	}
}

// LatestBoundary returns the most recent boundary on or before d.
func (k Kind) LatestBoundary(d Date) Date {
	switch k {
	case KindWeekly:
		back := (int(d.Weekday()) - int(weekAnchor) + 7) % 7
		return d.AddDays(-back)
	case KindMonthly:
		return Date{Year: d.Year, Month: d.Month, Day: 1}
	default:
		return d
	}
}

// nextBoundary returns the first boundary strictly after d.
func (k Kind) nextBoundary(d Date) Date {
	switch k {
	case KindWeekly:
		ahead := (int(weekAnchor) - int(d.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return d.AddDays(ahead)
	case KindMonthly:
		return Date{Year: d.Year, Month: d.Month, Day: 1}.AddMonths(1)
	default:
		return d.AddDays(1)
	}
}

// Boundaries lists, in ascending order, every boundary of kind k that falls
// strictly after the watermark and on or before today. Without a watermark
// only the latest boundary on or before today is returned. At most limit dates
// are returned when limit is positive; the remainder is picked up by a later
// call once the watermark has moved.
func Boundaries(k Kind, watermark Date, hasWatermark bool, today Date, limit int) []Date {
	if !k.Valid() {
		return nil
	}

	next := k.LatestBoundary(today)
	if hasWatermark {
		next = k.nextBoundary(watermark)
	}

	var out []Date
	for !next.After(today) {
		out = append(out, next)
		if limit > 0 && len(out) == limit {
			break
		}
		next = k.nextBoundary(next)
	}
	return out
}
