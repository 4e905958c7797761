package recurrence

import (
	"fmt"
	"strings"
)

// Field names reported in ValidationErrors.
const (
	FieldKind       = "kind"
	FieldTimeOfDay  = "time_of_day"
	FieldDayOfWeek  = "day_of_week"
	FieldDayOfMonth = "day_of_month"
)

// Candidate is unchecked recurrence input as it arrives from a form, an API
// payload or an import row.
type Candidate struct {
	Daily      bool
	Weekly     bool
	Monthly    bool
	TimeOfDay  string
	DayOfWeek  string
	DayOfMonth *int
}

// FieldError is one violated rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects every rule a Candidate violates.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields maps each offending field to its messages joined in rule order.
func (e ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if prev, ok := out[fe.Field]; ok {
			out[fe.Field] = prev + " " + fe.Message
			continue
		}
		out[fe.Field] = fe.Message
	}
	return out
}

// ForField returns the messages reported for one field.
func (e ValidationErrors) ForField(field string) []string {
	var out []string
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

const dayNames = "Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday"

// Validate checks c and returns the matching Spec. On failure the error is a
// ValidationErrors holding every violated rule, not only the first.
func Validate(c Candidate) (Spec, error) {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	selected := 0
	for _, flag := range []bool{c.Daily, c.Weekly, c.Monthly} {
		if flag {
			selected++
		}
	}
	switch {
	case selected == 0:
		add(FieldKind, "At least one of 'Daily', 'Weekly', or 'Monthly' must be selected.")
	case selected > 1:
		add(FieldKind, "Please select one and only one of 'Daily', 'Weekly', or 'Monthly'.")
	}

	var at TimeOfDay
	if strings.TrimSpace(c.TimeOfDay) == "" {
		add(FieldTimeOfDay, "This field may not be blank.")
	} else if parsed, err := ParseTimeOfDay(c.TimeOfDay); err != nil {
		add(FieldTimeOfDay, "Enter a valid 24-hour time (HH:MM).")
	} else {
		at = parsed
	}

	hasDay := strings.TrimSpace(c.DayOfWeek) != ""
	hasDate := c.DayOfMonth != nil

	weekday, weekdayOK := ParseWeekday(c.DayOfWeek)
	if c.Weekly {
		switch {
		case !hasDay:
			add(FieldDayOfWeek, "This field may not be blank.")
		case !weekdayOK:
			add(FieldDayOfWeek, "Invalid value. Choose from: %s.", dayNames)
		}
	}

	if c.Monthly {
		switch {
		case !hasDate:
			add(FieldDayOfMonth, "This field may not be blank.")
		case *c.DayOfMonth < 1 || *c.DayOfMonth > 31:
			add(FieldDayOfMonth, "Invalid value. Choose a day from 1 to 31.")
		}
	}

	if selected == 1 {
		kind := KindDaily
		switch {
		case c.Weekly:
			kind = KindWeekly
		case c.Monthly:
			kind = KindMonthly
		}
		if hasDay && kind != KindWeekly {
			add(FieldDayOfWeek, "Field not allowed for %s task.", kind)
		}
		if hasDate && kind != KindMonthly {
			add(FieldDayOfMonth, "Field not allowed for %s task.", kind)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	switch {
	case c.Weekly:
		return Weekly{Time: at, Day: weekday}, nil
	case c.Monthly:
		return Monthly{Time: at, Day: *c.DayOfMonth}, nil
	default:
		return Daily{Time: at}, nil
	}
}

// CandidateOf turns a Spec back into form input, e.g. to prefill an edit.
func CandidateOf(s Spec) Candidate {
	c := Candidate{TimeOfDay: s.At().String()}
	switch spec := s.(type) {
	case Daily:
		c.Daily = true
	case Weekly:
		c.Weekly = true
		c.DayOfWeek = spec.Day.String()
	case Monthly:
		c.Monthly = true
		day := spec.Day
		c.DayOfMonth = &day
	}
	return c
}
