package types

import (
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
)

const (
	PeriodLayout = "2006-01"
	DateLayout   = "2006-01-02"
)

// ParsePeriod parses a billing period in YYYY-MM form
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHint("Period must be in YYYY-MM format").
			WithField("period").
			Mark(ierr.ErrValidation)
	}
	return t, nil
}

// ParseDate parses a calendar date in YYYY-MM-DD form as midnight UTC
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("%s must be in YYYY-MM-DD format", field).
			WithField(field).
			Mark(ierr.ErrValidation)
	}
	return t, nil
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsPastDue reports whether the due date lies strictly before the calendar day of now.
// An invoice due today is not overdue yet.
func IsPastDue(dueDate *time.Time, now time.Time) bool {
	if dueDate == nil {
		return false
	}
	return StartOfDay(*dueDate).Before(StartOfDay(now))
}
