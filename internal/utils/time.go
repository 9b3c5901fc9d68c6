package utils

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("work date must be YYYY-MM-DD")

// Today returns the current local date as YYYY-MM-DD.
func Today() string {
	return time.Now().Format(DateLayout)
}

// ParseWorkDate validates a YYYY-MM-DD string and returns it normalized.
func ParseWorkDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}

// DateOrToday returns s when it is a valid date, today when s is empty.
func DateOrToday(s string) (string, error) {
	if s == "" {
		return Today(), nil
	}
	return ParseWorkDate(s)
}

// FormatTime renders the time-of-day column of the log table (HH:MM, local time).
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("15:04")
}
