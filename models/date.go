package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and key format of an entry date.
const DateLayout = "2006-01-02"

var dateInputLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeDate converts t to UTC and truncates it to midnight.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts a bare calendar date or a timestamp and returns the normalized day.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", raw)
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return NormalizeDate(t).Format(DateLayout)
}
