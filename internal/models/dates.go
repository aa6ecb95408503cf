package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDeadline parses a day/month/year deadline such as "01/01/26" or
// "1/1/2026". Two-digit years are expanded to 2000+yy. RFC 3339 timestamps
// are accepted as well. The result is normalised to UTC.
func ParseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("deadline is empty")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	parts := strings.Split(value, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid deadline %q: expected dd/mm/yy", value)
	}

	day, err := parseDigits(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deadline day %q", parts[0])
	}
	month, err := parseDigits(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deadline month %q", parts[1])
	}
	yearText := strings.TrimSpace(parts[2])
	year, err := parseDigits(yearText)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deadline year %q", parts[2])
	}

	switch len(yearText) {
	case 1, 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, fmt.Errorf("invalid deadline year %q", parts[2])
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("invalid deadline %q", value)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 31/02 into March; reject instead
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("invalid deadline %q: no such date", value)
	}

	return t, nil
}

// parseDigits parses unsigned decimal text. Signs are rejected so "-5"
// cannot pass as a two character year.
func parseDigits(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("empty number")
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a number", text)
		}
	}
	return strconv.Atoi(text)
}

// ParseOptionalDeadline returns nil for an empty value
func ParseOptionalDeadline(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDeadline(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SameDeadline compares two optional deadlines
func SameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// FormatDeadline renders a deadline in the dd/mm/yyyy form used by clients
func FormatDeadline(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
