package services

import (
	"fmt"
	"strings"
	"time"
)

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC)
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s must be a date (YYYY-MM-DD or RFC 3339)", field)
}

// parseOptionalDate parses raw when present
func parseOptionalDate(v *ValidationError, field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		v.AddErr(err)
		return nil
	}
	return &t
}
