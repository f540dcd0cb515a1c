package mapping

import (
	"strings"
	"time"
)

// TimeSource records which rule produced a parsed show time.
type TimeSource int

const (
	TimeSourceISO TimeSource = iota
	TimeSourceSecondary
	TimeSourceFallback
)

func (s TimeSource) String() string {
	switch s {
	case TimeSourceISO:
		return "iso8601"
	case TimeSourceSecondary:
		return "secondary"
	default:
		return "fallback_now"
	}
}

// SecondaryLayout is tried after every ISO-8601 layout fails.
const SecondaryLayout = "2006-01-02 15:04:05"

var zonedISOLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
}

var naiveISOLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseShowTime parses an Airtable date value. Precedence: ISO-8601 (a trailing
// "Z" means +00:00, naive values are UTC), then SecondaryLayout, then now.
// Empty input falls back to now as well. The result is always in UTC.
func ParseShowTime(raw string, now time.Time) (time.Time, TimeSource) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return now.UTC(), TimeSourceFallback
	}

	if t, ok := parseISO(s); ok {
		return t.UTC(), TimeSourceISO
	}

	if t, err := time.ParseInLocation(SecondaryLayout, s, time.UTC); err == nil {
		return t.UTC(), TimeSourceSecondary
	}

	return now.UTC(), TimeSourceFallback
}

// ParseStrict is ParseShowTime without the fallback; used to validate input.
func ParseStrict(raw string) (time.Time, bool) {
	t, src := ParseShowTime(raw, time.Time{})
	return t, src != TimeSourceFallback
}

func parseISO(s string) (time.Time, bool) {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}

	for _, layout := range zonedISOLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveISOLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatRemoteTime renders a time the way it is written to Airtable.
func FormatRemoteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
