package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DurationPlaceholder is returned when an elapsed time cannot be computed.
const DurationPlaceholder = "unknown"

// timestampLayouts are tried in order by ParseTimestamp. Layouts without a
// zone are interpreted as UTC, matching SQLite's CURRENT_TIMESTAMP.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses ISO-8601 and SQLite timestamp strings.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatDuration renders d with at most two units: "30s", "2m30s", "5m",
// "1h30m", "2h". Sub-second remainders are dropped and negative durations
// render as "0s".
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}

	switch {
	case total < 60:
		return fmt.Sprintf("%ds", total)
	case total < 3600:
		minutes, seconds := total/60, total%60
		if seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	default:
		hours, minutes := total/3600, (total%3600)/60
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
}

// FormatSpan formats the time elapsed between start and end.
func FormatSpan(start, end time.Time) string {
	return FormatDuration(end.Sub(start))
}

// FormatTimestamps formats the span between two timestamp strings. It never
// fails: unparsable input is logged and yields DurationPlaceholder.
func FormatTimestamps(start, end string) string {
	startAt, err := ParseTimestamp(start)
	if err != nil {
		log.Warn().Err(err).Msg("Cannot compute duration")
		return DurationPlaceholder
	}
	endAt, err := ParseTimestamp(end)
	if err != nil {
		log.Warn().Err(err).Msg("Cannot compute duration")
		return DurationPlaceholder
	}
	return FormatSpan(startAt, endAt)
}
