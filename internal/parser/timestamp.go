// Package parser turns human input into dates, amounts and periods.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// TimestampResult holds the parsed timestamp and any error.
type TimestampResult struct {
	Time  time.Time
	Error error
}

// isoDateLayouts are tried before natural language so dates like
// 2024-01-01 never depend on locale detection.
var isoDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// periodRegex matches period expressions like "this week", "last month".
var periodRegex = regexp.MustCompile(`(?i)^(this|current|last|previous)\s+(day|week|month|year)$`)

// ParseTimestamp parses a natural language timestamp relative to now.
func ParseTimestamp(input string) TimestampResult {
	return ParseTimestampAt(input, time.Now())
}

// ParseTimestampAt parses a natural language timestamp relative to now.
// Empty input and "now" return now.
func ParseTimestampAt(input string, now time.Time) TimestampResult {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "now") {
		return TimestampResult{Time: now}
	}

	for _, layout := range isoDateLayouts {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			return TimestampResult{Time: t}
		}
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return TimestampResult{Time: t}
	}

	if match := periodRegex.FindStringSubmatch(input); match != nil {
		r, _ := GetPeriodRange(strings.ToLower(match[1])+" "+strings.ToLower(match[2]), now)
		return TimestampResult{Time: r.Start}
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}

	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return TimestampResult{Error: NewTimestampError(input)}
	}

	return TimestampResult{Time: result.Time}
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// GetPeriodRange returns the range named by period, relative to now.
// It reports false for unknown periods.
func GetPeriodRange(period string, now time.Time) (TimeRange, bool) {
	period = strings.ToLower(strings.TrimSpace(period))
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	last := strings.HasPrefix(period, "last") || strings.HasPrefix(period, "previous")

	var start, end time.Time

	switch {
	case period == "today" || period == "this day" || period == "current day":
		start, end = day, day.AddDate(0, 0, 1)

	case period == "yesterday" || period == "last day" || period == "previous day":
		start, end = day.AddDate(0, 0, -1), day

	case strings.HasSuffix(period, "week"):
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = day.AddDate(0, 0, -weekday+1)
		if last {
			start = start.AddDate(0, 0, -7)
		}
		end = start.AddDate(0, 0, 7)

	case strings.HasSuffix(period, "month"):
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		if last {
			start = start.AddDate(0, -1, 0)
		}
		end = start.AddDate(0, 1, 0)

	case strings.HasSuffix(period, "year"):
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		if last {
			start = start.AddDate(-1, 0, 0)
		}
		end = start.AddDate(1, 0, 0)

	default:
		return TimeRange{}, false
	}

	return TimeRange{Start: start, End: end}, true
}
