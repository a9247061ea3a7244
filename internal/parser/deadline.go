package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// relativeRegex matches relative time expressions like "+5m", "+1h", "+2d".
var relativeRegex = regexp.MustCompile(`^\+(\d+)([smhdw])$`)

// ParseReminderTime parses when a reminder should fire. Supported forms:
//   - "+5m", "+1h", "+2d" (relative)
//   - "tomorrow 9am", "friday 5pm" (natural language)
//   - "2024-01-15 14:00" (ISO)
//
// A time earlier today rolls over to tomorrow. Any other past time is an error.
func ParseReminderTime(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, NewReminderTimeError(input, "reminder time is required")
	}

	if match := relativeRegex.FindStringSubmatch(input); match != nil {
		d, err := relativeDuration(match[1], match[2])
		if err != nil {
			return time.Time{}, NewReminderTimeError(input, err.Error())
		}
		return now.Add(d), nil
	}

	var t time.Time
	for _, layout := range isoDateLayouts {
		if parsed, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			t = parsed
			break
		}
	}

	if t.IsZero() {
		cfg := &dateparser.Configuration{
			CurrentTime: now,
		}
		result, err := dateparser.Parse(cfg, input)
		if err != nil {
			return time.Time{}, NewReminderTimeError(input, "could not parse time")
		}
		t = result.Time
	}

	if t.Before(now) {
		if isSameDay(t, now) {
			return t.AddDate(0, 0, 1), nil
		}
		return time.Time{}, NewReminderTimeError(input, "reminder time must be in the future")
	}

	return t, nil
}

func relativeDuration(numStr, unit string) (time.Duration, error) {
	num, _ := strconv.Atoi(numStr)
	if num <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}

	switch unit {
	case "s":
		return time.Duration(num) * time.Second, nil
	case "m":
		return time.Duration(num) * time.Minute, nil
	case "h":
		return time.Duration(num) * time.Hour, nil
	case "d":
		return time.Duration(num) * 24 * time.Hour, nil
	case "w":
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid time unit: %s", unit)
}

// isSameDay checks if two times are on the same day.
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// FormatReminderTime formats a reminder time for display.
func FormatReminderTime(t, now time.Time) string {
	t = t.In(now.Location())
	diff := t.Sub(now)

	var datePart string
	switch {
	case isSameDay(t, now):
		datePart = "Today"
	case isSameDay(t, now.AddDate(0, 0, 1)):
		datePart = "Tomorrow"
	case isSameDay(t, now.AddDate(0, 0, -1)):
		datePart = "Yesterday"
	case diff > 0 && diff < 7*24*time.Hour:
		datePart = t.Format("Monday")
	default:
		datePart = t.Format("Mon, Jan 2")
	}

	return fmt.Sprintf("%s at %s", datePart, t.Format("3:04 PM"))
}

// FormatAgo renders how long ago t was, e.g. "just now", "5m ago", "2h ago".
func FormatAgo(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return "just now"
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	return t.In(now.Location()).Format("Jan 2")
}
