package validate

import (
	"strings"
	"unicode"
)

// SanitizeName trims a name and drops control characters.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)

	var sb strings.Builder
	for _, r := range name {
		if !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// SanitizeNote normalizes line endings, drops control characters other
// than newline and tab, and trims surrounding space.
func SanitizeNote(note string) string {
	note = strings.ReplaceAll(note, "\r\n", "\n")
	note = strings.ReplaceAll(note, "\r", "\n")
	return strings.TrimSpace(StripControlChars(note))
}

// SanitizeTag trims a tag and drops control characters. Case and inner
// spacing are kept.
func SanitizeTag(tag string) string {
	return strings.TrimSpace(SanitizeName(tag))
}

// SanitizeTags cleans a comma-separated tag list, dropping empty and
// duplicate tags while keeping their order.
func SanitizeTags(csv string) string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range strings.Split(csv, ",") {
		t = SanitizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return strings.Join(out, ",")
}

// StripControlChars removes all control characters except newline and tab.
func StripControlChars(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
