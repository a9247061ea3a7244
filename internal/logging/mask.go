package logging

import (
	"net/url"
	"strings"
)

// MaskChar is the character used for masking.
const MaskChar = "*"

// sensitiveKeys are substrings of field names whose values are never logged.
var sensitiveKeys = []string{"token", "secret", "password", "authorization", "dsn"}

// IsSensitiveField reports whether a field name indicates sensitive data.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// MaskValue masks a sensitive value completely.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	return strings.Repeat(MaskChar, min(len(value), 8))
}

// MaskURL hides userinfo passwords and query strings in a URL or DSN.
// Values that do not parse are fully masked.
func MaskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return MaskValue(raw)
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	if u.RawQuery != "" {
		u.RawQuery = "xxxxx"
	}
	return u.String()
}

// MaskArgs masks sensitive values in key-value logging arguments.
func MaskArgs(args []any) []any {
	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok || !IsSensitiveField(key) {
			continue
		}
		if s, ok := result[i+1].(string); ok {
			result[i+1] = MaskValue(s)
		} else {
			result[i+1] = strings.Repeat(MaskChar, 8)
		}
	}

	return result
}
