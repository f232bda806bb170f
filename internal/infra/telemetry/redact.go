package telemetry

import (
	"net/url"
	"strings"
)

const redacted = "***"

var sensitiveKeys = []string{
	"token",
	"secret",
	"authorization",
	"api_key",
	"apikey",
	"password",
	"signature",
}

// ContainsSensitiveKey reports whether values under key should be masked.
// Hyphens match underscores, so "X-Api-Key" matches "api_key".
func ContainsSensitiveKey(key string) bool {
	lower := strings.ReplaceAll(strings.ToLower(key), "-", "_")
	for _, needle := range sensitiveKeys {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// RedactURL masks the userinfo password and sensitive query parameters of raw.
// Values that do not parse as URLs are returned unchanged.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	if parsed.User != nil {
		if _, ok := parsed.User.Password(); ok {
			parsed.User = url.UserPassword(parsed.User.Username(), redacted)
		}
	}
	if parsed.RawQuery != "" {
		query := parsed.Query()
		changed := false
		for key, values := range query {
			if !ContainsSensitiveKey(key) {
				continue
			}
			for i := range values {
				values[i] = redacted
			}
			changed = true
		}
		if changed {
			parsed.RawQuery = query.Encode()
		}
	}
	return parsed.String()
}
