package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

// Keys that never carry secrets. Anything else passed through MaskField is
// masked.
var safeKeys = map[string]struct{}{
	"service":   {},
	"env":       {},
	"message":   {},
	"severity":  {},
	"timestamp": {},
	"error":     {},
	"reason":    {},
	"component": {},
	"endpoint":  {},
	"from":      {},
	"to":        {},
	"method":    {},
	"asset":     {},
}

// IsSafeKey reports whether key is exempt from masking.
func IsSafeKey(key string) bool {
	_, ok := safeKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField returns a string attribute whose value is replaced by
// RedactedValue unless the key is safe or the value is blank.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsSafeKey(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskHeaders keeps header names and masks their values. Useful for logging
// exporter configuration that carries API keys.
func MaskHeaders(key string, headers map[string]string) slog.Attr {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	attrs := make([]any, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, MaskField(name, headers[name]))
	}
	return slog.Group(key, attrs...)
}
