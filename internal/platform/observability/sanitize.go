package observability

import "unicode"

const defaultMessageLimit = 240

// sanitizeString keeps log values single-line and bounded. Every control
// character is dropped, newlines included: a multi-line value in a JSON log
// stream is always an injection attempt or an accident, never useful.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	cleaned := make([]rune, 0, len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return string(cleaned)
}

// SanitizeEndpoint bounds API paths before they reach the logs. Commerce
// endpoints are short templated paths; anything longer is suspect.
func SanitizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return "/"
	}
	return sanitizeString(endpoint, 120)
}

// SanitizeMethod bounds HTTP method names.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 8)
}

// SanitizeMessage bounds server-supplied error messages so a hostile payload
// cannot flood the logs.
func SanitizeMessage(message string) string {
	return sanitizeString(message, defaultMessageLimit)
}
