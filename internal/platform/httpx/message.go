package httpx

import (
	"encoding/json"
	"strings"
)

// GenericFailureMessage is surfaced when nothing usable can be extracted from
// an error payload.
const GenericFailureMessage = "Something went wrong. Please try again."

// topLevelMessageKeys are probed in order before any per-field key.
var topLevelMessageKeys = []string{"detail", "message", "error"}

// fieldMessageKeys are the validation-error keys the commerce service is known
// to emit, probed in order after non_field_errors.
var fieldMessageKeys = []string{
	"email",
	"phone",
	"password",
	"name",
	"address",
	"quantity",
	"variant_id",
	"cart_id",
	"payment_method",
}

// ErrorMessage digs a human-readable message out of an error payload. The
// payload may be a plain string, an object keyed by detail/message/error, a
// Django-style non_field_errors array, or a per-field validation map. When
// nothing matches, fallback (or GenericFailureMessage) is returned.
func ErrorMessage(raw []byte, fallback string) string {
	if strings.TrimSpace(fallback) == "" {
		fallback = GenericFailureMessage
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return fallback
	}

	var plain string
	if err := json.Unmarshal([]byte(trimmed), &plain); err == nil {
		if plain = strings.TrimSpace(plain); plain != "" {
			return plain
		}
		return fallback
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return fallback
	}

	for _, key := range topLevelMessageKeys {
		if msg := stringValue(fields[key]); msg != "" {
			return msg
		}
	}
	if msg := firstElement(fields["non_field_errors"]); msg != "" {
		return msg
	}
	for _, key := range fieldMessageKeys {
		if msg := firstElement(fields[key]); msg != "" {
			return msg
		}
		if msg := stringValue(fields[key]); msg != "" {
			return msg
		}
	}
	return fallback
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstElement(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return ""
	}
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
