package httpx

import (
	"bytes"
	"encoding/json"
)

// EnvelopeKind identifies which of the known response envelopes a payload used.
type EnvelopeKind int

const (
	// EnvelopeRaw means no recognised envelope; the payload is used as-is.
	EnvelopeRaw EnvelopeKind = iota
	// EnvelopeWrapped is the {"success": ..., "data": ...} shape.
	EnvelopeWrapped
	// EnvelopeData is the bare {"data": ...} shape.
	EnvelopeData
	// EnvelopePaginated is the {"results": [...], "count": N} shape, which is
	// passed through unmodified so callers keep the count.
	EnvelopePaginated
)

// Normalize unwraps the heterogeneous envelopes the commerce service returns
// and yields the innermost usable value. Classification is priority ordered:
// {success,data} first, then {data}, then {results,count} (returned whole),
// otherwise the raw payload.
func Normalize(raw []byte) ([]byte, EnvelopeKind) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, EnvelopeRaw
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return trimmed, EnvelopeRaw
	}

	data, hasData := fields["data"]
	if _, hasSuccess := fields["success"]; hasSuccess && hasData {
		return data, EnvelopeWrapped
	}
	if hasData {
		return data, EnvelopeData
	}
	if _, hasResults := fields["results"]; hasResults {
		if _, hasCount := fields["count"]; hasCount {
			return trimmed, EnvelopePaginated
		}
	}
	return trimmed, EnvelopeRaw
}

// DeclaredFailure reports whether the payload carries an explicit
// "success": false flag. Some endpoints signal errors in-band on a 2xx
// status; such bodies must not be treated as successful.
func DeclaredFailure(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return false
	}
	flag, ok := fields["success"]
	if !ok {
		return false
	}
	var success bool
	if err := json.Unmarshal(flag, &success); err != nil {
		return false
	}
	return !success
}
