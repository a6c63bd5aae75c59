package store

import "encoding/json"

// Record is the flat-row shape every table stores: an ID, the raw text
// that was embedded (chromem's document content), its dense vector, and
// every other scalar column as a string. Complex fields (string slices,
// nested objects) are JSON-encoded into one of those string columns by
// the caller before building a Record — contributing_shas,
// metadata_json, and active_signal_ids are the three columns the
// detector/profile/assessment layers round-trip this way.
type Record struct {
	ID     string
	Text   string
	Vector []float32
	Fields map[string]string
}

// EncodeStrings JSON-encodes a string slice for storage in a flat string
// column (e.g. contributing_shas, active_signal_ids).
func EncodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeStrings reverses EncodeStrings; a malformed or empty column
// decodes to nil rather than erroring, since a missing column is
// routine for older rows.
func DecodeStrings(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// EncodeJSON marshals an arbitrary value (e.g. a signal's metadata
// struct) into a flat string column such as metadata_json.
func EncodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodeJSON unmarshals a flat JSON string column into out.
func DecodeJSON(s string, out any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}
