package model

import (
	"encoding/json"
	"strings"
)

// EncodeTables serializes a table list to the bracketed-JSON-string form
// the graph store persists it as (spec.md §4.3 point 3, P3).
func EncodeTables(tables []TableRef) string {
	if len(tables) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tables)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeTables parses the `tables` property back into a list regardless of
// which of the three legal encodings it arrives in: a JSON array of
// objects, a JSON array of bare strings, or an already-bracketed string
// that itself contains comma-separated bare names. All three round-trip to
// the same logical list (P3).
func DecodeTables(raw string) []TableRef {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil
	}

	var objs []TableRef
	if err := json.Unmarshal([]byte(raw), &objs); err == nil {
		return objs
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err == nil {
		out := make([]TableRef, 0, len(names))
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n != "" {
				out = append(out, TableRef{Name: n})
			}
		}
		return out
	}

	// Last resort: a bracketed, comma-separated bare-name string such as
	// "[users, orders]" that isn't valid JSON.
	trimmed := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	var out []TableRef
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.Trim(part, " \"'")
		if part != "" {
			out = append(out, TableRef{Name: part})
		}
	}
	return out
}

// ContainsTable reports whether the encoded `tables` property mentions the
// given table name, case-insensitively (used by C10's table-impact entry
// point, which matches on a raw CONTAINS-style check per spec.md §4.4).
func ContainsTable(raw string, tableName string) bool {
	return strings.Contains(strings.ToLower(raw), strings.ToLower(tableName))
}
