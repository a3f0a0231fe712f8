package metadata

import (
	"bytes"
	"encoding/json"
	"strings"
)

// cleanText drops NUL bytes and invalid UTF-8, neither of which Postgres
// accepts in text or jsonb columns.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// cleanRaw rewrites every string in a JSON document through cleanText.
// Documents that do not decode are dropped.
func cleanRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	out, err := json.Marshal(cleanValue(v))
	if err != nil {
		return nil
	}
	return out
}

func cleanValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case []interface{}:
		for i := range t {
			t[i] = cleanValue(t[i])
		}
		return t
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[cleanText(k)] = cleanValue(val)
		}
		return out
	default:
		return v
	}
}
