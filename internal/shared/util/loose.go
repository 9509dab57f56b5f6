package util

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LooseString accepts a JSON string, number, bool, null or array of those and
// keeps it as text. Arrays are joined with ", ".
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = LooseString(looseText(v))
	return nil
}

// String returns the trimmed text.
func (s LooseString) String() string {
	return strings.TrimSpace(string(s))
}

func looseText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := strings.TrimSpace(looseText(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
