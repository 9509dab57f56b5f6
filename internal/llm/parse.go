package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in completion")

// ParseJSONObject decodes the first JSON object in model output, tolerating
// markdown fences and prose around it.
func ParseJSONObject(raw string) (map[string]any, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	if start < 0 {
		return nil, errNoJSONObject
	}
	var out map[string]any
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
