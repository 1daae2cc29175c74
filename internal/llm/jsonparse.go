package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```$")

// stripCodeFences removes a surrounding ``` fence, with or without a language tag
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// parseJSONLoose tries the whole text, then the first {...} span, then the first [...] span
func parseJSONLoose(text string) (any, bool) {
	text = stripCodeFences(text)
	if text == "" {
		return nil, false
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, true
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start < 0 || end <= start {
			continue
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &v); err == nil {
			return v, true
		}
	}
	return nil, false
}

// coerceToMap wraps non-object JSON so callers always receive a map
func coerceToMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		return map[string]any{"data": t}
	case string:
		return map[string]any{"text": t}
	case nil:
		return map[string]any{}
	default:
		return map[string]any{"value": t}
	}
}
