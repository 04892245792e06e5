package llm

import (
	"encoding/json"
	"strings"
)

// StripFences removes surrounding markdown code fences from a model response.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

// ParseObject parses a model response expected to contain a single JSON
// object, handling markdown code fences. Returns nil if it cannot be parsed.
func ParseObject(text string) map[string]any {
	text = StripFences(text)
	if text == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil
	}
	return result
}

// ParseObjectList parses a model response expected to contain a JSON array of
// objects. A direct parse is attempted first; when that fails (typically
// because the response was cut off by an output-length limit) the text is
// handed to RecoverObjects, which salvages the well-formed leading records.
// It never fails: the worst case is an empty slice.
func ParseObjectList(text string) []map[string]any {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil
	}

	var list []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &list); err == nil {
		return list
	}

	// Some models wrap the array in an envelope object.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err == nil {
		for _, key := range []string{"ideas", "items", "results"} {
			if raw, ok := envelope[key]; ok {
				if err := json.Unmarshal(raw, &list); err == nil {
					return list
				}
			}
		}
	}

	return RecoverObjects(cleaned)
}

// RecoverObjects scans raw text tracking brace depth and extracts every
// balanced {...} span that parses as an object with an identifying field
// (non-empty "title" or "id"). This recovers the maximal prefix of well-formed
// records from a response truncated mid-object instead of discarding all of
// it. String literals are honored so braces inside values don't skew the
// depth count.
func RecoverObjects(text string) []map[string]any {
	var objects []map[string]any

	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue // stray closer, ignore
			}
			depth--
			if depth == 0 && start >= 0 {
				if obj := parseCandidate(text[start : i+1]); obj != nil {
					objects = append(objects, obj)
				}
				start = -1
			}
		}
	}

	return objects
}

func parseCandidate(span string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil
	}
	if !hasIdentity(obj) {
		return nil
	}
	return obj
}

// hasIdentity reports whether a salvaged record carries enough identity to
// keep: a non-empty title or id.
func hasIdentity(obj map[string]any) bool {
	for _, key := range []string{"title", "id"} {
		switch v := obj[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return true
			}
		case float64:
			return true
		}
	}
	return false
}

// GetString returns a string field from a parsed response, or fallback.
func GetString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// GetInt returns an integer field from a parsed response, or fallback.
func GetInt(m map[string]any, key string, fallback int) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	}
	return fallback
}

// GetStringList returns a []string field from a parsed response.
func GetStringList(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
