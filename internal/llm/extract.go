package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first balanced JSON object out of free-form model
// output. Markdown code fences are stripped first; text before and after
// the object is ignored. Models routinely wrap JSON in prose, so call sites
// must treat the object's fields as optional and default anything missing.
func ExtractJSON(text string) ([]byte, error) {
	text = stripFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return nil, fmt.Errorf("unbalanced or invalid JSON object")
				}
				return []byte(candidate), nil
			}
		}
	}
	return nil, fmt.Errorf("unterminated JSON object")
}

// DecodeJSON extracts and unmarshals the first JSON object into v
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	return nil
}

// stripFences removes markdown code fences (``` and ```json) around output
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		// drop the language tag line ("json", "JSON", ...)
		first := strings.TrimSpace(text[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
