package llm

import (
	"testing"
)

func TestExtractJSON_Plain(t *testing.T) {
	raw, err := ExtractJSON(`{"complexity": "simple"}`)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"complexity": "simple"}` {
		t.Errorf("unexpected extraction: %s", raw)
	}
}

func TestExtractJSON_MarkdownFences(t *testing.T) {
	text := "```json\n{\"approach\": \"orchestrated\"}\n```"
	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := DecodeJSON(string(raw), &out); err != nil {
		t.Fatal(err)
	}
	if out["approach"] != "orchestrated" {
		t.Errorf("expected approach field, got %v", out)
	}
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	text := `Sure! Here is the classification you asked for:

{"complexity": "complex", "confidence": 0.8}

Let me know if you need anything else.`

	var out struct {
		Complexity string  `json:"complexity"`
		Confidence float64 `json:"confidence"`
	}
	if err := DecodeJSON(text, &out); err != nil {
		t.Fatal(err)
	}
	if out.Complexity != "complex" || out.Confidence != 0.8 {
		t.Errorf("unexpected decode: %+v", out)
	}
}

func TestExtractJSON_NestedAndStrings(t *testing.T) {
	text := `{"plan": {"sources": ["a", "b"]}, "note": "braces } in { strings"} trailing {`
	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"plan": {"sources": ["a", "b"]}, "note": "braces } in { strings"}`
	if string(raw) != want {
		t.Errorf("expected first balanced object, got %s", raw)
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	if _, err := ExtractJSON("I could not produce a classification."); err == nil {
		t.Error("expected error for response without JSON")
	}
}

func TestExtractJSON_Unterminated(t *testing.T) {
	if _, err := ExtractJSON(`{"complexity": "simple"`); err == nil {
		t.Error("expected error for unterminated object")
	}
}
