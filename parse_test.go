package contracts

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDocumentFormats(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{name: "json", input: `{"a": {"b": 1.50}, "c": [1, "x"]}`},
		{name: "jsonc", input: "{\n  // comment\n  \"a\": {\"b\": 1.50,},\n  /* block */ \"c\": [1, \"x\",],\n}"},
		{name: "yaml", input: "a:\n  b: 1.50\nc:\n  - 1\n  - x\n"},
		{name: "bom", input: "\xEF\xBB\xBF{\"a\": {\"b\": 1.50}, \"c\": [1, \"x\"]}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tc.input))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			a, ok := doc["a"].(map[string]any)
			if !ok {
				t.Fatalf("expected object a, got %T", doc["a"])
			}
			if _, ok := a["b"].(json.Number); !ok {
				t.Fatalf("expected json.Number, got %T", a["b"])
			}
			c, ok := doc["c"].([]any)
			if !ok || len(c) != 2 || c[1] != "x" {
				t.Fatalf("unexpected array %v", doc["c"])
			}
		})
	}
}

func TestParseDocumentKeepsNumberText(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"n": 1.50}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc["n"] != json.Number("1.50") {
		t.Fatalf("expected 1.50, got %v", doc["n"])
	}
}

func TestParseDocumentMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":         "   ",
		"array":         `[1, 2]`,
		"scalar yaml":   "just text",
		"broken json":   `{"a": }`,
		"trailing data": `{"a": 1} {"b": 2}`,
		"broken yaml":   "a: [1, 2",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument([]byte(input))
			if !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("expected malformed input, got %v", err)
			}
			var contractErr *ContractError
			if !errors.As(err, &contractErr) || contractErr.Kind != KindMalformedInput {
				t.Fatalf("expected ContractError, got %T", err)
			}
		})
	}
}
