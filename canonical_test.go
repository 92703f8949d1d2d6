package contracts

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCanonicalizeSortsKeysAtEveryDepth(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "nested objects",
			in: Document{
				"b": json.Number("1"),
				"a": map[string]any{"z": true, "m": nil},
			},
			want: `{"a":{"m":null,"z":true},"b":1}`,
		},
		{
			name: "arrays keep order",
			in: Document{
				"list": []any{json.Number("3"), map[string]any{"y": "2", "x": "1"}, json.Number("1")},
			},
			want: `{"list":[3,{"x":"1","y":"2"},1]}`,
		},
		{
			name: "numbers keep their text",
			in:   Document{"a": json.Number("1.50"), "b": json.Number("1e3")},
			want: `{"a":1.50,"b":1e3}`,
		},
		{
			name: "no html escaping",
			in:   Document{"route": "/a?b=1&c=<d>"},
			want: `{"route":"/a?b=1&c=<d>"}`,
		},
		{
			name: "empty document",
			in:   Document{},
			want: `{}`,
		},
		{
			name: "typed values",
			in:   Behavior{Fixed: true},
			want: `{"collapsible":false,"fixed":true,"scrollable":false}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.in)
			if err != nil {
				t.Fatalf("canonicalize: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCanonicalizeIgnoresInsertionOrder(t *testing.T) {
	first, err := ParseDocument([]byte(`{"layout":{"regions":{"main":{},"header":{}}},"tokens":{"spacing":{"md":{"unit":"px","value":16}}}}`))
	if err != nil {
		t.Fatalf("parse first: %v", err)
	}
	second, err := ParseDocument([]byte("tokens:\n  spacing:\n    md:\n      value: 16\n      unit: px\nlayout:\n  regions:\n    header: {}\n    main: {}\n"))
	if err != nil {
		t.Fatalf("parse second: %v", err)
	}

	a, err := Canonicalize(first)
	if err != nil {
		t.Fatalf("canonicalize first: %v", err)
	}
	b, err := Canonicalize(second)
	if err != nil {
		t.Fatalf("canonicalize second: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical output:\n%s\n%s", a, b)
	}
}

func TestCanonicalizeRejectsUnsupportedValues(t *testing.T) {
	_, err := Canonicalize(Document{"ch": make(chan int)})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}
