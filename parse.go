package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseDocument decodes an object from JSON, JSON with comments and trailing
// commas, or YAML. Numbers keep their textual form. Anything that is not a
// single top-level object fails with ErrMalformedInput.
func ParseDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(trimmed) == 0 {
		return nil, malformed(errors.New("input is empty"))
	}

	var (
		value any
		err   error
	)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		value, err = decodeJSON(jsonc.ToJSON(trimmed))
	} else {
		value, err = decodeYAML(trimmed)
	}
	if err != nil {
		return nil, malformed(err)
	}

	doc, ok := value.(map[string]any)
	if !ok {
		return nil, malformed(fmt.Errorf("top-level value is %s, want object", typeName(value)))
	}
	return doc, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse json: unexpected data after top-level value")
	}
	return value, nil
}

func decodeYAML(data []byte) (any, error) {
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	generic, err := toGeneric(value)
	if err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return generic, nil
}
