package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Document is a decoded JSON object. Contract documents are duck-typed at this
// level; typed views are produced on demand by the decoders.
type Document = map[string]any

// Canonicalize returns the key-sorted JSON text of doc. Objects have their
// keys sorted ordinally at every depth, arrays keep element order, and every
// other value is emitted unchanged. Two documents with the same content always
// produce byte-identical output regardless of key insertion order.
func Canonicalize(doc any) (string, error) {
	out, err := CanonicalBytes(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CanonicalBytes is Canonicalize without the final string conversion.
func CanonicalBytes(doc any) ([]byte, error) {
	generic, err := toGeneric(doc)
	if err != nil {
		return nil, malformed(fmt.Errorf("canonicalize: %w", err))
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, malformed(fmt.Errorf("canonicalize: %w", err))
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, value any) error {
	switch typed := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(typed))
	case string:
		return writeString(buf, typed)
	case json.Number:
		buf.WriteString(typed.String())
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, typed[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, elem := range typed {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported value of type %T", value)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// toGeneric reduces any JSON-encodable value to the generic tree produced by
// encoding/json (maps, slices, strings, bools, nil and json.Number), keeping
// the textual form of numbers intact.
func toGeneric(value any) (any, error) {
	if isGeneric(value) {
		return value, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// isGeneric reports whether value is already made only of generic JSON nodes,
// which lets the common path skip a marshal round trip.
func isGeneric(value any) bool {
	switch typed := value.(type) {
	case nil, bool, string, json.Number:
		return true
	case map[string]any:
		for _, v := range typed {
			if !isGeneric(v) {
				return false
			}
		}
		return true
	case []any:
		for _, v := range typed {
			if !isGeneric(v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
