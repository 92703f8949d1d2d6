package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"

	contracts "github.com/goliatone/go-contracts"
)

// Codec converts envelopes to and from the bytes kept in a KV.
type Codec interface {
	Name() string
	Encode(env contracts.Envelope) ([]byte, error)
	Decode(data []byte) (contracts.Envelope, error)
}

// CodecByName returns the codec called name ("json" or "cbor").
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("store: unknown codec %q", name)
	}
}

// JSONCodec stores envelopes as indented JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(env contracts.Envelope) ([]byte, error) {
	return contracts.MarshalEnvelope(env)
}

func (JSONCodec) Decode(data []byte) (contracts.Envelope, error) {
	return contracts.ParseEnvelope(data)
}

// encMode uses Core Deterministic Encoding so equal envelopes produce equal
// bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

// jsonNumberTag marks a CBOR text string holding a JSON number literal
// exactly as it was written ("1.50", "1e3").
const jsonNumberTag uint64 = 4870990

// CBORCodec stores envelopes as deterministic CBOR. Numbers travel as tagged
// text so decoded envelopes carry the same json.Number values, and hashes,
// as the JSON codec's.
type CBORCodec struct{}

func (CBORCodec) Name() string { return "cbor" }

func (CBORCodec) Encode(env contracts.Envelope) ([]byte, error) {
	data, err := encMode.Marshal(tagNumbers(map[string]any(env)))
	if err != nil {
		return nil, fmt.Errorf("store: cbor encode: %w", err)
	}
	return data, nil
}

func (CBORCodec) Decode(data []byte) (contracts.Envelope, error) {
	var raw map[string]any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("store: cbor decode: %w", err)
	}
	restored, err := untagNumbers(raw)
	if err != nil {
		return nil, fmt.Errorf("store: cbor decode: %w", err)
	}
	payload, err := json.Marshal(restored)
	if err != nil {
		return nil, fmt.Errorf("store: cbor decode: %w", err)
	}
	return contracts.ParseEnvelope(payload)
}

// tagNumbers wraps every json.Number in a jsonNumberTag.
func tagNumbers(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = tagNumbers(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = tagNumbers(item)
		}
		return out
	case json.Number:
		return cbor.Tag{Number: jsonNumberTag, Content: v.String()}
	default:
		return value
	}
}

// untagNumbers turns jsonNumberTag values back into json.Number.
func untagNumbers(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			restored, err := untagNumbers(item)
			if err != nil {
				return nil, err
			}
			out[key] = restored
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			restored, err := untagNumbers(item)
			if err != nil {
				return nil, err
			}
			out[i] = restored
		}
		return out, nil
	case cbor.Tag:
		text, ok := v.Content.(string)
		if v.Number != jsonNumberTag || !ok {
			return nil, fmt.Errorf("unexpected tag %d", v.Number)
		}
		number := json.Number(text)
		if _, err := number.Float64(); err != nil {
			return nil, fmt.Errorf("invalid number %q", text)
		}
		return number, nil
	default:
		return value, nil
	}
}
