package contracts

import (
	"encoding/json"
	"strconv"
	"strings"
)

// TokenPrefix starts every token reference string.
const TokenPrefix = "$tokens."

// TokenTable maps a category ("spacing", "colors", "fontFamilies", ...) to the
// tokens declared in it.
type TokenTable map[string]map[string]TokenRecord

// TokenRecord is one design token. Exactly one shape is used per category:
// sized ({value, unit}), unitless ({value}), raw ({value: "#fff"}) or font
// family ({family, fallbacks}).
type TokenRecord struct {
	Value     any      `json:"value,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Family    string   `json:"family,omitempty"`
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// IsFamily reports whether the record describes a font family.
func (r TokenRecord) IsFamily() bool {
	return r.Family != "" || len(r.Fallbacks) > 0
}

// Reference is a parsed token reference.
type Reference struct {
	Category string
	Key      string
}

// String renders the reference back into "$tokens.<category>.<key>".
func (r Reference) String() string {
	return TokenPrefix + r.Category + "." + r.Key
}

// IsReference reports whether value is a string carrying the token prefix.
func IsReference(value any) bool {
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, TokenPrefix)
}

// ParseReference splits ref into category and key. The first segment after
// the prefix is the category; all remaining segments joined with "." form the
// key, so keys may contain dots.
func ParseReference(ref string) (Reference, bool) {
	rest, ok := strings.CutPrefix(ref, TokenPrefix)
	if !ok {
		return Reference{}, false
	}
	category, key, ok := strings.Cut(rest, ".")
	if !ok || category == "" || key == "" {
		return Reference{}, false
	}
	return Reference{Category: category, Key: key}, true
}

// Lookup returns the record ref points at.
func (t TokenTable) Lookup(ref string) (TokenRecord, bool) {
	parsed, ok := ParseReference(ref)
	if !ok || t == nil {
		return TokenRecord{}, false
	}
	category, ok := t[parsed.Category]
	if !ok {
		return TokenRecord{}, false
	}
	record, ok := category[parsed.Key]
	return record, ok
}

// ResolveScalar resolves ref into a concrete value. Sized tokens render as
// "<value><unit>", unitless and raw tokens return the bare value. Font family
// tokens and anything unresolvable report false; this function never panics
// on malformed input.
func ResolveScalar(ref string, table TokenTable) (any, bool) {
	record, ok := table.Lookup(ref)
	if !ok {
		return nil, false
	}
	return scalarValue(record)
}

func scalarValue(record TokenRecord) (any, bool) {
	if record.Value == nil {
		return nil, false
	}
	if record.Unit != "" {
		return formatValue(record.Value) + record.Unit, true
	}
	return record.Value, true
}

// ResolveComposite resolves every token reference field of style. Literal
// fields pass through, font family references become a font stack, and
// references that do not resolve are left out of the result.
func ResolveComposite(style map[string]any, table TokenTable) map[string]any {
	out := make(map[string]any, len(style))
	for field, value := range style {
		ref, ok := value.(string)
		if !ok || !strings.HasPrefix(ref, TokenPrefix) {
			out[field] = value
			continue
		}
		record, ok := table.Lookup(ref)
		if !ok {
			continue
		}
		if record.IsFamily() {
			if stack := FontStack(record); stack != "" {
				out[field] = stack
			}
			continue
		}
		if resolved, ok := scalarValue(record); ok {
			out[field] = resolved
		}
	}
	return out
}

// FontStack renders a family record as a CSS font stack: the quoted family
// followed by its fallbacks, e.g. "'Inter', sans-serif".
func FontStack(record TokenRecord) string {
	parts := make([]string, 0, len(record.Fallbacks)+1)
	if record.Family != "" {
		parts = append(parts, "'"+record.Family+"'")
	}
	for _, fallback := range record.Fallbacks {
		if fallback = strings.TrimSpace(fallback); fallback != "" {
			parts = append(parts, fallback)
		}
	}
	return strings.Join(parts, ", ")
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	default:
		out, err := json.Marshal(typed)
		if err != nil {
			return ""
		}
		return string(out)
	}
}

// TokensFromDocument decodes the "tokens" member of a layout document.
// Categories or records that do not have the expected shape are skipped so
// that resolution over a half-edited document stays total.
func TokensFromDocument(doc Document) TokenTable {
	table := TokenTable{}
	switch raw := doc["tokens"].(type) {
	case TokenTable:
		return raw
	case map[string]any:
		for category, entries := range raw {
			records, ok := entries.(map[string]any)
			if !ok {
				continue
			}
			decoded := make(map[string]TokenRecord, len(records))
			for key, entry := range records {
				var record TokenRecord
				if err := remarshal(entry, &record); err != nil {
					continue
				}
				decoded[key] = record
			}
			table[category] = decoded
		}
	}
	return table
}

func remarshal(in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}
