package contracts

import (
	"fmt"
	"sort"
	"strings"
)

// FieldDescriptor describes a leaf path of a document and its inferred type.
type FieldDescriptor struct {
	Path string
	Type string
}

// DescribeFields flattens doc into sorted leaf descriptors. Arrays are leaves;
// empty objects contribute nothing.
func DescribeFields(doc Document) []FieldDescriptor {
	descriptors := deriveFieldDescriptors(doc, "")
	if descriptors == nil {
		return []FieldDescriptor{}
	}
	return descriptors
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	switch typed := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			fields = append(fields, deriveFieldDescriptors(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: "[]" + elementType,
		}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: typeName(typed),
		}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
