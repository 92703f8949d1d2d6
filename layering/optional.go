package layering

import (
	"bytes"
	"encoding/json"
)

// Optional carries an explicit presence bit next to its value so that an
// absent field ("inherit") is distinguishable from a field set to its zero
// value ("override to false/empty").
type Optional[T any] struct {
	Value   T
	Present bool
}

// Set returns an Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// Unset returns an empty Optional.
func Unset[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// IsSet reports whether the value was explicitly provided.
func (o Optional[T]) IsSet() bool {
	return o.Present
}

// IsZero lets encoding/json drop unset values for fields tagged omitzero.
func (o Optional[T]) IsZero() bool {
	return !o.Present
}

// Or returns the value when set, fallback otherwise.
func (o Optional[T]) Or(fallback T) T {
	if o.Present {
		return o.Value
	}
	return fallback
}

// MarshalJSON encodes the wrapped value, or null when unset.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON marks the value as present. A literal null is still a
// present value: it overrides to the zero value of T.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	var zero T
	o.Value = zero
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// presence is satisfied by Optional values regardless of T.
type presence interface {
	IsSet() bool
}
