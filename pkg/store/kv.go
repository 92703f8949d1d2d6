package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("store: not found")

// KV is the persistence collaborator: an opaque byte store keyed by string.
// Get returns ErrNotFound for missing keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

var errEmptyKey = errors.New("store: key is required")

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errEmptyKey
	}
	return nil
}
