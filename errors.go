package contracts

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that are surfaced to users on import.
type ErrorKind string

const (
	// KindSchemaMismatch marks an envelope whose schema tag is missing or unknown.
	KindSchemaMismatch ErrorKind = "SchemaMismatch"
	// KindMalformedInput marks input that is not parseable structured data.
	KindMalformedInput ErrorKind = "MalformedInput"
)

var (
	// ErrSchemaMismatch matches any *ContractError of kind KindSchemaMismatch.
	ErrSchemaMismatch = errors.New("contracts: schema mismatch")
	// ErrMalformedInput matches any *ContractError of kind KindMalformedInput.
	ErrMalformedInput = errors.New("contracts: malformed input")
	// ErrHashMismatch indicates a recomputed digest differs from the recorded one.
	ErrHashMismatch = errors.New("contracts: hash mismatch")
	// ErrInvalidVersion indicates a version string that is not semantic.
	ErrInvalidVersion = errors.New("contracts: invalid semantic version")
)

// ContractError carries the kind and the offending schema value alongside the
// originating error.
type ContractError struct {
	Kind   ErrorKind
	Schema string
	Err    error
}

func (e *ContractError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindSchemaMismatch:
		if e.Schema == "" {
			return "contracts: schema mismatch: envelope has no schema"
		}
		return fmt.Sprintf("contracts: schema mismatch: unknown schema %q", e.Schema)
	default:
		if e.Err == nil {
			return fmt.Sprintf("contracts: %s", e.Kind)
		}
		return fmt.Sprintf("contracts: malformed input: %v", e.Err)
	}
}

func (e *ContractError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *ContractError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrSchemaMismatch:
		return e.Kind == KindSchemaMismatch
	case ErrMalformedInput:
		return e.Kind == KindMalformedInput
	}
	return false
}

func schemaMismatch(schema string) error {
	return &ContractError{Kind: KindSchemaMismatch, Schema: schema}
}

func malformed(err error) error {
	if err == nil {
		return nil
	}
	var contractErr *ContractError
	if errors.As(err, &contractErr) && contractErr.Kind == KindMalformedInput {
		return err
	}
	return &ContractError{Kind: KindMalformedInput, Err: err}
}
