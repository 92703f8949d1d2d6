// Package remote provides the save/load collaborator for published contracts.
// The core only produces and consumes envelopes; a Remote decides where they
// live. MemoryRemote keeps them in process and GitArchive commits each save
// to a local git repository so earlier versions stay reachable.
package remote

import (
	"context"
	"sync"

	contracts "github.com/goliatone/go-contracts"
	"github.com/goliatone/go-contracts/layering"
)

// SaveResult reports the outcome of SaveContract. Commit identifies the
// stored revision when the backend has one.
type SaveResult struct {
	OK     bool   `json:"ok"`
	Commit string `json:"commit,omitempty"`
}

// Remote loads and saves envelopes keyed by schema name. LoadContracts
// returns nil when nothing has been saved.
type Remote interface {
	LoadContracts(ctx context.Context) (map[string]contracts.Envelope, error)
	SaveContract(ctx context.Context, env contracts.Envelope) (SaveResult, error)
}

// MemoryRemote keeps the latest envelope per schema in memory.
type MemoryRemote struct {
	mu        sync.RWMutex
	envelopes map[string]contracts.Envelope
}

func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{envelopes: map[string]contracts.Envelope{}}
}

func (r *MemoryRemote) LoadContracts(ctx context.Context) (map[string]contracts.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.envelopes) == 0 {
		return nil, nil
	}
	out := make(map[string]contracts.Envelope, len(r.envelopes))
	for schema, env := range r.envelopes {
		out[schema] = layering.Clone(env)
	}
	return out, nil
}

func (r *MemoryRemote) SaveContract(ctx context.Context, env contracts.Envelope) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}
	_, meta, err := contracts.Unwrap(env)
	if err != nil {
		return SaveResult{}, err
	}
	r.mu.Lock()
	if r.envelopes == nil {
		r.envelopes = map[string]contracts.Envelope{}
	}
	r.envelopes[meta.Schema] = layering.Clone(env)
	r.mu.Unlock()
	return SaveResult{OK: true}, nil
}
