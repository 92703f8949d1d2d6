package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	contracts "github.com/goliatone/go-contracts"
	"github.com/goliatone/go-contracts/layering"
	"github.com/goliatone/go-contracts/pkg/activity"
)

// DraftsOption configures Drafts.
type DraftsOption func(*Drafts)

// WithCodec replaces the default JSONCodec.
func WithCodec(codec Codec) DraftsOption {
	return func(d *Drafts) {
		if codec != nil {
			d.codec = codec
		}
	}
}

// WithActivityHooks emits contract.draft.saved after every write.
func WithActivityHooks(hooks activity.Hooks) DraftsOption {
	return func(d *Drafts) {
		d.hooks = append(d.hooks, hooks...)
	}
}

// WithActorID stamps the actor on emitted events.
func WithActorID(actorID string) DraftsOption {
	return func(d *Drafts) {
		d.actorID = actorID
	}
}

// WithWrapOptions configures how Mutate rewraps documents.
func WithWrapOptions(opts ...contracts.WrapOption) DraftsOption {
	return func(d *Drafts) {
		d.wrapOpts = append(d.wrapOpts, opts...)
	}
}

// WithLogger reports hook failures. A nil logger discards.
func WithLogger(logger *slog.Logger) DraftsOption {
	return func(d *Drafts) {
		d.logger = logger
	}
}

// Drafts persists envelopes under keys with hash-guarded writes.
type Drafts struct {
	mu       sync.Mutex
	kv       KV
	codec    Codec
	hooks    activity.Hooks
	emitter  *activity.Emitter
	actorID  string
	wrapOpts []contracts.WrapOption
	logger   *slog.Logger
}

// NewDrafts wraps kv.
func NewDrafts(kv KV, opts ...DraftsOption) (*Drafts, error) {
	if kv == nil {
		return nil, fmt.Errorf("store: kv is required")
	}
	d := &Drafts{kv: kv, codec: JSONCodec{}}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.emitter = activity.NewEmitter(d.hooks, activity.Config{
		Enabled: true,
		ActorID: d.actorID,
		Logger:  d.logger,
	})
	return d, nil
}

// Codec returns the codec in use.
func (d *Drafts) Codec() Codec {
	return d.codec
}

// Load returns the envelope stored under key, or an error wrapping ErrNotFound.
func (d *Drafts) Load(ctx context.Context, key string) (contracts.Envelope, error) {
	data, err := d.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("store: load draft %q: %w", key, err)
	}
	env, err := d.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("store: decode draft %q: %w", key, err)
	}
	return env, nil
}

// Save writes env under key. When expectedHash is non-empty and a stored
// draft carries another hash, nothing is written and the error wraps
// contracts.ErrHashMismatch.
func (d *Drafts) Save(ctx context.Context, key string, env contracts.Envelope, expectedHash string) error {
	if _, _, err := contracts.Unwrap(env); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.checkHash(ctx, key, expectedHash); err != nil {
		return err
	}
	return d.write(ctx, key, env)
}

// Mutate loads the draft under key, applies fn to a copy of its document and
// saves the rewrapped result under the same schema and version. The stored
// draft must exist.
func (d *Drafts) Mutate(ctx context.Context, key, expectedHash string, fn func(contracts.Document) (contracts.Document, error)) (contracts.Envelope, error) {
	if fn == nil {
		return nil, fmt.Errorf("store: mutator is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := d.checkHash(ctx, key, expectedHash)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("store: mutate draft %q: %w", key, ErrNotFound)
	}
	doc, meta, err := contracts.Unwrap(current)
	if err != nil {
		return nil, err
	}

	edited, err := fn(layering.Clone(doc))
	if err != nil {
		return nil, err
	}
	if edited == nil {
		edited = contracts.Document{}
	}
	next, err := contracts.Wrap(edited, meta.Schema, meta.Version, d.wrapOpts...)
	if err != nil {
		return nil, err
	}
	if err := d.write(ctx, key, next); err != nil {
		return nil, err
	}
	return next, nil
}

// checkHash loads the current draft, returning nil when none is stored.
func (d *Drafts) checkHash(ctx context.Context, key, expectedHash string) (contracts.Envelope, error) {
	current, err := d.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expectedHash == "" {
		return current, nil
	}
	stored, _ := current[contracts.MetaKeyHash].(string)
	if stored != "" && stored != expectedHash {
		return nil, fmt.Errorf("%w: draft %q: expected %q, got %q", contracts.ErrHashMismatch, key, expectedHash, stored)
	}
	return current, nil
}

func (d *Drafts) write(ctx context.Context, key string, env contracts.Envelope) error {
	data, err := d.codec.Encode(env)
	if err != nil {
		return err
	}
	if err := d.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store: save draft %q: %w", key, err)
	}

	_, meta, _ := contracts.Unwrap(env)
	d.emitter.Publish(ctx, activity.BuildDraftSavedEvent(activity.ContractEventInput{
		ObjectID: key,
		Schema:   meta.Schema,
		Version:  meta.Version,
		Hash:     meta.Hash,
		Metadata: map[string]any{"codec": d.codec.Name()},
	}))
	return nil
}
