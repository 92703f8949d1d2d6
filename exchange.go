package contracts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-contracts/pkg/activity"
)

// ExchangeOption configures an Exchange.
type ExchangeOption func(*exchangeConfig)

type exchangeConfig struct {
	logger     *slog.Logger
	hooks      activity.Hooks
	channel    string
	actorID    string
	wrapOpts   []WrapOption
	now        func() time.Time
	verifyHash bool
	linter     *Linter
	migrator   *Migrator
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) ExchangeOption {
	return func(cfg *exchangeConfig) {
		cfg.logger = logger
	}
}

// WithActivityHooks attaches activity hooks. Hooks are cloned and nil entries
// dropped to preserve immutability.
func WithActivityHooks(hooks activity.Hooks) ExchangeOption {
	normalized := activity.CompactHooks(hooks)
	return func(cfg *exchangeConfig) {
		cfg.hooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) ExchangeOption {
	return func(cfg *exchangeConfig) {
		cfg.channel = channel
	}
}

// WithActorID records who performs exports and imports.
func WithActorID(actorID string) ExchangeOption {
	return func(cfg *exchangeConfig) {
		cfg.actorID = actorID
	}
}

// WithWrapOptions forwards options to Wrap on export. WithClock also sets the
// time of emitted events.
func WithWrapOptions(opts ...WrapOption) ExchangeOption {
	return func(cfg *exchangeConfig) {
		cfg.wrapOpts = append(cfg.wrapOpts, opts...)
		probe := wrapConfig{}
		for _, opt := range opts {
			if opt != nil {
				opt(&probe)
			}
		}
		if probe.now != nil {
			cfg.now = probe.now
		}
	}
}

// WithHashVerification makes Import reject envelopes whose recorded hash does
// not match the document. It is off by default.
func WithHashVerification(enabled bool) ExchangeOption {
	return func(cfg *exchangeConfig) {
		cfg.verifyHash = enabled
	}
}

// WithLinter runs linter on export and import.
func WithLinter(linter *Linter) ExchangeOption {
	return func(cfg *exchangeConfig) {
		cfg.linter = linter
	}
}

// WithMigrator replaces the built-in migrations used on import. A nil
// migrator disables upgrades.
func WithMigrator(migrator *Migrator) ExchangeOption {
	return func(cfg *exchangeConfig) {
		cfg.migrator = migrator
	}
}

// Exchange moves contract documents in and out of envelopes, attaching
// advisory warnings and emitting activity events. It is safe for concurrent
// use.
type Exchange struct {
	cfg     exchangeConfig
	logger  *slog.Logger
	emitter *activity.Emitter
}

// NewExchange builds an Exchange from opts.
func NewExchange(opts ...ExchangeOption) *Exchange {
	cfg := exchangeConfig{
		now:      time.Now,
		migrator: DefaultMigrator(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exchange{
		cfg:     cfg,
		logger:  logger,
		emitter: activity.NewEmitter(cfg.hooks, activity.Config{
			Enabled: true,
			Channel: cfg.channel,
			ActorID: cfg.actorID,
			Now:     cfg.now,
			Logger:  logger,
		}),
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (x *Exchange) ActivityHooks() activity.Hooks {
	if x == nil {
		return nil
	}
	return x.emitter.Hooks()
}

// Export normalizes (registries), validates, lints and wraps doc. Warnings
// never block the export.
func (x *Exchange) Export(ctx context.Context, doc Document, schema, version string) (Envelope, []Warning, error) {
	if doc == nil {
		return nil, nil, malformed(errors.New("export: document is nil"))
	}
	if schema == SchemaUIRegistryContract {
		doc = Normalize(doc)
	}

	warnings, err := x.review(ctx, doc, schema)
	if err != nil {
		return nil, nil, err
	}

	env, err := Wrap(doc, schema, version, x.cfg.wrapOpts...)
	if err != nil {
		x.logger.Warn("contract export failed", "schema", schema, "version", version, "error", err)
		return nil, warnings, err
	}

	hash := stringField(env, MetaKeyHash)
	x.logOutcome("contract exported", schema, version, hash, warnings)
	x.emitter.Publish(ctx, activity.BuildExportedEvent(activity.ContractEventInput{
		Schema:   schema,
		Version:  version,
		Hash:     hash,
		Warnings: len(warnings),
	}))
	return env, warnings, nil
}

// Import parses data as an envelope and hands it to ImportEnvelope.
func (x *Exchange) Import(ctx context.Context, data []byte) (Document, Meta, []Warning, error) {
	env, err := ParseEnvelope(data)
	if err != nil {
		x.logger.Warn("contract import rejected", "error", err)
		return nil, Meta{}, nil, err
	}
	return x.ImportEnvelope(ctx, env)
}

// ImportEnvelope unwraps env, optionally verifies its hash, upgrades the
// document to the current version, normalizes registries and attaches
// warnings. The returned Meta is the envelope's record as written.
func (x *Exchange) ImportEnvelope(ctx context.Context, env Envelope) (Document, Meta, []Warning, error) {
	doc, meta, err := Unwrap(env)
	if err != nil {
		x.logger.Warn("contract import rejected", "error", err)
		return nil, Meta{}, nil, err
	}

	if x.cfg.verifyHash {
		if err := VerifyEnvelope(env); err != nil {
			x.logger.Warn("contract hash mismatch", "schema", meta.Schema, "hash", meta.Hash, "error", err)
			return nil, meta, nil, err
		}
	}

	if x.cfg.migrator != nil {
		upgraded, reached, err := x.cfg.migrator.Migrate(doc, meta.Schema, meta.Version)
		if err != nil {
			x.logger.Warn("contract migration failed", "schema", meta.Schema, "version", meta.Version, "error", err)
			return nil, meta, nil, malformed(err)
		}
		if reached != meta.Version && meta.Version != "" {
			x.logger.Debug("contract upgraded", "schema", meta.Schema, "from", meta.Version, "to", reached)
		}
		doc = upgraded
	}
	if meta.Schema == SchemaUIRegistryContract {
		doc = Normalize(doc)
	}

	warnings, err := x.review(ctx, doc, meta.Schema)
	if err != nil {
		return nil, meta, nil, err
	}

	x.logOutcome("contract imported", meta.Schema, meta.Version, meta.Hash, warnings)
	x.emitter.Publish(ctx, activity.BuildImportedEvent(activity.ContractEventInput{
		Schema:   meta.Schema,
		Version:  meta.Version,
		Hash:     meta.Hash,
		Warnings: len(warnings),
	}))
	return doc, meta, warnings, nil
}

func (x *Exchange) review(ctx context.Context, doc Document, schema string) ([]Warning, error) {
	warnings := ValidateAs(doc, schema)
	if x.cfg.linter == nil {
		return warnings, nil
	}
	lintWarnings, err := x.cfg.linter.Lint(ctx, doc)
	if err != nil {
		return nil, err
	}
	return append(warnings, lintWarnings...), nil
}

func (x *Exchange) logOutcome(msg, schema, version, hash string, warnings []Warning) {
	if len(warnings) > 0 {
		x.logger.Warn(msg+" with warnings", "schema", schema, "version", version, "hash", hash, "warnings", len(warnings))
		return
	}
	x.logger.Debug(msg, "schema", schema, "version", version, "hash", hash)
}
