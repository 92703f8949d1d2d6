package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	contracts "github.com/goliatone/go-contracts"
	"github.com/goliatone/go-contracts/internal/config"
	"github.com/goliatone/go-contracts/pkg/activity"
	"github.com/goliatone/go-contracts/pkg/activity/usersink"
	"github.com/goliatone/go-contracts/pkg/remote"
	"github.com/goliatone/go-contracts/pkg/store"
)

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func readDocument(cmd *cobra.Command, path string) (contracts.Document, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	doc, err := contracts.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// writeJSON prints v as indented JSON without HTML escaping.
func writeJSON(cmd *cobra.Command, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// writeValue prints scalars as plain text unless --json is set.
func (a *app) writeValue(cmd *cobra.Command, v any) error {
	if a.cfg.JSON.Or(false) {
		return writeJSON(cmd, v)
	}
	switch value := v.(type) {
	case string:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), value)
		return err
	case json.Number:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), value.String())
		return err
	default:
		return writeJSON(cmd, v)
	}
}

// reportWarnings prints warnings to stderr. They never fail a command.
func (a *app) reportWarnings(cmd *cobra.Command, warnings []contracts.Warning) {
	for _, warning := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
}

func (a *app) hashAlgorithm() contracts.Algorithm {
	return contracts.Algorithm(a.cfg.HashAlgorithm.Or(string(contracts.AlgorithmSHA256)))
}

func (a *app) wrapOptions() []contracts.WrapOption {
	return []contracts.WrapOption{contracts.WithHashAlgorithm(a.hashAlgorithm())}
}

// activityHooks logs lifecycle events at debug level and, when activity.log
// is configured, appends them to that file through the go-users adapter.
func (a *app) activityHooks() activity.Hooks {
	hooks := activity.Hooks{activity.LogHook(a.logger, slog.LevelDebug)}
	if path := strings.TrimSpace(a.cfg.Activity.Log.Or("")); path != "" {
		hooks = append(hooks, usersink.Hook{
			Sink:           &usersink.FileSink{Path: path},
			DeriveActorIDs: true,
		})
	}
	return hooks
}

func (a *app) actor() string {
	return a.cfg.Activity.Actor.Or("")
}

// linter builds a Linter from the configured rules file, or returns nil when
// none is configured.
func (a *app) linter(cmd *cobra.Command) (*contracts.Linter, error) {
	path := strings.TrimSpace(a.cfg.Lint.Rules.Or(""))
	if path == "" {
		return nil, nil
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	rules, err := contracts.ParseLintRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	evaluator, err := contracts.NewEvaluator(a.cfg.Lint.Engine.Or(contracts.EngineExpr), &contracts.MapProgramCache{}, nil)
	if err != nil {
		return nil, err
	}
	linter, err := contracts.NewLinter(rules,
		contracts.WithEvaluator(evaluator),
		contracts.WithEvaluatorLogger(contracts.NewSlogEvaluatorLogger(a.logger)),
	)
	if err != nil {
		return nil, err
	}
	for _, code := range linter.Broken() {
		a.logger.Warn("lint rule does not compile", "rule", code, "engine", linter.Engine())
	}
	return linter, nil
}

func (a *app) exchange(linter *contracts.Linter) *contracts.Exchange {
	return contracts.NewExchange(
		contracts.WithLogger(a.logger),
		contracts.WithActivityHooks(a.activityHooks()),
		contracts.WithActivityChannel("cli"),
		contracts.WithActorID(a.actor()),
		contracts.WithWrapOptions(a.wrapOptions()...),
		contracts.WithHashVerification(a.cfg.VerifyHash.Or(false)),
		contracts.WithLinter(linter),
	)
}

// openKV opens the configured draft backend. The returned close func is
// never nil.
func (a *app) openKV() (store.KV, func() error, error) {
	noop := func() error { return nil }
	switch backend := a.cfg.Store.Backend.Or(config.BackendSQLite); backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), noop, nil
	case config.BackendSQLite:
		s, err := store.NewSQLiteStore(a.cfg.Store.Path.Or(".contractctl/drafts.db"))
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.BackendRedis:
		s, err := store.NewRedisStore(a.cfg.Store.RedisURL.Or(""),
			store.WithKeyPrefix(a.cfg.Store.Prefix.Or(store.DefaultRedisPrefix)),
			store.WithTTL(a.cfg.Store.TTL.Or(0)),
		)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", backend)
	}
}

func (a *app) openDrafts() (*store.Drafts, func() error, error) {
	kv, closeFn, err := a.openKV()
	if err != nil {
		return nil, closeFn, err
	}
	codec, err := store.CodecByName(a.cfg.Store.Codec.Or("json"))
	if err != nil {
		return nil, closeFn, err
	}
	drafts, err := store.NewDrafts(kv,
		store.WithCodec(codec),
		store.WithActivityHooks(a.activityHooks()),
		store.WithActorID(a.actor()),
		store.WithWrapOptions(a.wrapOptions()...),
		store.WithLogger(a.logger),
	)
	return drafts, closeFn, err
}

func (a *app) openArchive() (*remote.GitArchive, error) {
	return remote.NewGitArchive(a.cfg.Archive.Dir.Or(".contractctl/archive"),
		remote.WithAuthor(a.cfg.Archive.Author.Or("contractctl")),
		remote.WithActivityHooks(a.activityHooks()),
		remote.WithLogger(a.logger),
	)
}

// detectSchema reads the schema tag, falling back to the document's shape.
func detectSchema(doc contracts.Document) string {
	if schema, _ := doc[contracts.MetaKeySchema].(string); contracts.IsKnownSchema(schema) {
		return schema
	}
	if _, ok := doc["components"]; ok && doc["layout"] == nil {
		return contracts.SchemaUIRegistryContract
	}
	return contracts.SchemaLayoutContract
}

func currentVersion(schema string) string {
	if schema == contracts.SchemaUIRegistryContract {
		return contracts.RegistryContractVersion
	}
	return contracts.LayoutContractVersion
}

// asEnvelope returns doc unchanged when it already carries envelope meta and
// wraps it otherwise.
func (a *app) asEnvelope(doc contracts.Document, schema, version string) (contracts.Envelope, error) {
	if tagged, _ := doc[contracts.MetaKeySchema].(string); contracts.IsKnownSchema(tagged) {
		if _, ok := doc[contracts.MetaKeyHash]; ok {
			return doc, nil
		}
	}
	if schema == "" {
		schema = detectSchema(doc)
	}
	if version == "" {
		version = currentVersion(schema)
	}
	return contracts.Wrap(doc, schema, version, a.wrapOptions()...)
}
