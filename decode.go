package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-contracts/internal/hydrate"
)

// ToDocument converts a typed value into its generic document form. Numbers
// are kept as json.Number so values survive a later canonicalisation intact.
func ToDocument(v any) (Document, error) {
	if doc, ok := v.(Document); ok {
		return doc, nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("contracts: encode document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("contracts: decode document: %w", err)
	}
	return doc, nil
}

// DecodeOption configures DecodeLayoutContract and DecodeRegistry.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	migrator *Migrator
	version  string
}

// WithDecodeMigrator upgrades documents with m before decoding. A nil
// migrator disables upgrades.
func WithDecodeMigrator(m *Migrator) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.migrator = m
	}
}

// WithSourceVersion declares the version the document was written with. It
// defaults to the document's own "version" key when present.
func WithSourceVersion(version string) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.version = version
	}
}

// DecodeLayoutContract decodes a layout document, upgrading it to
// LayoutContractVersion first.
func DecodeLayoutContract(doc Document, opts ...DecodeOption) (LayoutContract, error) {
	return decodeTyped[LayoutContract](SchemaLayoutContract, doc, opts)
}

// DecodeRegistry decodes a registry document. Component names are normalised
// to their keys.
func DecodeRegistry(doc Document, opts ...DecodeOption) (Registry, error) {
	return decodeTyped(SchemaUIRegistryContract, doc, opts,
		hydrate.WithPostHook(func(_ hydrate.Context, r *Registry) error {
			*r = r.Normalized()
			return nil
		}),
	)
}

func decodeTyped[T any](schema string, doc Document, opts []DecodeOption, extra ...hydrate.DecoderOption[T]) (T, error) {
	var zero T
	if doc == nil {
		return zero, malformed(fmt.Errorf("decode %s: document is nil", schema))
	}

	cfg := decodeConfig{migrator: DefaultMigrator()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.version == "" {
		cfg.version = stringField(doc, MetaKeyVersion)
	}

	decoderOpts := []hydrate.DecoderOption[T]{hydrate.WithUseNumber[T]()}
	if cfg.migrator != nil {
		decoderOpts = append(decoderOpts, hydrate.WithPreHook[T](cfg.migrator.PreHook()))
	}
	decoderOpts = append(decoderOpts, extra...)

	result, err := hydrate.NewDecoder(decoderOpts...).Decode(hydrate.Context{
		Schema:  schema,
		Version: cfg.version,
	}, stripMeta(doc))
	if err != nil {
		return zero, malformed(err)
	}
	return result, nil
}
