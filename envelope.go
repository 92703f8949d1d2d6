package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/mod/semver"
)

// Known schema names.
const (
	SchemaLayoutContract     = "layout-contract"
	SchemaUIRegistryContract = "ui-registry-contract"
)

// Envelope meta keys. They are siblings of the document's own top-level keys.
const (
	MetaKeySchema      = "schema"
	MetaKeyVersion     = "version"
	MetaKeyHash        = "hash"
	MetaKeyGeneratedAt = "generatedAt"
)

// GeneratedAtLayout renders timestamps as UTC ISO-8601 with milliseconds.
const GeneratedAtLayout = "2006-01-02T15:04:05.000Z07:00"

var metaKeys = []string{MetaKeySchema, MetaKeyVersion, MetaKeyHash, MetaKeyGeneratedAt}

// KnownSchemas lists the schema names accepted by Unwrap.
func KnownSchemas() []string {
	return []string{SchemaLayoutContract, SchemaUIRegistryContract}
}

// IsKnownSchema reports whether name is one of KnownSchemas.
func IsKnownSchema(name string) bool {
	return name == SchemaLayoutContract || name == SchemaUIRegistryContract
}

// Envelope is a flat object: the meta keys next to the document fields.
type Envelope = map[string]any

// Meta is the envelope provenance separated from the document.
type Meta struct {
	Schema      string `json:"schema"`
	Version     string `json:"version"`
	Hash        string `json:"hash"`
	GeneratedAt string `json:"generatedAt"`
}

// Time parses GeneratedAt. The zero time is returned when it is not a valid
// ISO-8601 timestamp.
func (m Meta) Time() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, m.GeneratedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// WrapOption configures Wrap.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	now    func() time.Time
	hasher Hasher
}

// WithClock overrides the time source used for generatedAt.
func WithClock(now func() time.Time) WrapOption {
	return func(cfg *wrapConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithHashAlgorithm selects the digest algorithm recorded in hash.
func WithHashAlgorithm(algorithm Algorithm) WrapOption {
	return func(cfg *wrapConfig) {
		cfg.hasher = NewHasher(algorithm)
	}
}

// Wrap builds a fresh envelope for doc. Meta keys already present in doc are
// not part of the editable state; they are dropped before hashing and the new
// meta values take their place.
func Wrap(doc Document, schema, version string, opts ...WrapOption) (Envelope, error) {
	cfg := wrapConfig{now: time.Now, hasher: NewHasher(AlgorithmSHA256)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !IsKnownSchema(schema) {
		return nil, schemaMismatch(schema)
	}
	if !ValidVersion(version) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}

	body := stripMeta(doc)
	hash, err := cfg.hasher.Digest(body)
	if err != nil {
		return nil, err
	}

	envelope := make(Envelope, len(body)+len(metaKeys))
	for key, value := range body {
		envelope[key] = value
	}
	envelope[MetaKeySchema] = schema
	envelope[MetaKeyVersion] = version
	envelope[MetaKeyHash] = hash
	envelope[MetaKeyGeneratedAt] = cfg.now().UTC().Format(GeneratedAtLayout)
	return envelope, nil
}

// Unwrap validates the schema tag and splits env into document and meta. The
// recorded hash is provenance only and is not checked here; see
// VerifyEnvelope for an explicit integrity check.
func Unwrap(env Envelope) (Document, Meta, error) {
	if env == nil {
		return nil, Meta{}, malformed(fmt.Errorf("unwrap: envelope is nil"))
	}
	schema, _ := env[MetaKeySchema].(string)
	if raw, present := env[MetaKeySchema]; present && schema == "" && raw != nil {
		schema = fmt.Sprint(raw)
	}
	if !IsKnownSchema(schema) {
		return nil, Meta{}, schemaMismatch(schema)
	}

	meta := Meta{
		Schema:      schema,
		Version:     stringField(env, MetaKeyVersion),
		Hash:        stringField(env, MetaKeyHash),
		GeneratedAt: stringField(env, MetaKeyGeneratedAt),
	}
	return stripMeta(env), meta, nil
}

// VerifyEnvelope recomputes the digest of the wrapped document and compares it
// with the recorded hash.
func VerifyEnvelope(env Envelope) error {
	doc, meta, err := Unwrap(env)
	if err != nil {
		return err
	}
	if meta.Hash == "" {
		return fmt.Errorf("%w: envelope has no hash", ErrHashMismatch)
	}
	ok, err := VerifyDigest(doc, meta.Hash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHashMismatch, err)
	}
	if !ok {
		return fmt.Errorf("%w: recorded %s", ErrHashMismatch, meta.Hash)
	}
	return nil
}

// ParseEnvelope decodes envelope JSON, accepting the same input formats as
// ParseDocument.
func ParseEnvelope(data []byte) (Envelope, error) {
	return ParseDocument(data)
}

// MarshalEnvelope renders env as indented JSON without HTML escaping.
func MarshalEnvelope(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("contracts: marshal envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// ValidVersion reports whether version is a semantic version ("1.2.3",
// optionally with pre-release or build suffix, without a leading "v").
func ValidVersion(version string) bool {
	if version == "" || version[0] == 'v' {
		return false
	}
	canonical := "v" + version
	if !semver.IsValid(canonical) {
		return false
	}
	// semver.IsValid accepts the "v1" and "v1.2" shorthands.
	return semver.Canonical(canonical) == canonical ||
		semver.Canonical(canonical)+semver.Build(canonical) == canonical
}

func stripMeta(doc Document) Document {
	out := make(Document, len(doc))
	for key, value := range doc {
		out[key] = value
	}
	for _, key := range metaKeys {
		delete(out, key)
	}
	return out
}

func stringField(doc Document, key string) string {
	value, _ := doc[key].(string)
	return value
}
