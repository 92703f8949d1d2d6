// Package store persists contract drafts behind a small key-value interface.
//
// A KV backend only moves opaque bytes: MemoryStore keeps them in process,
// SQLiteStore writes them to a single table through modernc.org/sqlite and
// RedisStore keeps them in Redis with an optional expiry. Drafts sits on top
// of any backend, encodes envelopes with a Codec (JSON or deterministic CBOR)
// and guards writes with the envelope hash:
//
//	KV -> Drafts{Codec} -> contracts.Envelope
//
// Save and Mutate accept the hash the caller last saw. When it is non-empty
// and a stored draft carries a different hash the write is rejected with
// contracts.ErrHashMismatch. The check is serialized within one Drafts value;
// it is not atomic across processes sharing a backend.
package store
