// Package activity fans contract lifecycle events (exports, imports, draft
// saves, archive commits) out to pluggable hooks.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Event is one contract lifecycle occurrence. Schema, Version and Hash mirror
// the envelope meta of the contract involved.
type Event struct {
	Verb       string
	ActorID    string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Schema     string
	Version    string
	Hash       string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Valid reports whether the event carries a verb and an object reference.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// LogValue renders the event as a slog group, omitting empty fields.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("verb", e.Verb),
		slog.String("object", e.ObjectType+":"+e.ObjectID),
	}
	for _, field := range []struct{ key, value string }{
		{"actor", e.ActorID},
		{"channel", e.Channel},
		{"schema", e.Schema},
		{"version", e.Version},
		{"hash", e.Hash},
	} {
		if field.value != "" {
			attrs = append(attrs, slog.String(field.key, field.value))
		}
	}
	if len(e.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", e.Metadata))
	}
	return slog.GroupValue(attrs...)
}

// ActivityHook receives normalized activity events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// LogHook returns a hook that writes every event to logger at level.
func LogHook(logger *slog.Logger, level slog.Level) ActivityHook {
	return HookFunc(func(ctx context.Context, event Event) error {
		if logger == nil {
			return nil
		}
		logger.LogAttrs(ctx, level, "activity", slog.Any("event", event))
		return nil
	})
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and forwards it to every hook in order. Events
// without a verb or object are dropped. Hook failures are joined; delivery
// stops early once ctx is done.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d (%s): %w", i, normalized.Verb, err))
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures a timestamp is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.ObjectType = strings.TrimSpace(event.ObjectType)
	normalized.ObjectID = strings.TrimSpace(event.ObjectID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Schema = strings.TrimSpace(event.Schema)
	normalized.Version = strings.TrimSpace(event.Version)
	normalized.Hash = strings.TrimSpace(event.Hash)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
