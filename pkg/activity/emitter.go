package activity

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "contracts"

// Config holds the defaults an Emitter stamps on events and where it reports
// hook failures.
type Config struct {
	Enabled bool
	Channel string
	ActorID string
	Now     func() time.Time
	Logger  *slog.Logger
}

// Emitter stamps contract events with per-component defaults (channel, actor,
// clock) and delivers them to hooks.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	actorID string
	now     func() time.Time
	logger  *slog.Logger
}

// NewEmitter constructs an emitter from hooks and configuration. Nil hooks
// are dropped.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	normalized := CompactHooks(hooks)
	return &Emitter{
		hooks:   normalized,
		enabled: cfg.Enabled && len(normalized) > 0,
		channel: channel,
		actorID: strings.TrimSpace(cfg.ActorID),
		now:     cfg.Now,
		logger:  logger,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.hooks) > 0
}

// Channel returns the channel applied to events without one.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Hooks returns a copy of the hooks the emitter delivers to.
func (e *Emitter) Hooks() Hooks {
	if e == nil {
		return nil
	}
	return CompactHooks(e.hooks)
}

// Emit stamps event and forwards it to all hooks, returning their joined
// error.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	return e.hooks.Notify(ctx, e.stamp(event))
}

// Publish emits event and logs hook failures at warn instead of returning
// them. Saves, exports and imports use it so a failing hook never fails the
// operation that produced the event.
func (e *Emitter) Publish(ctx context.Context, event Event) {
	if err := e.Emit(ctx, event); err != nil {
		e.logger.Warn("activity hook failed",
			"verb", event.Verb,
			"object", event.ObjectID,
			"schema", event.Schema,
			"error", err,
		)
	}
}

func (e *Emitter) stamp(event Event) Event {
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actorID
	}
	if event.OccurredAt.IsZero() && e.now != nil {
		event.OccurredAt = e.now()
	}
	return event
}

// CompactHooks copies hooks without nil entries. It returns nil when no hook
// remains.
func CompactHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	compacted := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		compacted = append(compacted, hook)
	}
	if len(compacted) == 0 {
		return nil
	}
	return compacted
}
