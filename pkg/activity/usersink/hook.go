// Package usersink forwards contract activity into a go-users activity sink.
package usersink

import (
	"context"
	"strings"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-contracts/pkg/activity"
)

// ActorNamespace derives user ids for actors that are names rather than
// UUIDs, such as a git author or a CLI user.
var ActorNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:contracts:actor"))

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Verbs limits forwarding to the listed verbs. Empty forwards all.
	Verbs []string
	// DeriveActorIDs maps non-UUID actors into ActorNamespace instead of
	// recording uuid.Nil.
	DeriveActorIDs bool
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// The actor doubles as the record's user. Schema, version and hash travel in
// the record data; a named actor is kept under "actor".
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() || !h.accepts(normalized.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	actorID, named := h.actorID(normalized.ActorID)
	tenantID, _ := parseUUID(normalized.TenantID)
	record := usertypes.ActivityRecord{
		ActorID:    actorID,
		UserID:     actorID,
		TenantID:   tenantID,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       contractData(normalized),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if named {
		record.Data = setData(record.Data, "actor", normalized.ActorID)
	}

	return h.Sink.Log(ctx, record)
}

func (h Hook) accepts(verb string) bool {
	if len(h.Verbs) == 0 {
		return true
	}
	for _, candidate := range h.Verbs {
		if strings.TrimSpace(candidate) == verb {
			return true
		}
	}
	return false
}

// actorID returns the UUID recorded for actor and whether it was derived
// from a name.
func (h Hook) actorID(actor string) (uuid.UUID, bool) {
	if id, ok := parseUUID(actor); ok {
		return id, false
	}
	if !h.DeriveActorIDs || actor == "" {
		return uuid.Nil, false
	}
	return uuid.NewSHA1(ActorNamespace, []byte(actor)), true
}

// contractData merges event metadata with the envelope fields it describes.
func contractData(event activity.Event) map[string]any {
	var data map[string]any
	for key, value := range event.Metadata {
		data = setData(data, key, value)
	}
	data = setData(data, "schema", event.Schema)
	data = setData(data, "version", event.Version)
	data = setData(data, "hash", event.Hash)
	return data
}

func setData(data map[string]any, key string, value any) map[string]any {
	if s, ok := value.(string); ok && s == "" {
		return data
	}
	if data == nil {
		data = map[string]any{}
	}
	data[key] = value
	return data
}

func parseUUID(input string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
