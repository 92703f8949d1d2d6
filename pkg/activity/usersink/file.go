package usersink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// FileSink appends activity records to a JSON lines file. It satisfies
// usertypes.ActivitySink and is safe for concurrent use.
type FileSink struct {
	Path string

	mu sync.Mutex
}

var _ usertypes.ActivitySink = (*FileSink)(nil)

// FileEntry is one line of a FileSink log.
type FileEntry struct {
	ActorID    string         `json:"actor_id,omitempty"`
	TenantID   string         `json:"tenant_id,omitempty"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id"`
	Channel    string         `json:"channel,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Log appends record, creating the file and its directory when needed.
func (s *FileSink) Log(ctx context.Context, record usertypes.ActivityRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(FileEntry{
		ActorID:    uuidString(record.ActorID),
		TenantID:   uuidString(record.TenantID),
		Verb:       record.Verb,
		ObjectType: record.ObjectType,
		ObjectID:   record.ObjectID,
		Channel:    record.Channel,
		Data:       record.Data,
		OccurredAt: record.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("usersink: encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("usersink: create log dir: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("usersink: open %s: %w", s.Path, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("usersink: write %s: %w", s.Path, err)
	}
	return f.Close()
}

// ReadFile decodes every entry of a FileSink log in write order.
func ReadFile(path string) ([]FileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("usersink: read %s: %w", path, err)
	}
	var entries []FileEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var entry FileEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("usersink: decode %s: %w", path, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func uuidString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
