package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	contracts "github.com/goliatone/go-contracts"
	"github.com/goliatone/go-contracts/pkg/activity"
)

const envelopeExt = ".json"

// Commit describes one archived revision.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
}

// GitOption configures a GitArchive.
type GitOption func(*GitArchive)

// WithAuthor sets the commit author name.
func WithAuthor(name string) GitOption {
	return func(a *GitArchive) {
		if strings.TrimSpace(name) != "" {
			a.author = name
		}
	}
}

// WithClock overrides the commit timestamp source.
func WithClock(now func() time.Time) GitOption {
	return func(a *GitArchive) {
		if now != nil {
			a.now = now
		}
	}
}

// WithActivityHooks emits contract.archive.saved after each commit.
func WithActivityHooks(hooks activity.Hooks) GitOption {
	return func(a *GitArchive) {
		a.hooks = append(a.hooks, hooks...)
	}
}

// WithLogger reports hook failures. A nil logger discards.
func WithLogger(logger *slog.Logger) GitOption {
	return func(a *GitArchive) {
		a.logger = logger
	}
}

// GitArchive stores each schema's envelope as <schema>.json in a git
// repository and commits every change.
type GitArchive struct {
	mu      sync.Mutex
	dir     string
	repo    *git.Repository
	author  string
	now     func() time.Time
	hooks   activity.Hooks
	emitter *activity.Emitter
	logger  *slog.Logger
}

var _ Remote = (*GitArchive)(nil)

// NewGitArchive opens the repository at dir, initialising it when absent.
func NewGitArchive(dir string, opts ...GitOption) (*GitArchive, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("remote: archive dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("remote: create archive dir: %w", err)
	}

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("remote: open archive: %w", err)
	}

	a := &GitArchive{dir: dir, repo: repo, author: "contracts", now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a.emitter = activity.NewEmitter(a.hooks, activity.Config{
		Enabled: true,
		ActorID: a.author,
		Now:     a.now,
		Logger:  a.logger,
	})
	return a, nil
}

// Dir returns the repository root.
func (a *GitArchive) Dir() string {
	return a.dir
}

// SaveContract writes env to <schema>.json and commits it. Saving an
// envelope identical to the archived one creates no commit and reports the
// current head.
func (a *GitArchive) SaveContract(ctx context.Context, env contracts.Envelope) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}
	_, meta, err := contracts.Unwrap(env)
	if err != nil {
		return SaveResult{}, err
	}
	payload, err := contracts.MarshalEnvelope(env)
	if err != nil {
		return SaveResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	worktree, err := a.repo.Worktree()
	if err != nil {
		return SaveResult{}, fmt.Errorf("remote: open worktree: %w", err)
	}
	name := meta.Schema + envelopeExt
	if err := os.WriteFile(filepath.Join(worktree.Filesystem.Root(), name), payload, 0o644); err != nil {
		return SaveResult{}, fmt.Errorf("remote: write %s: %w", name, err)
	}
	if _, err := worktree.Add(name); err != nil {
		return SaveResult{}, fmt.Errorf("remote: git add %s: %w", name, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return SaveResult{}, fmt.Errorf("remote: worktree status: %w", err)
	}
	if fileUnchanged(status, name) {
		head, err := a.repo.Head()
		if err != nil {
			return SaveResult{}, fmt.Errorf("remote: resolve head: %w", err)
		}
		return SaveResult{OK: true, Commit: head.Hash().String()}, nil
	}

	message := fmt.Sprintf("Save %s %s\n\n%s", meta.Schema, meta.Version, meta.Hash)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  a.author,
			Email: fmt.Sprintf("%s@contracts.local", sanitizeEmail(a.author)),
			When:  a.now(),
		},
	})
	if err != nil {
		return SaveResult{}, fmt.Errorf("remote: commit %s: %w", name, err)
	}

	a.emitter.Publish(ctx, activity.BuildArchiveSavedEvent(activity.ContractEventInput{
		Schema:   meta.Schema,
		Version:  meta.Version,
		Hash:     meta.Hash,
		Metadata: map[string]any{"commit": hash.String()},
	}))
	return SaveResult{OK: true, Commit: hash.String()}, nil
}

// LoadContracts reads every archived envelope at the current head.
func (a *GitArchive) LoadContracts(ctx context.Context) (map[string]contracts.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	head, err := a.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("remote: resolve head: %w", err)
	}
	return a.loadAt(head.Hash())
}

// LoadRevision reads the envelope for schema as of revision (a commit hash,
// branch or tag).
func (a *GitArchive) LoadRevision(ctx context.Context, revision, schema string) (contracts.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	hash, err := a.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("remote: resolve %s: %w", revision, err)
	}
	envelopes, err := a.loadAt(*hash)
	if err != nil {
		return nil, err
	}
	env, ok := envelopes[schema]
	if !ok {
		return nil, fmt.Errorf("remote: %s not archived at %s", schema, revision)
	}
	return env, nil
}

func (a *GitArchive) loadAt(hash plumbing.Hash) (map[string]contracts.Envelope, error) {
	commit, err := a.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("remote: load commit %s: %w", hash, err)
	}
	files, err := commit.Files()
	if err != nil {
		return nil, fmt.Errorf("remote: list files: %w", err)
	}
	defer files.Close()

	out := map[string]contracts.Envelope{}
	err = files.ForEach(func(file *object.File) error {
		if path.Dir(file.Name) != "." || path.Ext(file.Name) != envelopeExt {
			return nil
		}
		contents, err := file.Contents()
		if err != nil {
			return fmt.Errorf("read %s: %w", file.Name, err)
		}
		env, err := contracts.ParseEnvelope([]byte(contents))
		if err != nil {
			return fmt.Errorf("parse %s: %w", file.Name, err)
		}
		_, meta, err := contracts.Unwrap(env)
		if err != nil {
			return fmt.Errorf("unwrap %s: %w", file.Name, err)
		}
		out[meta.Schema] = env
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// History lists commits that touched schema's envelope, newest first. A
// positive limit caps the result.
func (a *GitArchive) History(ctx context.Context, schema string, limit int) ([]Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	head, err := a.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("remote: resolve head: %w", err)
	}

	name := schema + envelopeExt
	iter, err := a.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &name})
	if err != nil {
		return nil, fmt.Errorf("remote: read log: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, Commit{
			Hash:    c.Hash.String(),
			Message: strings.TrimSpace(c.Message),
			Author:  c.Author.Name,
			When:    c.Author.When,
		})
		if limit > 0 && len(commits) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("remote: iterate log: %w", err)
	}
	return commits, nil
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}

// fileUnchanged reports whether name has no staged or worktree changes.
// Other paths in the worktree are ignored. Status omits unmodified files, and
// Status.File would record them as untracked, so the map is read directly.
func fileUnchanged(status git.Status, name string) bool {
	st, ok := status[name]
	return !ok || (st.Staging == git.Unmodified && st.Worktree == git.Unmodified)
}
