package remote

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contracts "github.com/goliatone/go-contracts"
	"github.com/goliatone/go-contracts/pkg/activity"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func layoutEnvelope(t *testing.T, route string) contracts.Envelope {
	t.Helper()
	doc := contracts.Document{
		"tokens": map[string]any{},
		"layout": map[string]any{"regions": map[string]any{}},
		"pages": map[string]any{
			"home": map[string]any{"label": "Home", "route": route},
		},
	}
	env, err := contracts.Wrap(doc, contracts.SchemaLayoutContract, contracts.LayoutContractVersion,
		contracts.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return env
}

func registryEnvelope(t *testing.T) contracts.Envelope {
	t.Helper()
	doc := contracts.Document{"components": map[string]any{
		"Button": map[string]any{"category": "action"},
	}}
	env, err := contracts.Wrap(doc, contracts.SchemaUIRegistryContract, contracts.RegistryContractVersion,
		contracts.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return env
}

func TestRemotesLoadNilWhenEmpty(t *testing.T) {
	archive, err := NewGitArchive(t.TempDir())
	require.NoError(t, err)

	for name, r := range map[string]Remote{"memory": NewMemoryRemote(), "git": archive} {
		t.Run(name, func(t *testing.T) {
			got, err := r.LoadContracts(context.Background())
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRemotesSaveAndLoad(t *testing.T) {
	archive, err := NewGitArchive(t.TempDir(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	for name, r := range map[string]Remote{"memory": NewMemoryRemote(), "git": archive} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			layout := layoutEnvelope(t, "/")
			registry := registryEnvelope(t)

			res, err := r.SaveContract(ctx, layout)
			require.NoError(t, err)
			assert.True(t, res.OK)
			_, err = r.SaveContract(ctx, registry)
			require.NoError(t, err)

			got, err := r.LoadContracts(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, layout[contracts.MetaKeyHash], got[contracts.SchemaLayoutContract][contracts.MetaKeyHash])
			assert.Equal(t, registry[contracts.MetaKeyHash], got[contracts.SchemaUIRegistryContract][contracts.MetaKeyHash])
			require.NoError(t, contracts.VerifyEnvelope(got[contracts.SchemaLayoutContract]))
		})
	}
}

func TestRemotesRejectUnknownSchema(t *testing.T) {
	archive, err := NewGitArchive(t.TempDir())
	require.NoError(t, err)

	for name, r := range map[string]Remote{"memory": NewMemoryRemote(), "git": archive} {
		t.Run(name, func(t *testing.T) {
			_, err := r.SaveContract(context.Background(), contracts.Envelope{"schema": "nope"})
			assert.ErrorIs(t, err, contracts.ErrSchemaMismatch)
		})
	}
}

func TestMemoryRemoteIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRemote()
	env := layoutEnvelope(t, "/")
	_, err := r.SaveContract(ctx, env)
	require.NoError(t, err)

	env["pages"] = "mutated"
	got, err := r.LoadContracts(ctx)
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, got[contracts.SchemaLayoutContract]["pages"])
}

func TestGitArchiveHistoryAndRevisions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	capture := &activity.CaptureHook{}
	archive, err := NewGitArchive(dir,
		WithAuthor("Design Bot"),
		WithClock(func() time.Time { return fixedNow }),
		WithActivityHooks(activity.Hooks{capture}),
	)
	require.NoError(t, err)

	first, err := archive.SaveContract(ctx, layoutEnvelope(t, "/"))
	require.NoError(t, err)
	second, err := archive.SaveContract(ctx, layoutEnvelope(t, "/home"))
	require.NoError(t, err)
	require.NotEqual(t, first.Commit, second.Commit)

	_, err = archive.SaveContract(ctx, registryEnvelope(t))
	require.NoError(t, err)

	history, err := archive.History(ctx, contracts.SchemaLayoutContract, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.Commit, history[0].Hash)
	assert.Equal(t, first.Commit, history[1].Hash)
	assert.Equal(t, "Design Bot", history[0].Author)
	assert.Contains(t, history[0].Message, "Save layout-contract "+contracts.LayoutContractVersion)

	limited, err := archive.History(ctx, contracts.SchemaLayoutContract, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	old, err := archive.LoadRevision(ctx, first.Commit, contracts.SchemaLayoutContract)
	require.NoError(t, err)
	pages := old["pages"].(map[string]any)["home"].(map[string]any)
	assert.Equal(t, "/", pages["route"])

	_, err = archive.LoadRevision(ctx, first.Commit, contracts.SchemaUIRegistryContract)
	assert.Error(t, err)

	assert.Equal(t, []string{activity.VerbArchiveSaved, activity.VerbArchiveSaved, activity.VerbArchiveSaved}, capture.Verbs())
	last, _ := capture.Last()
	assert.Equal(t, "Design Bot", last.ActorID)

	_, err = os.Stat(filepath.Join(dir, contracts.SchemaLayoutContract+".json"))
	assert.NoError(t, err)
}

func TestGitArchiveUnchangedSaveReusesHead(t *testing.T) {
	ctx := context.Background()
	archive, err := NewGitArchive(t.TempDir())
	require.NoError(t, err)

	env := layoutEnvelope(t, "/")
	first, err := archive.SaveContract(ctx, env)
	require.NoError(t, err)
	again, err := archive.SaveContract(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, first.Commit, again.Commit)

	history, err := archive.History(ctx, contracts.SchemaLayoutContract, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestGitArchiveUnchangedSaveIgnoresStrayFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	archive, err := NewGitArchive(dir)
	require.NoError(t, err)

	env := layoutEnvelope(t, "/")
	first, err := archive.SaveContract(ctx, env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644))

	again, err := archive.SaveContract(ctx, env)
	require.NoError(t, err)
	assert.True(t, again.OK)
	assert.Equal(t, first.Commit, again.Commit)

	changed, err := archive.SaveContract(ctx, layoutEnvelope(t, "/home"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Commit, changed.Commit)

	history, err := archive.History(ctx, contracts.SchemaLayoutContract, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGitArchiveReopensExistingRepo(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	archive, err := NewGitArchive(dir)
	require.NoError(t, err)
	_, err = archive.SaveContract(ctx, layoutEnvelope(t, "/"))
	require.NoError(t, err)

	reopened, err := NewGitArchive(dir)
	require.NoError(t, err)
	got, err := reopened.LoadContracts(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, dir, reopened.Dir())
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "Design.Bot", sanitizeEmail("Design Bot"))
	assert.Equal(t, "user", sanitizeEmail("!!"))
}
