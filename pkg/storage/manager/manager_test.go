package manager_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/pkg/models"
	"github.com/notevault/notevault/pkg/storage"
	"github.com/notevault/notevault/pkg/storage/manager"
)

// deadServerURL returns a URL nothing listens on anymore.
func deadServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func newManager(t *testing.T, cfg storage.Config) *manager.Manager {
	t.Helper()
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	m, err := manager.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := manager.New(storage.Config{Type: storage.KindLocal})
	require.Error(t, err)
	var configErr *storage.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestKVConfigUsesFallbackAsActive(t *testing.T) {
	m := newManager(t, storage.Config{Type: storage.KindKV})
	ctx := context.Background()

	assert.Equal(t, storage.KindKV, m.Active())
	require.NoError(t, m.SaveWorkspace(ctx, &models.Workspace{ID: "ws1", Name: "Notes"}))

	ws, err := m.GetWorkspace(ctx, "ws1")
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "Notes", ws.Name)
}

func TestFallbackReplayOnActiveFailure(t *testing.T) {
	m := newManager(t, storage.Config{
		Type:   storage.KindWebDAV,
		WebDAV: &storage.WebDAVConfig{URL: deadServerURL(t), Enabled: true},
	})
	ctx := context.Background()

	// The remote is dead; the write must still succeed via the fallback.
	require.NoError(t, m.SaveWorkspace(ctx, &models.Workspace{ID: "ws1", Name: "Notes"}))
	require.NoError(t, m.SavePage(ctx, &models.Page{ID: "p1", Title: "One"}))

	ws, err := m.GetWorkspace(ctx, "ws1")
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "Notes", ws.Name)

	page, err := m.GetPage(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, page)

	list, err := m.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.False(t, m.TestConnection(ctx))
}

func TestFallbackErrorSurfacesWhenBothFail(t *testing.T) {
	m := newManager(t, storage.Config{
		Type:   storage.KindWebDAV,
		WebDAV: &storage.WebDAVConfig{URL: deadServerURL(t), Enabled: true},
	})
	ctx := context.Background()

	// Break the fallback too. The replayed attempt is now the one whose
	// error the caller sees.
	require.NoError(t, m.Fallback().Close())

	err := m.SaveWorkspace(ctx, &models.Workspace{ID: "ws1", Name: "Notes"})
	require.Error(t, err)
	var opErr *storage.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, storage.KindKV, opErr.Provider)

	_, err = m.GetWorkspace(ctx, "ws1")
	require.Error(t, err)
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, storage.KindKV, opErr.Provider)
}

func TestMigrateCrossKindPreservesEntities(t *testing.T) {
	dir := t.TempDir()
	m := newManager(t, storage.Config{
		Type: storage.KindLocal,
		Path: filepath.Join(dir, "notes"),
	})
	ctx := context.Background()

	require.NoError(t, m.SaveWorkspace(ctx, &models.Workspace{
		ID:    "ws1",
		Name:  "Notes",
		Pages: []*models.Page{{ID: "p1", Title: "One"}},
	}))
	require.NoError(t, m.SavePage(ctx, &models.Page{ID: "p1", Title: "One", Content: "body"}))
	require.NoError(t, m.SavePage(ctx, &models.Page{ID: "p2", Title: "Two"}))

	require.NoError(t, m.Migrate(ctx, storage.Config{Type: storage.KindKV}))
	assert.Equal(t, storage.KindKV, m.Active())

	ws, err := m.GetWorkspace(ctx, "ws1")
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "Notes", ws.Name)

	for _, id := range []string{"p1", "p2"} {
		page, err := m.GetPage(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, page, "page %s lost in migration", id)
	}
}

func TestMigrateSameKindPipesExport(t *testing.T) {
	base := t.TempDir()
	m := newManager(t, storage.Config{
		Type: storage.KindLocal,
		Path: filepath.Join(base, "old"),
	})
	ctx := context.Background()

	require.NoError(t, m.SaveWorkspace(ctx, &models.Workspace{ID: "ws1", Name: "Notes"}))
	require.NoError(t, m.SavePage(ctx, &models.Page{ID: "p1", Title: "One"}))

	target := storage.Config{Type: storage.KindLocal, Path: filepath.Join(base, "new")}
	require.NoError(t, m.Migrate(ctx, target))
	assert.Equal(t, storage.KindLocal, m.Active())
	assert.Equal(t, target.Path, m.Config().Path)

	ws, err := m.GetWorkspace(ctx, "ws1")
	require.NoError(t, err)
	require.NotNil(t, ws)

	page, err := m.GetPage(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, page)
}

func TestMigrateUnavailableTarget(t *testing.T) {
	m := newManager(t, storage.Config{Type: storage.KindKV})
	ctx := context.Background()

	require.NoError(t, m.SaveWorkspace(ctx, &models.Workspace{ID: "ws1", Name: "Notes"}))

	err := m.Migrate(ctx, storage.Config{
		Type:   storage.KindWebDAV,
		WebDAV: &storage.WebDAVConfig{URL: deadServerURL(t), Enabled: true},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrTargetUnavailable))

	// Nothing changed.
	assert.Equal(t, storage.KindKV, m.Active())
	ws, err := m.GetWorkspace(ctx, "ws1")
	require.NoError(t, err)
	require.NotNil(t, ws)
}

func TestMigrateFailsWhenSourceExportFails(t *testing.T) {
	m := newManager(t, storage.Config{
		Type:   storage.KindWebDAV,
		WebDAV: &storage.WebDAVConfig{URL: deadServerURL(t), Enabled: true},
	})
	ctx := context.Background()

	// Data lands in the fallback because the remote is dead.
	require.NoError(t, m.SaveWorkspace(ctx, &models.Workspace{ID: "ws1", Name: "Notes"}))

	// Migration must refuse a source it cannot export from, not carry
	// over an empty snapshot taken from somewhere else.
	err := m.Migrate(ctx, storage.Config{Type: storage.KindKV})
	require.Error(t, err)
	assert.Equal(t, storage.KindWebDAV, m.Active())

	ws, err := m.GetWorkspace(ctx, "ws1")
	require.NoError(t, err)
	require.NotNil(t, ws)
}

func TestSyncSkippedWhenFallbackActive(t *testing.T) {
	m := newManager(t, storage.Config{Type: storage.KindKV})
	result := m.Sync(context.Background())
	assert.Equal(t, manager.SyncSkipped, result.Status)
}

func TestSyncCopiesIntoFallback(t *testing.T) {
	m := newManager(t, storage.Config{
		Type: storage.KindLocal,
		Path: filepath.Join(t.TempDir(), "notes"),
	})
	ctx := context.Background()

	require.NoError(t, m.SaveWorkspace(ctx, &models.Workspace{ID: "ws1", Name: "Notes"}))
	require.NoError(t, m.SavePage(ctx, &models.Page{ID: "p1", Title: "One"}))

	result := m.Sync(ctx)
	require.Equal(t, manager.SyncCompleted, result.Status)
	assert.Equal(t, 1, result.Workspaces)
	assert.Equal(t, 1, result.Pages)

	ws, err := m.Fallback().GetWorkspace(ctx, "ws1")
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "Notes", ws.Name)
}

func TestUpdateConfigSwapsProvider(t *testing.T) {
	m := newManager(t, storage.Config{Type: storage.KindKV})

	target := storage.Config{Type: storage.KindLocal, Path: filepath.Join(t.TempDir(), "notes")}
	require.NoError(t, m.UpdateConfig(target))
	assert.Equal(t, storage.KindLocal, m.Active())

	require.Error(t, m.UpdateConfig(storage.Config{Type: "cloud"}))
	assert.Equal(t, storage.KindLocal, m.Active())
}
