package storage_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/pkg/models"
	"github.com/notevault/notevault/pkg/storage"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  storage.Config
		wantErr bool
	}{
		{name: "kv needs nothing", config: storage.Config{Type: storage.KindKV}},
		{name: "local with path", config: storage.Config{Type: storage.KindLocal, Path: "/tmp/notes"}},
		{name: "local without path", config: storage.Config{Type: storage.KindLocal}, wantErr: true},
		{name: "webdav with url", config: storage.Config{
			Type:   storage.KindWebDAV,
			WebDAV: &storage.WebDAVConfig{URL: "https://dav.example.com", Enabled: true},
		}},
		{name: "webdav without config", config: storage.Config{Type: storage.KindWebDAV}, wantErr: true},
		{name: "webdav without url", config: storage.Config{
			Type:   storage.KindWebDAV,
			WebDAV: &storage.WebDAVConfig{Enabled: true},
		}, wantErr: true},
		{name: "unknown type", config: storage.Config{Type: "cloud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				var configErr *storage.ConfigError
				require.Error(t, err)
				assert.True(t, errors.As(err, &configErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWrapOp(t *testing.T) {
	cause := errors.New("connection refused")
	err := storage.WrapOp(storage.KindWebDAV, "save workspace", cause)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "webdav")
	assert.Contains(t, err.Error(), "save workspace")
	assert.True(t, errors.Is(err, cause))

	var opErr *storage.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, storage.KindWebDAV, opErr.Provider)

	assert.NoError(t, storage.WrapOp(storage.KindKV, "get page", nil))
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "workspace_ws1", storage.WorkspaceKey("ws1"))
	assert.Equal(t, "page_p1", storage.PageKey("p1"))
}

func TestDecodeExportFlat(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	flat := map[string]any{
		"workspace_ws1": models.Workspace{ID: "ws1", Name: "Notes"},
		"page_p1":       models.Page{ID: "p1", Title: "One", CreatedAt: now, UpdatedAt: now},
		"settings":      map[string]string{"theme": "dark"},
	}
	data, err := json.Marshal(flat)
	require.NoError(t, err)

	for _, kind := range []storage.Kind{storage.KindKV, storage.KindWebDAV} {
		snap, err := storage.DecodeExport(kind, data)
		require.NoError(t, err)
		require.Len(t, snap.Workspaces, 1)
		require.Len(t, snap.Pages, 1)
		assert.Equal(t, "ws1", snap.Workspaces[0].ID)
		assert.Equal(t, "One", snap.Pages[0].Title)
		assert.True(t, snap.Pages[0].CreatedAt.Equal(now))
	}
}

func TestDecodeExportEnvelope(t *testing.T) {
	envelope := storage.Snapshot{
		Workspaces: []*models.Workspace{{ID: "ws1", Name: "Notes"}},
		Pages:      []*models.Page{{ID: "p1", Title: "One"}},
		ExportDate: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	snap, err := storage.DecodeExport(storage.KindLocal, data)
	require.NoError(t, err)
	require.Len(t, snap.Workspaces, 1)
	require.Len(t, snap.Pages, 1)
	assert.Equal(t, "Notes", snap.Workspaces[0].Name)
}

func TestDecodeExportErrors(t *testing.T) {
	_, err := storage.DecodeExport(storage.KindKV, []byte("not json"))
	assert.Error(t, err)

	_, err = storage.DecodeExport("cloud", []byte("{}"))
	assert.Error(t, err)
}
