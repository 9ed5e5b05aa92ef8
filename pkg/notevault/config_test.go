package notevault_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/pkg/notevault"
	"github.com/notevault/notevault/pkg/storage"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := notevault.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, storage.KindKV, cfg.Storage.Type)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notevault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
logLevel: debug
storage:
  type: local
  local_path: /tmp/notes
`), 0o644))

	cfg, err := notevault.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, storage.KindLocal, cfg.Storage.Type)
	assert.Equal(t, "/tmp/notes", cfg.Storage.Path)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notevault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
storage:
  type: kv
`), 0o644))

	t.Setenv("NOTEVAULT_PORT", "7070")
	t.Setenv("NOTEVAULT_STORAGE_TYPE", "webdav")
	t.Setenv("NOTEVAULT_WEBDAV_URL", "https://dav.example.com/notes")
	t.Setenv("NOTEVAULT_WEBDAV_USERNAME", "alice")

	cfg, err := notevault.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, storage.KindWebDAV, cfg.Storage.Type)
	require.NotNil(t, cfg.Storage.WebDAV)
	assert.Equal(t, "https://dav.example.com/notes", cfg.Storage.WebDAV.URL)
	assert.Equal(t, "alice", cfg.Storage.WebDAV.Username)
	assert.True(t, cfg.Storage.WebDAV.Enabled)
}

func TestLoadConfigInvalidStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notevault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  type: local
`), 0o644))

	_, err := notevault.LoadConfig(path)
	require.Error(t, err)
	var configErr *storage.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := notevault.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
