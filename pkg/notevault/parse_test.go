package notevault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/pkg/notevault"
	"github.com/notevault/notevault/pkg/storage"
)

func TestParseRun(t *testing.T) {
	cmd, cfg, err := notevault.Parse([]string{"run"})
	require.NoError(t, err)
	assert.IsType(t, &notevault.RunCommand{}, cmd)
	assert.Equal(t, "run", cmd.Name())
	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestParsePortFlag(t *testing.T) {
	_, cfg, err := notevault.Parse([]string{"-port", "9191", "run"})
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.ServerPort)
}

func TestParseMigrateLocal(t *testing.T) {
	cmd, _, err := notevault.Parse([]string{"-target-type", "local", "-target-path", "/tmp/notes", "migrate"})
	require.NoError(t, err)
	migrate, ok := cmd.(*notevault.MigrateCommand)
	require.True(t, ok)
	assert.Equal(t, storage.KindLocal, migrate.Target.Type)
	assert.Equal(t, "/tmp/notes", migrate.Target.Path)
}

func TestParseMigrateWebDAV(t *testing.T) {
	cmd, _, err := notevault.Parse([]string{
		"-target-type", "webdav",
		"-target-url", "https://dav.example.com/notes",
		"-target-user", "alice",
		"migrate",
	})
	require.NoError(t, err)
	migrate := cmd.(*notevault.MigrateCommand)
	require.NotNil(t, migrate.Target.WebDAV)
	assert.Equal(t, "https://dav.example.com/notes", migrate.Target.WebDAV.URL)
	assert.True(t, migrate.Target.WebDAV.Enabled)
}

func TestParseMigrateInvalidTarget(t *testing.T) {
	_, _, err := notevault.Parse([]string{"-target-type", "local", "migrate"})
	assert.Error(t, err)

	_, _, err = notevault.Parse([]string{"-target-type", "cloud", "migrate"})
	assert.Error(t, err)
}

func TestParseSyncAndExport(t *testing.T) {
	cmd, _, err := notevault.Parse([]string{"sync"})
	require.NoError(t, err)
	assert.Equal(t, "sync", cmd.Name())

	cmd, _, err = notevault.Parse([]string{"-out", "notes.json", "export"})
	require.NoError(t, err)
	export := cmd.(*notevault.ExportCommand)
	assert.Equal(t, "notes.json", export.Output)
}

func TestParseImportRequiresInput(t *testing.T) {
	_, _, err := notevault.Parse([]string{"import"})
	assert.Error(t, err)

	cmd, _, err := notevault.Parse([]string{"-in", "notes.json", "import"})
	require.NoError(t, err)
	assert.Equal(t, "notes.json", cmd.(*notevault.ImportCommand).Input)
}

func TestParseErrors(t *testing.T) {
	_, _, err := notevault.Parse([]string{})
	assert.Error(t, err)

	_, _, err = notevault.Parse([]string{"dance"})
	assert.Error(t, err)
}
