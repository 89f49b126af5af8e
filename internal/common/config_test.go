package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "./data/history", config.Storage.Badger.Path)
	assert.Equal(t, "./data/history.db", config.Storage.Bolt.Path)
	assert.Equal(t, 20, config.History.Capacity)
	assert.Equal(t, int64(100<<20), config.Viewer.MaxFileSize)
	assert.Equal(t, 2.0, config.Viewer.TargetSize)
	assert.Equal(t, 1.25, config.Viewer.Margin)
	assert.Equal(t, 45.0, config.Viewer.FOV)
	assert.Equal(t, 96, config.Thumbnail.Size)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, []string{"stdout"}, config.Logging.Output)
}

func TestLoadFromFilesMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	content := `
[history]
capacity = 5

[viewer]
fov = 60.0

[logging]
level = "debug"
output = ["stdout", "file"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 5, config.History.Capacity)
	assert.Equal(t, 60.0, config.Viewer.FOV)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)

	// Untouched sections keep their defaults.
	assert.Equal(t, "./data/history", config.Storage.Badger.Path)
	assert.Equal(t, 2.0, config.Viewer.TargetSize)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	local := filepath.Join(dir, "local.toml")
	require.NoError(t, os.WriteFile(base, []byte("[history]\ncapacity = 5\n"), 0644))
	require.NoError(t, os.WriteFile(local, []byte("[history]\ncapacity = 7\n"), 0644))

	config, err := LoadFromFiles(base, local)
	require.NoError(t, err)
	assert.Equal(t, 7, config.History.Capacity)
}

func TestLoadFromFilesSkipsMissing(t *testing.T) {
	config, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, 20, config.History.Capacity)
}

func TestLoadFromFilesRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("history = {"), 0644))

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PRISM_BADGER_PATH", "/var/lib/prism/badger")
	t.Setenv("PRISM_BOLT_PATH", "/var/lib/prism/history.db")
	t.Setenv("PRISM_HISTORY_CAPACITY", "50")
	t.Setenv("PRISM_MAX_FILE_SIZE", "1048576")
	t.Setenv("PRISM_LOG_LEVEL", "warn")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/prism/badger", config.Storage.Badger.Path)
	assert.Equal(t, "/var/lib/prism/history.db", config.Storage.Bolt.Path)
	assert.Equal(t, 50, config.History.Capacity)
	assert.Equal(t, int64(1048576), config.Viewer.MaxFileSize)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestEnvOverridesIgnoreInvalidNumbers(t *testing.T) {
	t.Setenv("PRISM_HISTORY_CAPACITY", "not-a-number")
	t.Setenv("PRISM_MAX_FILE_SIZE", "-1")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, 20, config.History.Capacity)
	assert.Equal(t, int64(100<<20), config.Viewer.MaxFileSize)
}
