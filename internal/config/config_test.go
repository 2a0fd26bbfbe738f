package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) Paths {
	t.Helper()

	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	return Paths{
		ConfigFile: filepath.Join(dir, "config.yaml"),
		DataDir:    data,
		Database:   filepath.Join(data, "notes.db"),
		JournalDir: filepath.Join(data, "journal"),
		BackupDir:  filepath.Join(data, "backups"),
	}
}

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	paths := testPaths(t)

	cfg, err := Load(paths)
	require.NoError(t, err)

	// The default file now exists and round-trips to the same config
	if _, err := os.Stat(paths.ConfigFile); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	again, err := Load(paths)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	assert.Equal(t, 30, cfg.Storage.RetentionDays)
	assert.Equal(t, 0.4, cfg.Search.FuzzyThreshold)
	assert.Equal(t, 800, cfg.Autosave.DebounceMS)
	assert.Equal(t, 168, cfg.Autosave.SnapshotRetentionHours)
	assert.True(t, cfg.Storage.BackupOnExit)
}

func TestLoad_ResolvesEmptyPaths(t *testing.T) {
	paths := testPaths(t)

	cfg, err := Load(paths)
	require.NoError(t, err)

	assert.Equal(t, paths.Database, cfg.Storage.Path)
	assert.Equal(t, paths.JournalDir, cfg.Autosave.JournalDir)
	assert.Equal(t, paths.BackupDir, cfg.Storage.BackupDir)
}

func TestLoad_UserFileOverrides(t *testing.T) {
	paths := testPaths(t)

	content := `
storage:
  path: /tmp/custom.db
  retention_days: 7
search:
  fuzzy_threshold: 0.8
autosave:
  debounce_ms: 250
`
	require.NoError(t, os.WriteFile(paths.ConfigFile, []byte(content), 0o644))

	cfg, err := Load(paths)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Storage.Path)
	assert.Equal(t, 7, cfg.Storage.RetentionDays)
	assert.Equal(t, 0.8, cfg.Search.FuzzyThreshold)
	assert.Equal(t, 250, cfg.Autosave.DebounceMS)
	// Unset fields keep resolved defaults
	assert.Equal(t, paths.JournalDir, cfg.Autosave.JournalDir)
}

func TestLoad_ClampsOutOfRangeValues(t *testing.T) {
	paths := testPaths(t)

	content := `
storage:
  retention_days: -5
search:
  fuzzy_threshold: 3.0
  result_limit: -1
autosave:
  debounce_ms: -100
`
	require.NoError(t, os.WriteFile(paths.ConfigFile, []byte(content), 0o644))

	cfg, err := Load(paths)
	require.NoError(t, err)

	// Hand-edited nonsense clamps instead of failing startup
	assert.Equal(t, 0, cfg.Storage.RetentionDays)
	assert.Equal(t, 1.0, cfg.Search.FuzzyThreshold)
	assert.Equal(t, 20, cfg.Search.ResultLimit)
	assert.Equal(t, 0, cfg.Autosave.DebounceMS)
}

func TestLoad_MalformedFile(t *testing.T) {
	paths := testPaths(t)

	require.NoError(t, os.WriteFile(paths.ConfigFile, []byte("storage: [not a map"), 0o644))

	_, err := Load(paths)
	assert.Error(t, err)
}

func TestResolve_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INKWELL_CONFIG", filepath.Join(dir, "my.yaml"))
	t.Setenv("INKWELL_DATA", filepath.Join(dir, "mydata"))

	paths, err := Resolve()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "my.yaml"), paths.ConfigFile)
	assert.Equal(t, filepath.Join(dir, "mydata"), paths.DataDir)
	assert.Equal(t, filepath.Join(dir, "mydata", "notes.db"), paths.Database)
	assert.Equal(t, filepath.Join(dir, "mydata", "journal"), paths.JournalDir)
}
