package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/address"
	"timetracker/internal/blob"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DriverFile, cfg.StorageDriver)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.SelfCheck)

	ref, err := cfg.WorkspaceRef()
	require.NoError(t, err)
	assert.Equal(t, DriverFile, ref.Type)
	assert.Equal(t, "workspace.xml", filepath.Base(ref.Location))
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TT_STORAGE_DRIVER":     "SQLite",
		"TT_STORAGE_LOCATION":   "/var/lib/tt/ws.db",
		"TT_LOG_LEVEL":          "DEBUG",
		"TT_SELF_CHECK":         "true",
		"TT_BLOB_DRIVER":        "s3",
		"TT_BLOB_S3_BUCKET":     "ws",
		"TT_BLOB_S3_PATH_STYLE": "TRUE",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.SelfCheck)
	assert.Equal(t, blob.DriverS3, cfg.Blob.Driver)
	assert.True(t, cfg.Blob.S3.PathStyle)
	ref, err := cfg.WorkspaceRef()
	require.NoError(t, err)
	assert.Equal(t, address.Ref{Type: DriverSQLite, Location: "/var/lib/tt/ws.db"}, ref)
}

func TestWorkspaceFormWins(t *testing.T) {
	form := address.Encode(address.Ref{Type: DriverMemory, Location: "scratch"})
	cfg, err := FromEnv(envMap(map[string]string{"TT_WORKSPACE": form, "TT_STORAGE_DRIVER": "badger"}))
	require.NoError(t, err)
	ref, err := cfg.WorkspaceRef()
	require.NoError(t, err)
	assert.Equal(t, address.Ref{Type: DriverMemory, Location: "scratch"}, ref)

	// The form is tab separated; only line endings and spaces are trimmed.
	unnamed := address.Encode(address.Ref{Type: DriverMemory})
	cfg, err = FromEnv(envMap(map[string]string{"TT_WORKSPACE": form + "\r\n"}))
	require.NoError(t, err)
	assert.Equal(t, form, cfg.Workspace)
	cfg, err = FromEnv(envMap(map[string]string{"TT_WORKSPACE": unnamed}))
	require.NoError(t, err)
	assert.Equal(t, unnamed, cfg.Workspace)

	cfg.Workspace = "garbage"
	_, err = cfg.WorkspaceRef()
	require.Error(t, err)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"driver":     {"TT_STORAGE_DRIVER": "floppy"},
		"log level":  {"TT_LOG_LEVEL": "chatty"},
		"self check": {"TT_SELF_CHECK": "sometimes"},
		"s3 bucket":  {"TT_BLOB_DRIVER": "s3"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envMap(env))
			require.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tt.env")
	require.NoError(t, os.WriteFile(file, []byte("TT_STORAGE_DRIVER=badger\nTT_STORAGE_LOCATION="+dir+"\n"), 0o600))
	t.Setenv("TT_STORAGE_DRIVER", "")
	t.Setenv("TT_STORAGE_LOCATION", "")
	require.NoError(t, os.Unsetenv("TT_STORAGE_DRIVER"))
	require.NoError(t, os.Unsetenv("TT_STORAGE_LOCATION"))

	cfg, err := Load(filepath.Join(dir, "missing.env"), file)
	require.NoError(t, err)
	assert.Equal(t, DriverBadger, cfg.StorageDriver)
	assert.Equal(t, dir, cfg.StorageLocation)
}
