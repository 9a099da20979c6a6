package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcash-app/tcash/internal/storage"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Auth.URL = "https://abcdefgh.supabase.co"
	cfg.Auth.AnonKey = "anon"
	cfg.Storage.Driver = storage.DriverSQLite
	cfg.API.Timeout = 5 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "tcash.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Auth.AutoRefresh)
	assert.True(t, cfg.Auth.PersistSession)
	assert.Empty(t, cfg.Auth.URL)
	assert.Empty(t, cfg.Auth.AnonKey)
	assert.Equal(t, storage.DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tcash.yaml")
	contents := "auth:\n  url: https://abcdefgh.supabase.co\n  anon_key: anon\napi:\n  timeout: 3s\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "anon", cfg.Auth.AnonKey)
	assert.True(t, cfg.Auth.PersistSession)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yaml")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tcash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := LoadOrDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tcash.yaml")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_url: https://tcash-api.onrender.com/api")
	assert.Contains(t, contents, "timeout: 15s")
	assert.Contains(t, contents, "persist_session: true")
	assert.Contains(t, contents, "driver: file")
	assert.NotContains(t, contents, "path:")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(env(map[string]string{
		EnvAPIURL:   "http://localhost:3000/api",
		EnvAuthURL:  "https://abcdefgh.supabase.co",
		EnvAnonKey:  "anon",
		EnvLogLevel: "debug",
	}))

	assert.Equal(t, "http://localhost:3000/api", cfg.API.BaseURL)
	assert.Equal(t, "https://abcdefgh.supabase.co", cfg.Auth.URL)
	assert.Equal(t, "anon", cfg.Auth.AnonKey)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Empty values do not clear the file's settings.
	cfg.ApplyEnv(env(map[string]string{EnvAnonKey: ""}))
	assert.Equal(t, "anon", cfg.Auth.AnonKey)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "api.base_url")
	assert.Contains(t, err.Error(), "auth.url")
	assert.Contains(t, err.Error(), "auth.anon_key")

	cfg.API.BaseURL = DefaultAPIBaseURL
	cfg.Auth.URL = "https://abcdefgh.supabase.co"
	cfg.Auth.AnonKey = "anon"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Driver = "redis"
	err = cfg.Validate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingSetting)
}

func TestStorageSelection(t *testing.T) {
	cfg := Default()
	configPath := filepath.Join("/home/juan/.config/tcash", "tcash.yaml")

	assert.Equal(t, storage.DriverFile, cfg.StorageDriver())
	assert.Equal(t, filepath.Join("/home/juan/.config/tcash", "session.json"), cfg.StoragePath(configPath))

	cfg.Storage.Driver = storage.DriverSQLite
	assert.Equal(t, filepath.Join("/home/juan/.config/tcash", "session.db"), cfg.StoragePath(configPath))

	cfg.Storage.Path = "/tmp/custom.db"
	assert.Equal(t, "/tmp/custom.db", cfg.StoragePath(configPath))

	cfg.Auth.PersistSession = false
	assert.Equal(t, storage.DriverMemory, cfg.StorageDriver())
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "tcash", "tcash.yaml"), path)
}
