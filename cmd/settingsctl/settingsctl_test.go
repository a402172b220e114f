package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "settings", cfg.Store.Name)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settingsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: Postgres\n  dsn: postgres://file\ncache:\n  ttl: 5m\n"), 0o644))
	t.Setenv("SETTINGS_STORAGE_DSN", "postgres://env")
	t.Setenv("SETTINGS_STORE_NAME", "site")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://env", cfg.Storage.DSN)
	assert.Equal(t, "site", cfg.Store.Name)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCLIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SETTINGS_STORAGE_DRIVER", "sqlite")
	t.Setenv("SETTINGS_STORAGE_DSN", filepath.Join(dir, "settings.db"))
	t.Setenv("SETTINGS_LOG_LEVEL", "error")
	t.Chdir(dir)

	_, err := runCLI(t, "set", "mail.host", "smtp.local")
	require.NoError(t, err)
	_, err = runCLI(t, "set", "mail.port", "587", "--validate", "int")
	require.NoError(t, err)
	_, err = runCLI(t, "set", "theme.color", "red", "--validate", "hex_color")
	require.Error(t, err)

	out, err := runCLI(t, "get", "mail")
	require.NoError(t, err)
	assert.Contains(t, out, `"host": "smtp.local"`)
	assert.Contains(t, out, `"port": 587`)

	out, err = runCLI(t, "has", "theme.color")
	require.NoError(t, err)
	assert.Equal(t, "false", strings.TrimSpace(out))

	out, err = runCLI(t, "backup", "nightly")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "nightly\t"))

	_, err = runCLI(t, "remove", "mail.host")
	require.NoError(t, err)
	_, err = runCLI(t, "restore", "nightly")
	require.NoError(t, err)

	out, err = runCLI(t, "get", "mail.host", "--default", `"none"`)
	require.NoError(t, err)
	assert.Equal(t, `"smtp.local"`, strings.TrimSpace(out))

	exported := filepath.Join(dir, "export.yaml")
	_, err = runCLI(t, "export", "mail", "--format", "yaml", "-o", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "group: mail")

	out, err = runCLI(t, "describe")
	require.NoError(t, err)
	assert.Contains(t, out, "mail.port\tfloat")
}

func TestCLIRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SETTINGS_STORAGE_DRIVER", "etcd")

	_, err := runCLI(t, "has", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
