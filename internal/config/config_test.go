package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "GIN_MODE", "AUTH_TOKEN", "CORS_ORIGINS", "SHUTDOWN_TIMEOUT",
		"STORAGE_DRIVER", "DATA_DIR", "STORAGE_DSN", "STORAGE_WATCH", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "json", cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8081"
  shutdown_timeout: 2s
storage:
  driver: sqlite
  data_dir: /tmp/db
log:
  level: debug
`), 0o644))
	t.Setenv("PORT", ":9090")
	t.Setenv("CORS_ORIGINS", "http://a, http://b")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join("/tmp/db", "topics.db"), cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUTH_TOKEN=from-dotenv\n"), 0o644))
	// godotenv не перезаписывает уже заданные переменные, поэтому убираем пустое значение
	require.NoError(t, os.Unsetenv("AUTH_TOKEN"))
	t.Cleanup(func() { _ = os.Unsetenv("AUTH_TOKEN") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Server.AuthToken)
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad port":          func(c *Config) { c.Server.Port = "http" },
		"empty port":        func(c *Config) { c.Server.Port = "" },
		"unknown driver":    func(c *Config) { c.Storage.Driver = "mongo" },
		"bad gin mode":      func(c *Config) { c.Server.GinMode = "loud" },
		"postgres no dsn":   func(c *Config) { c.Storage.Driver = "postgres" },
		"watch with sqlite": func(c *Config) { c.Storage.Driver = "sqlite"; c.Storage.Watch = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInvalidBoolEnv(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_WATCH", "maybe")
	_, err := Load("")
	assert.Error(t, err)
}
