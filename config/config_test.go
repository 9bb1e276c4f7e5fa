package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DRAMA_CONFIG", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, time.Second, cfg.Task.PollInterval)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
app:
  name: test-app
server:
  port: ":9000"
  read_timeout: 5s
database:
  type: sqlite
  path: /tmp/a.db
task:
  poll_interval: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("DRAMA_CONFIG", "")
	t.Setenv("PORT", "7000")
	t.Setenv("DRAMA_DB_PATH", "/tmp/b.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, ":7000", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/tmp/b.db", cfg.Database.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Task.PollInterval)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, "1.0.0", cfg.App.Version)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Type = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Type = "mysql"
	assert.Error(t, cfg.Validate())
	cfg.Database.DSN = "root@tcp(localhost:3306)/drama"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Type = "minio"
	assert.Error(t, cfg.Validate())
}
