package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 20, cfg.Builder.HistoryLimit)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.JWT.Enabled)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(`
server:
  port: 9000
database:
  driver: sqlite
  path: /tmp/forms.db
builder:
  history_limit: 5
cors:
  allowed_origins: ["app.example.com"]
`), 0o644))
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/forms.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Builder.HistoryLimit)
	assert.Equal(t, []string{"app.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "mysql"}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Database: DatabaseConfig{Driver: "sqlite"}, JWT: JWTConfig{Enabled: true}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Database: DatabaseConfig{Driver: "sqlite"}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Builder.HistoryLimit)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "forms", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=forms sslmode=disable", d.DSN())
}
