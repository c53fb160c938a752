package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://localhost/outreach?sslmode=disable"
  enabled: true

redis:
  addr: "localhost:6379"
  ttl_hours: 6
  enabled: true

export:
  output_dir: "./out"
  s3_bucket: "outreach-exports"
  s3_region: "us-west-2"

snowflake:
  account: "acme-xy12345"
  user: "loader"
  database: "OUTREACH"
  table: "CONTACTS"
  enabled: true

pipeline:
  data_dir: "./testdata"
  contacts_path: "./testdata/contacts.csv"

logging:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://localhost/outreach?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 6, cfg.Redis.TTLHours)
	assert.Equal(t, "./out", cfg.Export.OutputDir)
	assert.Equal(t, "outreach-exports", cfg.Export.S3Bucket)
	assert.Equal(t, "acme-xy12345", cfg.Snowflake.Account)
	assert.Equal(t, "CONTACTS", cfg.Snowflake.Table)
	assert.Equal(t, "./testdata", cfg.Pipeline.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.RedactEnabled())
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 24, cfg.Redis.TTLHours)
	assert.Equal(t, "data/processed_files", cfg.Export.OutputDir)
	assert.Equal(t, "data/contacts.csv", cfg.Pipeline.ContactsPath)
	assert.Equal(t, "CONTACT_DIRECTORY", cfg.Snowflake.Table)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 8080\n"), 0644))

	t.Setenv("DATABASE_URL", "postgres://ecs-host/outreach")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres://ecs-host/outreach", cfg.Database.URL)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
