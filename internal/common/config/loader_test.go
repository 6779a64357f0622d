package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
catalog:
  source: file
  source_path: data/providers.csv
workers:
  match-providers:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "coach-matching", cfg.App.Name)
	assert.Equal(t, CatalogSourceFile, cfg.Catalog.Source)
	assert.Equal(t, "providers", cfg.Catalog.Table)
	assert.Equal(t, "catalog:providers", cfg.Catalog.RedisKey)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)

	w := cfg.Workers["match-providers"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_CATALOG_FILE", "/srv/catalog.csv")
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
catalog:
  source_path: ${TEST_CATALOG_FILE}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/catalog.csv", cfg.Catalog.SourcePath)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "catalog:\n  source_path: x.csv\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "file source without path",
			body:    "camunda:\n  broker_address: b:1\n",
			wantErr: "catalog.source_path",
		},
		{
			name:    "postgres source without host",
			body:    "camunda:\n  broker_address: b:1\ncatalog:\n  source: postgres\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "sftp source without host",
			body:    "camunda:\n  broker_address: b:1\ncatalog:\n  source: sftp\n  source_path: /in/p.csv\n",
			wantErr: "sftp.host",
		},
		{
			name:    "http source without url",
			body:    "camunda:\n  broker_address: b:1\ncatalog:\n  source: http\n  source_path: data/providers.csv\n",
			wantErr: "http(s) URL",
		},
		{
			name:    "unknown source",
			body:    "camunda:\n  broker_address: b:1\ncatalog:\n  source: s3\n",
			wantErr: "not one of",
		},
		{
			name:    "redis cache without address",
			body:    "camunda:\n  broker_address: b:1\ncatalog:\n  source_path: x.csv\n  redis_cache_enabled: true\n",
			wantErr: "database.redis.address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, 30*time.Second, CatalogConfig{CacheTTLSeconds: 30}.CacheTTL())
	assert.Equal(t, "sftp.example.com:2222", SFTPConfig{Host: "sftp.example.com", Port: 2222}.Addr())

	cfg := &Config{Workers: map[string]WorkerConfig{"refresh-provider-catalog": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "refresh-provider-catalog"))
	assert.True(t, IsWorkerEnabled(cfg, "match-providers"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "match-providers").MaxJobsActive)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "coaching", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=coaching sslmode=disable", p.GetDSN())
}
