package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
taxonomy:
  source_location: https://example.com/taxonomy.tsv
database:
  url: postgres://localhost/content_signals
redis:
  addr: localhost:6380
  cache_ttl_hours: 12
classifier:
  base_url: https://classify.example.com
  dry_run: true
export:
  s3_enabled: true
  s3_bucket: my-exports
feeds:
  urls:
    - https://example.com/feed.xml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://example.com/taxonomy.tsv", cfg.Taxonomy.SourceLocation)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 12, cfg.Redis.CacheTTLHours)
	assert.True(t, cfg.Classifier.DryRun)
	assert.True(t, cfg.Export.S3Enabled)
	assert.Equal(t, []string{"https://example.com/feed.xml"}, cfg.Feeds.URLs)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "us-east-1", cfg.Export.S3Region)
	assert.Equal(t, "exports", cfg.Export.S3Prefix)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("CLASSIFIER_API_KEY", "secret-key")
	t.Setenv("CLASSIFIER_DRY_RUN", "true")
	t.Setenv("EXPORT_S3_BUCKET", "env-bucket")
	t.Setenv("FEED_URLS", "https://a.com/feed, https://b.com/feed ,")

	cfg, err := LoadFromEnv(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "secret-key", cfg.Classifier.APIKey)
	assert.True(t, cfg.Classifier.DryRun)
	assert.Equal(t, "env-bucket", cfg.Export.S3Bucket)
	assert.True(t, cfg.Export.S3Enabled, "a bucket override enables archiving")
	assert.Equal(t, []string{"https://a.com/feed", "https://b.com/feed"}, cfg.Feeds.URLs)
}
