package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromFile_ReadsValues(t *testing.T) {
	path := writeEnvFile(t, `APP_PORT=9090
APP_ENV=test
APP_STORE=memory
APP_REQUEST_TIMEOUT=3s
DB_HOST=db.local
DB_AUTO_MIGRATE=true
REDIS_DB=2
JWT_SECRET=secret
JWT_ACCESS_EXPIRY=30m
STORAGE_TYPE=s3
AWS_S3_BUCKET=uploads
KAFKA_BROKERS=k1:9092, k2:9092 ,
`)

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "memory", cfg.App.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.App.RequestTimeout)
	assert.Equal(t, "db.local", cfg.DB.Host)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "schedule:updated", cfg.Redis.Channel)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "uploads", cfg.Storage.S3Bucket)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfigFromFile_Defaults(t *testing.T) {
	path := writeEnvFile(t, "JWT_SECRET=x\n")

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.App.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadConfigFromFile_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "7070")

	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.App.Port)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestLoadConfigFromFile_Malformed(t *testing.T) {
	_, err := LoadConfigFromFile(t.TempDir())
	assert.Error(t, err, "a directory is not an env file")
}

func TestAppConfig_Location(t *testing.T) {
	loc, err := AppConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = AppConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
