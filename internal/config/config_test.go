package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cf, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "8080", cf.ServerPort)
	require.Equal(t, DriverPostgres, cf.DbDriver)
	require.Equal(t, 5*time.Minute, cf.ProductCacheTTL)
	require.Equal(t, 3, cf.StockMaxRetries)
	require.Empty(t, cf.RedisAddr)
	require.Empty(t, cf.KafkaBrokers)
	require.Equal(t, time.Second, cf.RateLimitRefillRate)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.env")
	content := "SERVER_PORT=9090\nDB_DRIVER=memory\nKAFKA_BROKERS=k1:9092,k2:9092\nPRODUCT_CACHE_TTL=30s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("STOCK_MAX_RETRIES", "7")
	t.Setenv("SERVER_PORT", "7070")

	cf, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cf.ServerPort)
	require.Equal(t, DriverMemory, cf.DbDriver)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cf.KafkaBrokers)
	require.Equal(t, 30*time.Second, cf.ProductCacheTTL)
	require.Equal(t, 7, cf.StockMaxRetries)
}

func TestLoadConfig_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	cf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cf.DbDriver)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	_, err := LoadConfig("")
	require.Error(t, err)
}
