package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("OWNER_PASSWORD", "")

	cfg := Load()
	assert.Empty(t, cfg.AuthSecret)
	assert.Empty(t, cfg.OwnerPassword)
	assert.Equal(t, "owner", cfg.OwnerUsername)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "DATABASE_URL", "MONGO_URI", "TAX_RATE", "DASHBOARD_CACHE_TTL_SECONDS", "STOCK_ALERT_INTERVAL_MINUTES", "TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.InDelta(t, 0.10, cfg.TaxRate, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.DashboardCacheTTL())
	assert.Equal(t, time.Hour, cfg.StockAlertInterval())
	assert.Equal(t, "stockbook", cfg.MongoDatabase)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestBackendFollowsConnectionStrings(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	assert.Equal(t, BackendMongo, Load().StoreBackend)

	t.Setenv("DATABASE_URL", "postgres://localhost/stockbook")
	assert.Equal(t, BackendPostgres, Load().StoreBackend)

	t.Setenv("STORE_BACKEND", "memory")
	assert.Equal(t, BackendMemory, Load().StoreBackend)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("TAX_RATE", "-1")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "zero")
	t.Setenv("STOCK_ALERT_INTERVAL_MINUTES", "0")

	cfg := Load()
	assert.InDelta(t, 0.10, cfg.TaxRate, 1e-9)
	assert.Equal(t, 30, cfg.DashboardCacheTTLSeconds)
	assert.Zero(t, cfg.StockAlertInterval())
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOCKBOOK_DOTENV_PROBE=from-file\nPORT=9999\n"), 0o600))
	t.Setenv("PORT", "7070")
	t.Setenv("STOCKBOOK_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("STOCKBOOK_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { _ = os.Unsetenv("STOCKBOOK_DOTENV_PROBE") })

	assert.Equal(t, "from-file", os.Getenv("STOCKBOOK_DOTENV_PROBE"))
	assert.Equal(t, "7070", Load().Port)
}

func TestLoadDotEnvMissingFileIsFine(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
