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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  dsn: \"file::memory:\"\n  driver: sqlite\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.CacheTTL())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "America/Montevideo", cfg.Billing.Location.String())
	assert.Equal(t, "UYU", cfg.Billing.DefaultCurrency)
	assert.Equal(t, 24, cfg.Billing.MaxMonthsBack)
	assert.Equal(t, "0 3 1 * *", cfg.Closing.Schedule)
	assert.Equal(t, 1, cfg.Closing.WorkerPoolSize)
	assert.Equal(t, 2*time.Minute, cfg.Closing.JobTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("config.example.yaml")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Closing.Enabled)
	assert.Equal(t, 4, cfg.Closing.WorkerPoolSize)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "Unknown driver", body: "database:\n  driver: mysql\n"},
		{name: "Unknown timezone", body: "billing:\n  timezone: Mars/Olympus\n"},
		{name: "Malformed yaml", body: "server: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
