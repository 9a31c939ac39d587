package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"CONSOLE_ADDR", "API_BASE_URL", "API_TIMEOUT", "AUDIT_PAGE_SIZE", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIBaseURL)
	assert.Equal(t, "/auth/login", cfg.AuthEndpoint)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 6, cfg.AuditPageSize)
	assert.Equal(t, 5, cfg.DashboardPageSize)
	assert.Equal(t, 100, cfg.AuditFetchLimit)
	assert.Equal(t, "auth_token", cfg.TokenStorageKey)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnvAndFile(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.test/")
	t.Setenv("API_TIMEOUT", "not-a-duration")
	t.Setenv("AUDIT_PAGE_SIZE", "-3")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")

	path := filepath.Join(t.TempDir(), "console.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=TradeMark Pro\n"), 0o600))
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")

	cfg := Load(path)

	assert.Equal(t, "https://api.example.test", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 6, cfg.AuditPageSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "TradeMark Pro", cfg.AppName)
}
