package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "service:\n  name: bridgeguard-test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bridgeguard-test", cfg.Service.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "http://localhost:26657", cfg.Node.RPCURL)
	assert.Equal(t, "qie_1990-1", cfg.Node.ChainID)
	assert.Equal(t, 0.75, cfg.Monitoring.ValidityThreshold)
	assert.Equal(t, 0.70, cfg.Monitoring.AlertThreshold)
	assert.Equal(t, 100, cfg.Monitoring.RateLimit)
	assert.Equal(t, 60, cfg.Monitoring.RateLimitWindowSec)
	assert.Equal(t, 5, cfg.Monitoring.WebhookTimeoutSec)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "bridge-alerts", cfg.Kafka.Topic)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BG_RPC", "http://10.0.0.5:26657")

	path := writeConfig(t, `
node:
  rpc_url: ${TEST_BG_RPC}
  chain_id: ${TEST_BG_CHAIN:qie_test-1}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:26657", cfg.Node.RPCURL)
	assert.Equal(t, "qie_test-1", cfg.Node.ChainID)
}

func TestLoad_ThresholdOverrides(t *testing.T) {
	path := writeConfig(t, `
monitoring:
  validity_threshold: 0.9
  alert_threshold: 0.5
  rate_limit: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Monitoring.ValidityThreshold)
	assert.Equal(t, 0.5, cfg.Monitoring.AlertThreshold)
	assert.Equal(t, 10, cfg.Monitoring.RateLimit)
	// untouched defaults remain
	assert.Equal(t, 0.8, cfg.Monitoring.CriticalThreshold)
}

func TestLoad_ExplicitZeroThreshold(t *testing.T) {
	// a deliberate zero is kept, not silently replaced by the default
	path := writeConfig(t, `
monitoring:
  medium_threshold: 0
  high_threshold: 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.Monitoring.MediumThreshold)
	assert.Equal(t, 0.5, cfg.Monitoring.HighThreshold)
	assert.Equal(t, 0.8, cfg.Monitoring.CriticalThreshold)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "bridgeguard", cfg.Service.Name)
	assert.Equal(t, 0.75, cfg.Monitoring.ValidityThreshold)
}
