package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestInitializeConfigDefaults(t *testing.T) {
	// Run from an empty directory so no config file is picked up.
	chdir(t, t.TempDir())

	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 3, cfg.Matching.FuzzyTokenCap)
	assert.Equal(t, 5, cfg.Matching.CounterpartyHitCap)
	assert.Equal(t, 25, cfg.Distribution.ObligationFetchCap)
	assert.Equal(t, "portfolios.yaml", cfg.Store.PortfoliosFile)
	assert.Equal(t, "formats.yaml", cfg.Store.FormatsFile)
}

func TestEnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STATEMENTS_LOG_LEVEL", "debug")
	t.Setenv("STATEMENTS_DISTRIBUTION_OBLIGATION_FETCH_CAP", "10")

	cfg, err := InitializeConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Distribution.ObligationFetchCap)
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := InitializeConfig()
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Log.Level = "info"
		c.Log.Format = "text"
		c.Matching.FuzzyTokenCap = 3
		c.Matching.CounterpartyHitCap = 5
		c.Distribution.ObligationFetchCap = 25
		return c
	}

	assert.NoError(t, validateConfig(base()))

	bad := base()
	bad.Log.Level = "verbose"
	assert.Error(t, validateConfig(bad))

	bad = base()
	bad.Log.Format = "xml"
	assert.Error(t, validateConfig(bad))

	bad = base()
	bad.Matching.FuzzyTokenCap = 0
	assert.Error(t, validateConfig(bad))

	bad = base()
	bad.Distribution.ObligationFetchCap = -1
	assert.Error(t, validateConfig(bad))
}

func TestAITimeout(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 30*time.Second, c.AITimeout())
	c.AI.TimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, c.AITimeout())
}
