package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 5*time.Minute, cfg.SearchCacheTTL)
	require.Equal(t, 0.015, cfg.TaxRate)
	require.Equal(t, float64(10), cfg.DefaultProfitPercent)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsNegativeRates(t *testing.T) {
	t.Setenv("TAX_RATE", "-0.5")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv("STOCKPILOT_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("STOCKPILOT_TEST_MODE", "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
