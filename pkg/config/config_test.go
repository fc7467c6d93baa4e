package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "PUSH_WORKERS", "WATCH_REFRESH_INTERVAL", "FORCE_PARSE_LABEL", "EXTRACTION_RPS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2, cfg.PushWorkers)
	assert.Equal(t, 6*time.Hour, cfg.WatchRefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.WatchRefreshThreshold)
	assert.Equal(t, "JobTracker/ForceParse", cfg.ForceParseLabel)
	assert.Equal(t, 2.0, cfg.ExtractionRPS)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PUSH_WORKERS", "5")
	t.Setenv("WATCH_REFRESH_INTERVAL", "30m")
	t.Setenv("EXTRACTION_RPS", "0.5")
	t.Setenv("CRYPTO_KEY_VERSION", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5, cfg.PushWorkers)
	assert.Equal(t, 30*time.Minute, cfg.WatchRefreshInterval)
	assert.Equal(t, 0.5, cfg.ExtractionRPS)
	assert.Equal(t, 1, cfg.CryptoKeyVersion)
}
