package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "127.0.0.1:8084", cfg.Addr())
	assert.Equal(t, 8, cfg.Workers)
	assert.InDelta(t, 0.70, cfg.FuzzyNameThreshold, 1e-9)
	assert.Equal(t, 1, cfg.FuzzySkuMaxDist)
	assert.Equal(t, 80, cfg.MinConfidenceAuto)
	assert.Equal(t, 30*time.Second, cfg.SemanticTimeout)
	assert.Equal(t, 50, cfg.SemanticCandidates)
	assert.Empty(t, cfg.SemanticURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RESOLVE_WORKERS", "2")
	t.Setenv("FUZZY_NAME_THRESHOLD", "0.8")
	t.Setenv("SEMANTIC_TIMEOUT", "5s")
	t.Setenv("ALLOW_ORIGINS", "http://a,http://b")

	cfg := Load()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 2, cfg.Workers)
	assert.InDelta(t, 0.8, cfg.FuzzyNameThreshold, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.SemanticTimeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowOrigins)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "не число")
	t.Setenv("SEMANTIC_TIMEOUT", "вечность")

	cfg := Load()
	assert.Equal(t, 8084, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.SemanticTimeout)
}
