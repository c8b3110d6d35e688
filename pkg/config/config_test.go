package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_TypesenseConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	os.Setenv("TYPESENSE_API_KEY", "test-key")
	defer func() {
		os.Unsetenv("TYPESENSE_URL")
		os.Unsetenv("TYPESENSE_API_KEY")
	}()

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify Typesense config
	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("TYPESENSE_URL")
	os.Unsetenv("TYPESENSE_API_KEY")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "xyz", cfg.Typesense.APIKey)
}

func TestLoad_RankingDefaults(t *testing.T) {
	os.Unsetenv("RANKING_TOP_N")
	os.Unsetenv("RANKING_BEDS_WEIGHT")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 2, cfg.Ranking.TopN)
	assert.Equal(t, 0.35, cfg.Ranking.BedsWeight)
	assert.Equal(t, 0.30, cfg.Ranking.ICUWeight)
	assert.Equal(t, 0.20, cfg.Ranking.SpecialistsWeight)
	assert.Equal(t, 0.15, cfg.Ranking.TravelWeight)
}

func TestLoad_RankingOverrides(t *testing.T) {
	os.Setenv("RANKING_TOP_N", "3")
	os.Setenv("RANKING_BEDS_WEIGHT", "0.40")
	defer func() {
		os.Unsetenv("RANKING_TOP_N")
		os.Unsetenv("RANKING_BEDS_WEIGHT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 3, cfg.Ranking.TopN)
	assert.Equal(t, 0.40, cfg.Ranking.BedsWeight)
}
