package typesense

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lifeline-health/hospitalfinder/pkg/config"
)

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("Skipping integration test; set TEST_INTEGRATION=true to run")
	}

	cfg := &config.Config{
		Typesense: config.TypesenseConfig{
			URL:    "http://localhost:8108",
			APIKey: "xyz",
		},
	}

	client, err := NewClient(&cfg.Typesense)
	assert.NoError(t, err)
	assert.NotNil(t, client)

	ctx := context.Background()

	// Test InitSchema
	err = client.InitSchema(ctx)
	assert.NoError(t, err)

	// Test Indexing
	doc := map[string]interface{}{
		"id":           "test-hospital-1",
		"external_key": "hospital1",
		"name":         "Test General Hospital",
		"city":         "Vijayawada",
		"location":     []float64{16.5062, 80.6480},
		"departments":  []string{"general", "cardiac"},
		"created_at":   time.Now().Unix(),
		"is_active":    true,
	}
	err = client.IndexHospital(ctx, doc)
	assert.NoError(t, err)

	// Allow some time for indexing
	time.Sleep(1 * time.Second)
}
