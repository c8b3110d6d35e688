//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/hospitalfinder/internal/adapters/events"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/store"
	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
	redisclient "github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/redis"
)

func newTestLiveStore(t *testing.T) (*store.RedisLiveStore, *redisclient.Client, func()) {
	t.Helper()

	redisClient := newTestRedisClient(t)
	eventBus := events.NewRedisEventBus(redisClient)
	liveStore := store.NewRedisLiveStore(redisClient, eventBus, zerolog.Nop())

	cleanup := func() {
		ctx := context.Background()
		keys, _ := redisClient.Client().SMembers(ctx, "hospital:keys").Result()
		for _, k := range keys {
			redisClient.Client().Del(ctx, "hospital:record:"+k, "hospital:cases:"+k)
		}
		redisClient.Client().Del(ctx, "hospital:keys")
		eventBus.Close()
		redisClient.Close()
	}
	return liveStore, redisClient, cleanup
}

func liveRecord(t *testing.T, name string, beds int) json.RawMessage {
	t.Helper()
	blob, err := json.Marshal(map[string]interface{}{
		"hospital_name": name,
		"coordinates":   map[string]interface{}{"lat": 16.5128, "lng": 80.6263},
		"availability":  map[string]interface{}{"beds": beds, "icu_beds": 2},
		"status":        "Ready",
	})
	require.NoError(t, err)
	return blob
}

func TestRedisLiveStore_SnapshotRoundTrip(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	liveStore, _, cleanup := newTestLiveStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, liveStore.SetRecord(ctx, "live-hosp-1", liveRecord(t, "Hospital One", 10)))
	require.NoError(t, liveStore.SetRecord(ctx, "live-hosp-2", liveRecord(t, "Hospital Two", 20)))

	snap, err := liveStore.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 2)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(snap["live-hosp-1"], &decoded))
	assert.Equal(t, "Hospital One", decoded["hospital_name"])
}

func TestRedisLiveStore_WatchDeliversSnapshotOnWrite(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	liveStore, _, cleanup := newTestLiveStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, liveStore.SetRecord(ctx, "live-hosp-3", liveRecord(t, "Hospital Three", 5)))

	snapshots, err := liveStore.Watch(ctx)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, liveStore.UpdateAvailability(ctx, "live-hosp-3", map[string]interface{}{
		"availability/beds":                14,
		"availability/specialists/cardiac": 3,
	}))

	snap := waitForSnapshot(t, snapshots)
	var decoded struct {
		Availability struct {
			Beds        float64            `json:"beds"`
			Specialists map[string]float64 `json:"specialists"`
		} `json:"availability"`
	}
	require.NoError(t, json.Unmarshal(snap["live-hosp-3"], &decoded))
	assert.Equal(t, float64(14), decoded.Availability.Beds)
	assert.Equal(t, float64(3), decoded.Availability.Specialists["cardiac"])
}

func TestRedisLiveStore_CaseWorkflow(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	liveStore, _, cleanup := newTestLiveStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, liveStore.SetRecord(ctx, "live-hosp-4", liveRecord(t, "Hospital Four", 8)))

	first := &entities.PatientCase{
		ID:         "case-first",
		Department: "cardiac",
		Condition:  "chest pain",
		Severity:   entities.SeverityCritical,
		Location:   entities.Coordinate{Latitude: 16.5062, Longitude: 80.6480},
		Status:     entities.CaseStatusSent,
		SentAt:     time.Now().UTC(),
	}
	second := &entities.PatientCase{
		ID:         "case-second",
		Department: "general",
		Condition:  "fracture",
		Severity:   entities.SeverityStable,
		Location:   entities.Coordinate{Latitude: 16.5062, Longitude: 80.6480},
		Status:     entities.CaseStatusSent,
		SentAt:     time.Now().UTC(),
	}

	require.NoError(t, liveStore.AppendCase(ctx, "live-hosp-4", first))
	require.NoError(t, liveStore.AppendCase(ctx, "live-hosp-4", second))

	cases, err := liveStore.Cases(ctx, "live-hosp-4")
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "case-second", cases[0].ID, "cases should be newest first")

	require.NoError(t, liveStore.UpdateCaseStatus(ctx, "live-hosp-4", "case-first", entities.CaseStatusAccepted))

	cases, err = liveStore.Cases(ctx, "live-hosp-4")
	require.NoError(t, err)
	for _, c := range cases {
		if c.ID == "case-first" {
			assert.Equal(t, entities.CaseStatusAccepted, c.Status)
		}
	}

	err = liveStore.UpdateCaseStatus(ctx, "live-hosp-4", "case-missing", entities.CaseStatusAccepted)
	assert.Error(t, err)
}

func waitForSnapshot(t *testing.T, ch <-chan providers.RawSnapshot) providers.RawSnapshot {
	t.Helper()
	select {
	case snap := <-ch:
		require.NotNil(t, snap)
		return snap
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
