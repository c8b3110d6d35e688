package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
	redisclient "github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/redis"
)

const (
	recordKeyPrefix = "hospital:record:"
	casesKeyPrefix  = "hospital:cases:"
	keySetKey       = "hospital:keys"
)

// RedisLiveStore implements the LiveStore interface on Redis. Hospital
// records are opaque JSON blobs under hospital:record:<key>, tracked in the
// hospital:keys set; every write publishes a change event so watchers re-read
// the full snapshot.
type RedisLiveStore struct {
	client *redisclient.Client
	bus    providers.EventBus
	logger zerolog.Logger
}

// NewRedisLiveStore creates a new Redis-backed live store
func NewRedisLiveStore(client *redisclient.Client, bus providers.EventBus, logger zerolog.Logger) *RedisLiveStore {
	return &RedisLiveStore{
		client: client,
		bus:    bus,
		logger: logger.With().Str("component", "redis_live_store").Logger(),
	}
}

// Snapshot returns the current full snapshot of all hospital records
func (s *RedisLiveStore) Snapshot(ctx context.Context) (providers.RawSnapshot, error) {
	keys, err := s.client.Client().SMembers(ctx, keySetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list hospital keys: %w", err)
	}
	if len(keys) == 0 {
		return providers.RawSnapshot{}, nil
	}

	recordKeys := make([]string, len(keys))
	for i, k := range keys {
		recordKeys[i] = recordKeyPrefix + k
	}

	values, err := s.client.Client().MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hospital records: %w", err)
	}

	snap := make(providers.RawSnapshot, len(keys))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Key in the set but record missing; skip rather than fail the
			// whole snapshot.
			continue
		}
		snap[keys[i]] = json.RawMessage(str)
	}
	return snap, nil
}

// Watch returns a stream of full snapshots, one per store write. The
// subscription is released and the channel closed when ctx is cancelled.
func (s *RedisLiveStore) Watch(ctx context.Context) (<-chan providers.RawSnapshot, error) {
	events, err := s.bus.Subscribe(ctx, providers.EventChannelHospitalUpdates)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to hospital updates: %w", err)
	}

	out := make(chan providers.RawSnapshot, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				snap, err := s.Snapshot(ctx)
				if err != nil {
					s.logger.Warn().Err(err).Msg("failed to re-read snapshot after change event")
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// SetRecord writes a hospital's full record blob. Used by the seeder and by
// registry sync; availability writes go through UpdateAvailability.
func (s *RedisLiveStore) SetRecord(ctx context.Context, key string, blob json.RawMessage) error {
	pipe := s.client.Client().TxPipeline()
	pipe.Set(ctx, recordKeyPrefix+key, string(blob), 0)
	pipe.SAdd(ctx, keySetKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write hospital record: %w", err)
	}

	s.publish(ctx, key, entities.HospitalEventTypeAvailabilityUpdate, nil)
	return nil
}

// UpdateAvailability applies a partial field map to a hospital's live record.
// Field paths are slash-separated into the record's JSON structure, e.g.
// availability/specialists/cardiac.
func (s *RedisLiveStore) UpdateAvailability(ctx context.Context, key string, fields map[string]interface{}) error {
	recordKey := recordKeyPrefix + key

	raw, err := s.client.Client().Get(ctx, recordKey).Result()
	if err == redis.Nil {
		return fmt.Errorf("hospital %s not found", key)
	}
	if err != nil {
		return fmt.Errorf("failed to read hospital record: %w", err)
	}

	var record map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return fmt.Errorf("failed to decode hospital record %s: %w", key, err)
	}

	for path, value := range fields {
		setFieldPath(record, path, value)
	}

	updated, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode hospital record %s: %w", key, err)
	}
	if err := s.client.Client().Set(ctx, recordKey, updated, 0).Err(); err != nil {
		return fmt.Errorf("failed to write hospital record: %w", err)
	}

	eventType := entities.HospitalEventTypeAvailabilityUpdate
	if _, ok := fields["status"]; ok {
		eventType = entities.HospitalEventTypeStatusUpdate
	}
	s.publish(ctx, key, eventType, fields)

	s.logger.Debug().
		Str("hospital_key", key).
		Int("fields", len(fields)).
		Msg("hospital availability written")
	return nil
}

// AppendCase writes a new patient case under the hospital's record
func (s *RedisLiveStore) AppendCase(ctx context.Context, key string, c *entities.PatientCase) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode patient case: %w", err)
	}

	// LPush keeps newest-first ordering for Cases.
	if err := s.client.Client().LPush(ctx, casesKeyPrefix+key, data).Err(); err != nil {
		return fmt.Errorf("failed to append patient case: %w", err)
	}

	s.publish(ctx, key, entities.HospitalEventTypeCaseCreated, map[string]interface{}{
		"case_id": c.ID,
	})
	return nil
}

// Cases returns a hospital's incoming cases, newest first
func (s *RedisLiveStore) Cases(ctx context.Context, key string) ([]*entities.PatientCase, error) {
	raw, err := s.client.Client().LRange(ctx, casesKeyPrefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read patient cases: %w", err)
	}

	cases := make([]*entities.PatientCase, 0, len(raw))
	for _, item := range raw {
		var c entities.PatientCase
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			s.logger.Warn().Err(err).Str("hospital_key", key).Msg("skipping malformed patient case")
			continue
		}
		cases = append(cases, &c)
	}
	return cases, nil
}

// UpdateCaseStatus transitions a case's workflow status
func (s *RedisLiveStore) UpdateCaseStatus(ctx context.Context, key, caseID string, status entities.CaseStatus) error {
	listKey := casesKeyPrefix + key
	raw, err := s.client.Client().LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read patient cases: %w", err)
	}

	for i, item := range raw {
		var c entities.PatientCase
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			continue
		}
		if c.ID != caseID {
			continue
		}

		c.Status = status
		updated, err := json.Marshal(&c)
		if err != nil {
			return fmt.Errorf("failed to encode patient case: %w", err)
		}
		if err := s.client.Client().LSet(ctx, listKey, int64(i), updated).Err(); err != nil {
			return fmt.Errorf("failed to update patient case: %w", err)
		}

		s.publish(ctx, key, entities.HospitalEventTypeCaseStatusUpdate, map[string]interface{}{
			"case_id": caseID,
			"status":  string(status),
		})
		return nil
	}

	return fmt.Errorf("case %s not found for hospital %s", caseID, key)
}

func (s *RedisLiveStore) publish(ctx context.Context, key string, eventType entities.HospitalEventType, changed map[string]interface{}) {
	event := entities.NewHospitalEvent(key, eventType, entities.Coordinate{}, changed)

	if err := s.bus.Publish(ctx, providers.EventChannelHospitalUpdates, event); err != nil {
		s.logger.Warn().Err(err).Str("hospital_key", key).Msg("failed to publish hospital update event")
	}
	if err := s.bus.Publish(ctx, providers.GetHospitalChannel(key), event); err != nil {
		s.logger.Warn().Err(err).Str("hospital_key", key).Msg("failed to publish per-hospital event")
	}
}

// setFieldPath applies value at a slash-separated path, creating intermediate
// objects as needed.
func setFieldPath(record map[string]interface{}, path string, value interface{}) {
	segments := strings.Split(path, "/")
	current := record
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
