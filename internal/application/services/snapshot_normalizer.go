package services

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
)

// rawHospital mirrors the canonical hospital blob in the live store.
// Every field except coordinates is optional; JSON numbers arrive as
// float64 and are clamped to non-negative integers during normalization.
type rawHospital struct {
	HospitalName  string           `json:"hospital_name"`
	Coordinates   *rawCoordinates  `json:"coordinates"`
	Availability  *rawAvailability `json:"availability"`
	Status        string           `json:"status"`
	LastUpdated   string           `json:"last_updated"`
	LastUpdatedMS int64            `json:"last_updated_ms"`
}

type rawCoordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type rawAvailability struct {
	Beds        *float64           `json:"beds"`
	ICUBeds     *float64           `json:"icu_beds"`
	Specialists map[string]float64 `json:"specialists"`
}

// RejectedEntry records a raw snapshot entry the normalizer excluded and why
type RejectedEntry struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// SnapshotNormalizer turns a raw live-store snapshot into canonical
// Hospital records. It is a pure transform: one malformed entry is rejected
// without failing the batch, and no defaulting is applied to coordinates.
type SnapshotNormalizer struct{}

// NewSnapshotNormalizer creates a new normalizer
func NewSnapshotNormalizer() *SnapshotNormalizer {
	return &SnapshotNormalizer{}
}

// Normalize converts a snapshot to Hospital records sorted by external key,
// so downstream ranking sees a deterministic input order. Entries with
// missing or out-of-range coordinates are rejected; everything else is
// defaulted leniently (missing counts become 0, unrecognized status maps to
// the green tier).
func (n *SnapshotNormalizer) Normalize(snapshot providers.RawSnapshot) ([]entities.Hospital, []RejectedEntry) {
	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hospitals := make([]entities.Hospital, 0, len(keys))
	var rejected []RejectedEntry

	for _, key := range keys {
		hospital, reason := n.normalizeEntry(key, snapshot[key])
		if reason != "" {
			rejected = append(rejected, RejectedEntry{Key: key, Reason: reason})
			continue
		}
		hospitals = append(hospitals, *hospital)
	}

	return hospitals, rejected
}

func (n *SnapshotNormalizer) normalizeEntry(key string, blob json.RawMessage) (*entities.Hospital, string) {
	raw, err := decodeRawHospital(blob)
	if err != nil {
		return nil, "malformed entry: " + err.Error()
	}

	if raw.Coordinates == nil || raw.Coordinates.Lat == nil || raw.Coordinates.Lng == nil {
		return nil, "missing coordinates"
	}
	location := entities.Coordinate{
		Latitude:  *raw.Coordinates.Lat,
		Longitude: *raw.Coordinates.Lng,
	}
	if err := location.Validate(); err != nil {
		return nil, "malformed coordinates: " + err.Error()
	}

	hospital := &entities.Hospital{
		ID:                      key,
		ExternalKey:             key,
		Name:                    raw.HospitalName,
		Location:                location,
		SpecialistsByDepartment: map[string]int{},
		StatusTier:              entities.TierFromStatus(raw.Status),
		LastUpdated:             lastUpdatedTime(raw),
	}

	if raw.Availability != nil {
		hospital.BedsAvailable = clampCount(raw.Availability.Beds)
		hospital.ICUBedsAvailable = clampCount(raw.Availability.ICUBeds)
		for dept, count := range raw.Availability.Specialists {
			c := clampCount(&count)
			hospital.SpecialistsByDepartment[dept] = c
			hospital.SpecialistCount += c
		}
	}

	return hospital, ""
}

// decodeRawHospital accepts the canonical flat object and the legacy
// single-element array wrapping (hospitals/<key>/0); any other shape is an
// error.
func decodeRawHospital(blob json.RawMessage) (*rawHospital, error) {
	var wrapped []json.RawMessage
	if err := json.Unmarshal(blob, &wrapped); err == nil {
		if len(wrapped) == 0 {
			return nil, errEmptyWrapper
		}
		blob = wrapped[0]
	}

	var raw rawHospital
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

var errEmptyWrapper = errors.New("empty array wrapper")

func clampCount(v *float64) int {
	if v == nil || *v <= 0 || math.IsNaN(*v) {
		return 0
	}
	return int(math.Round(*v))
}

func lastUpdatedTime(raw *rawHospital) time.Time {
	if raw.LastUpdatedMS > 0 {
		return time.UnixMilli(raw.LastUpdatedMS).UTC()
	}
	if raw.LastUpdated != "" {
		if t, err := time.Parse(time.RFC3339, raw.LastUpdated); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
