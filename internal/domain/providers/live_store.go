package providers

import (
	"context"
	"encoding/json"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
)

// RawSnapshot is a full snapshot of the live availability store: external
// key to raw, loosely-structured hospital blob. The normalizer owns decoding;
// the store treats values as opaque.
type RawSnapshot map[string]json.RawMessage

// LiveStore is the external realtime store holding hospital availability and
// patient cases. It is a key-value store with change notifications: every
// write triggers a fresh full snapshot on Watch channels (no incremental
// patch semantics).
type LiveStore interface {
	// Snapshot returns the current full snapshot of all hospital records
	Snapshot(ctx context.Context) (RawSnapshot, error)

	// Watch returns a stream of full snapshots, one per store write. The
	// subscription is released when ctx is cancelled; the channel is closed
	// on release.
	Watch(ctx context.Context) (<-chan RawSnapshot, error)

	// UpdateAvailability applies a partial field map to a hospital's live
	// record (beds, icu beds, status, per-department specialist counts)
	UpdateAvailability(ctx context.Context, key string, fields map[string]interface{}) error

	// AppendCase writes a new patient case under the hospital's record
	AppendCase(ctx context.Context, key string, c *entities.PatientCase) error

	// Cases returns a hospital's incoming cases, newest first
	Cases(ctx context.Context, key string) ([]*entities.PatientCase, error)

	// UpdateCaseStatus transitions a case's workflow status
	UpdateCaseStatus(ctx context.Context, key, caseID string, status entities.CaseStatus) error
}
