package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
)

// SessionState is the recommendation view-model's lifecycle state
type SessionState string

const (
	SessionStateAwaitingLocation SessionState = "awaiting_location"
	SessionStateAwaitingData     SessionState = "awaiting_data"
	SessionStateReady            SessionState = "ready"
	SessionStateError            SessionState = "error"
)

// ErrSessionClosed is returned by operations on a torn-down session
var ErrSessionClosed = errors.New("recommendation session closed")

// RecommendationView is a consistent snapshot of the session's output,
// safe to hand to a rendering sink. Slices are copies; callers must not
// mutate the records they contain.
type RecommendationView struct {
	State        SessionState              `json:"state"`
	UserLocation *entities.Coordinate      `json:"user_location,omitempty"`
	Ranked       []entities.RankedHospital `json:"ranked"`
	Recommended  []entities.RankedHospital `json:"recommended"`
	ExcludedFull []entities.Hospital       `json:"excluded_full,omitempty"`
	Rejected     []RejectedEntry           `json:"rejected,omitempty"`
	Selected     *entities.RankedHospital  `json:"selected,omitempty"`
	Case         *entities.PatientCase     `json:"case,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

// RecommendationSession is the live view-model behind the recommendation
// screen. It owns the store subscription for its lifetime, replaces the
// hospital set wholesale on every notification and recomputes the full
// ranking on every data or location change. All state is guarded by one
// mutex; the watch goroutine and API callers never touch fields directly.
type RecommendationSession struct {
	store      providers.LiveStore
	normalizer *SnapshotNormalizer
	ranker     *RankingService
	logger     zerolog.Logger

	mu         sync.RWMutex
	state      SessionState
	location   *entities.Coordinate
	hospitals  []entities.Hospital
	haveData   bool
	ranked     []entities.RankedHospital
	excluded   []entities.Hospital
	rejected   []RejectedEntry
	selectedID string
	patient    *entities.PatientCase
	errMsg     string
	closed     bool

	cancel  context.CancelFunc
	updates chan struct{}
}

// NewRecommendationSession constructs a session with explicit dependencies.
// Nothing is ambient: the store, ranking policy and logger all come in here
// so the session stays testable in isolation.
func NewRecommendationSession(store providers.LiveStore, ranker *RankingService, logger zerolog.Logger) *RecommendationSession {
	return &RecommendationSession{
		store:      store,
		normalizer: NewSnapshotNormalizer(),
		ranker:     ranker,
		logger:     logger.With().Str("component", "recommendation_session").Logger(),
		state:      SessionStateAwaitingLocation,
		updates:    make(chan struct{}, 1),
	}
}

// Start primes the session with the current snapshot and subscribes to
// store notifications. It must be called exactly once; Close releases the
// subscription.
func (s *RecommendationSession) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)

	snapshots, err := s.store.Watch(watchCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to watch live store: %w", err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	// A transient read error here is not fatal: the watch stream will
	// deliver data as soon as the store recovers.
	if snap, err := s.store.Snapshot(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("initial snapshot unavailable, waiting for store notifications")
	} else {
		s.applySnapshot(snap)
	}

	go s.consume(snapshots)
	return nil
}

func (s *RecommendationSession) consume(snapshots <-chan providers.RawSnapshot) {
	for snap := range snapshots {
		s.applySnapshot(snap)
	}

	// Channel closed: either our own teardown or the store went away.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.logger.Error().Msg("live store watch terminated")
	s.state = SessionStateError
	s.errMsg = "live store unreachable"
	s.notifyLocked()
}

// SetLocation records a newly available user position and recomputes.
// Scoring never runs before the first successful call.
func (s *RecommendationSession) SetLocation(c entities.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state == SessionStateError {
		return fmt.Errorf("session is in error state: %s", s.errMsg)
	}

	loc := c
	s.location = &loc
	s.recomputeLocked()
	s.notifyLocked()
	return nil
}

// FailLocation moves the session to its terminal error state after a
// location failure (permission denied, unavailable, timeout). There is no
// automatic retry; the caller surfaces the persistent error banner.
func (s *RecommendationSession) FailLocation(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == SessionStateError {
		return
	}
	s.state = SessionStateError
	s.errMsg = err.Error()
	s.notifyLocked()
}

// AttachCase carries the intake form's patient case through the session.
// The case never influences scoring; it is forwarded on confirmation.
func (s *RecommendationSession) AttachCase(c *entities.PatientCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.patient = c
}

// Select records the chosen hospital by id. Pure state transition: no
// recomputation. The selection is resolved against the current ranked list
// and dropped automatically if a later recompute removes the id.
func (s *RecommendationSession) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != SessionStateReady {
		return fmt.Errorf("cannot select hospital in state %s", s.state)
	}
	for _, r := range s.ranked {
		if r.ID == id {
			s.selectedID = id
			s.notifyLocked()
			return nil
		}
	}
	return fmt.Errorf("hospital %s is not in the current ranked list", id)
}

// ClearSelection drops the current selection
func (s *RecommendationSession) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
}

// View returns a consistent snapshot of the session's current output
func (s *RecommendationSession) View() RecommendationView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := RecommendationView{
		State:        s.state,
		Ranked:       append([]entities.RankedHospital(nil), s.ranked...),
		Recommended:  append([]entities.RankedHospital(nil), s.ranker.Recommended(s.ranked)...),
		ExcludedFull: append([]entities.Hospital(nil), s.excluded...),
		Rejected:     append([]RejectedEntry(nil), s.rejected...),
		Case:         s.patient,
		Error:        s.errMsg,
	}
	if s.location != nil {
		loc := *s.location
		view.UserLocation = &loc
	}
	if s.selectedID != "" {
		for i := range view.Ranked {
			if view.Ranked[i].ID == s.selectedID {
				view.Selected = &view.Ranked[i]
				break
			}
		}
	}
	return view
}

// Updates signals view changes. The channel is coalescing: at least one
// receive is guaranteed after any change, not one per change.
func (s *RecommendationSession) Updates() <-chan struct{} {
	return s.updates
}

// Close tears the session down and releases the store subscription. After
// Close no notification can mutate the session.
func (s *RecommendationSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	close(s.updates)
}

func (s *RecommendationSession) applySnapshot(snap providers.RawSnapshot) {
	hospitals, rejected := s.normalizer.Normalize(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == SessionStateError {
		return
	}

	s.hospitals = hospitals
	s.rejected = rejected
	s.haveData = true
	if len(rejected) > 0 {
		s.logger.Warn().Int("rejected", len(rejected)).Msg("snapshot entries excluded during normalization")
	}

	s.recomputeLocked()
	s.notifyLocked()
}

// recomputeLocked re-runs scoring and resolves the state machine. Caller
// holds the write lock. Scoring requires a non-nil location by contract.
func (s *RecommendationSession) recomputeLocked() {
	if s.location == nil {
		s.state = SessionStateAwaitingLocation
		return
	}
	if !s.haveData {
		s.state = SessionStateAwaitingData
		return
	}

	s.ranked, s.excluded = s.ranker.Rank(s.hospitals, *s.location)
	s.state = SessionStateReady

	if s.selectedID != "" {
		found := false
		for _, r := range s.ranked {
			if r.ID == s.selectedID {
				found = true
				break
			}
		}
		if !found {
			s.selectedID = ""
		}
	}
}

func (s *RecommendationSession) notifyLocked() {
	if s.closed {
		return
	}
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
