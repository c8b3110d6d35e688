package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifeline-health/hospitalfinder/internal/api/handlers"
	"github.com/lifeline-health/hospitalfinder/internal/application/services"
	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
)

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.HospitalEvent
	published   []*entities.HospitalEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.HospitalEvent),
		published:   make([]*entities.HospitalEvent, 0),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.HospitalEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.HospitalEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.HospitalEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.HospitalEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.HospitalEvent)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

func (m *MockEventBus) PublishedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.published)
}

// stubLiveStore serves a fixed snapshot and re-delivers it on every Notify
type stubLiveStore struct {
	mu       sync.Mutex
	snapshot providers.RawSnapshot
	watchers []chan providers.RawSnapshot
}

func newStubLiveStore(snapshot providers.RawSnapshot) *stubLiveStore {
	return &stubLiveStore{snapshot: snapshot}
}

func (s *stubLiveStore) Snapshot(ctx context.Context) (providers.RawSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, nil
}

func (s *stubLiveStore) Watch(ctx context.Context) (<-chan providers.RawSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan providers.RawSnapshot, 10)
	s.watchers = append(s.watchers, ch)
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch, nil
}

func (s *stubLiveStore) Notify(snapshot providers.RawSnapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	watchers := append([]chan providers.RawSnapshot(nil), s.watchers...)
	s.mu.Unlock()
	for _, w := range watchers {
		select {
		case w <- snapshot:
		default:
		}
	}
}

func (s *stubLiveStore) UpdateAvailability(ctx context.Context, key string, fields map[string]interface{}) error {
	return nil
}

func (s *stubLiveStore) AppendCase(ctx context.Context, key string, c *entities.PatientCase) error {
	return nil
}

func (s *stubLiveStore) Cases(ctx context.Context, key string) ([]*entities.PatientCase, error) {
	return nil, nil
}

func (s *stubLiveStore) UpdateCaseStatus(ctx context.Context, key, caseID string, status entities.CaseStatus) error {
	return nil
}

func newTestSSEHandler(eventBus providers.EventBus, store providers.LiveStore) *handlers.SSEHandler {
	ranker, err := services.NewRankingService(services.DefaultRankingConfig())
	if err != nil {
		panic(err)
	}
	return handlers.NewSSEHandler(eventBus, store, ranker, zerolog.Nop())
}

func TestSSEHandler_StreamHospitalUpdates(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := newTestSSEHandler(eventBus, newStubLiveStore(providers.RawSnapshot{}))

	t.Run("should establish SSE connection", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/hospitals/vijayawada_general", nil)
		req.SetPathValue("key", "vijayawada_general")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamHospitalUpdates(w, req)
			close(done)
		}()

		// Wait a bit for connection to establish
		time.Sleep(100 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		if result.Header.Get("Content-Type") != "text/event-stream" {
			t.Errorf("Expected Content-Type text/event-stream, got %s", result.Header.Get("Content-Type"))
		}
		if result.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Expected Cache-Control no-cache, got %s", result.Header.Get("Cache-Control"))
		}
	})

	t.Run("should receive hospital events", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/hospitals/andhra_hospitals", nil)
		req.SetPathValue("key", "andhra_hospitals")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamHospitalUpdates(w, req)
			close(done)
		}()

		// Wait for connection
		time.Sleep(100 * time.Millisecond)

		event := entities.NewHospitalEvent(
			"andhra_hospitals",
			entities.HospitalEventTypeAvailabilityUpdate,
			entities.Coordinate{Latitude: 16.5193, Longitude: 80.6305},
			map[string]interface{}{"availability/beds": 12},
		)

		channel := providers.GetHospitalChannel("andhra_hospitals")
		eventBus.Publish(context.Background(), channel, event)

		// Wait for event to be sent
		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		if eventBus.PublishedCount() == 0 {
			t.Error("Expected event to be published")
		}
	})

	t.Run("should return error for missing hospital key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stream/hospitals/", nil)
		w := httptest.NewRecorder()

		handler.StreamHospitalUpdates(w, req)

		result := w.Result()
		if result.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", result.StatusCode)
		}
	})
}

func TestSSEHandler_StreamRegionalUpdates(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := newTestSSEHandler(eventBus, newStubLiveStore(providers.RawSnapshot{}))

	t.Run("should establish regional SSE connection", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/hospitals/region?lat=16.5062&lon=80.6480&radius=25", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamRegionalUpdates(w, req)
			close(done)
		}()
		time.Sleep(100 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		if result.Header.Get("Content-Type") != "text/event-stream" {
			t.Errorf("Expected Content-Type text/event-stream, got %s", result.Header.Get("Content-Type"))
		}
	})

	t.Run("should filter events by region", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/hospitals/region?lat=16.5062&lon=80.6480&radius=10", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamRegionalUpdates(w, req)
			close(done)
		}()
		time.Sleep(100 * time.Millisecond)

		// Publish event within region
		eventInRegion := entities.NewHospitalEvent(
			"vijayawada_general",
			entities.HospitalEventTypeStatusUpdate,
			entities.Coordinate{Latitude: 16.5128, Longitude: 80.6263},
			map[string]interface{}{"status": "Busy"},
		)

		// Publish event outside region
		eventOutsideRegion := entities.NewHospitalEvent(
			"chennai_apollo",
			entities.HospitalEventTypeStatusUpdate,
			entities.Coordinate{Latitude: 13.0827, Longitude: 80.2707},
			map[string]interface{}{"status": "Ready"},
		)

		eventBus.Publish(context.Background(), providers.EventChannelHospitalUpdates, eventInRegion)
		eventBus.Publish(context.Background(), providers.EventChannelHospitalUpdates, eventOutsideRegion)

		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		body := w.Body.String()
		if !strings.Contains(body, "vijayawada_general") {
			t.Error("Expected in-region event in stream body")
		}
		if strings.Contains(body, "chennai_apollo") {
			t.Error("Did not expect out-of-region event in stream body")
		}
	})

	t.Run("should return error for invalid parameters", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stream/hospitals/region?lat=invalid&lon=80.6480", nil)
		w := httptest.NewRecorder()

		handler.StreamRegionalUpdates(w, req)

		result := w.Result()
		if result.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", result.StatusCode)
		}
	})
}

func TestSSEHandler_StreamRecommendations(t *testing.T) {
	blob := func(name string, lat, lng float64, beds int) json.RawMessage {
		record := map[string]interface{}{
			"hospital_name": name,
			"coordinates":   map[string]interface{}{"lat": lat, "lng": lng},
			"availability":  map[string]interface{}{"beds": beds, "icu_beds": 2},
			"status":        "Ready",
		}
		raw, _ := json.Marshal(record)
		return raw
	}

	store := newStubLiveStore(providers.RawSnapshot{
		"vijayawada_general": blob("Government General Hospital", 16.5128, 80.6263, 42),
		"andhra_hospitals":   blob("Andhra Hospitals", 16.5193, 80.6305, 18),
	})
	handler := newTestSSEHandler(NewMockEventBus(), store)

	t.Run("should push an initial ready view", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/recommendations?lat=16.5062&lon=80.6480", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamRecommendations(w, req)
			close(done)
		}()
		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		body := w.Body.String()
		if !strings.Contains(body, "event: view") {
			t.Error("Expected a view event in stream body")
		}
		if !strings.Contains(body, "vijayawada_general") {
			t.Error("Expected ranked hospitals in stream body")
		}
	})

	t.Run("should reject out-of-range coordinates", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stream/recommendations?lat=999&lon=80.6480", nil)
		w := httptest.NewRecorder()

		handler.StreamRecommendations(w, req)

		result := w.Result()
		if result.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", result.StatusCode)
		}
	})
}

func TestSSEHandler_ClientCount(t *testing.T) {
	eventBus := NewMockEventBus()
	handler := newTestSSEHandler(eventBus, newStubLiveStore(providers.RawSnapshot{}))

	// Initial count should be 0
	if count := handler.GetClientCount(); count != 0 {
		t.Errorf("Expected 0 clients, got %d", count)
	}

	// Start a connection
	req := httptest.NewRequest("GET", "/api/stream/hospitals/vijayawada_general", nil)
	req.SetPathValue("key", "vijayawada_general")
	w := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	go handler.StreamHospitalUpdates(w, req)
	time.Sleep(100 * time.Millisecond)

	// Count should be 1
	if count := handler.GetClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	// Cancel connection
	cancel()
	time.Sleep(100 * time.Millisecond)

	// Count should be 0 again
	if count := handler.GetClientCount(); count != 0 {
		t.Errorf("Expected 0 clients after disconnect, got %d", count)
	}
}
