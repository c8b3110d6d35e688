package entities

import (
	"time"

	"github.com/google/uuid"
)

// HospitalEventType classifies a live-store change notification
type HospitalEventType string

const (
	HospitalEventTypeAvailabilityUpdate HospitalEventType = "availability_update"
	HospitalEventTypeStatusUpdate       HospitalEventType = "status_update"
	HospitalEventTypeCaseCreated        HospitalEventType = "case_created"
	HospitalEventTypeCaseStatusUpdate   HospitalEventType = "case_status_update"
)

// HospitalEvent is the change notification published whenever a hospital's
// live record is written. Subscribers treat it as an invalidation signal and
// re-read the full snapshot; ChangedFields is informational.
type HospitalEvent struct {
	ID            string                 `json:"id"`
	HospitalKey   string                 `json:"hospital_key"`
	EventType     HospitalEventType      `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	Location      Coordinate             `json:"location"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewHospitalEvent creates an event with a fresh id and timestamp
func NewHospitalEvent(hospitalKey string, eventType HospitalEventType, location Coordinate, changedFields map[string]interface{}) *HospitalEvent {
	return &HospitalEvent{
		ID:            uuid.NewString(),
		HospitalKey:   hospitalKey,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		Location:      location,
		ChangedFields: changedFields,
	}
}
