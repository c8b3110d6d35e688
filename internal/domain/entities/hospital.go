package entities

import "time"

// StatusTier is the coarse three-level availability signal for a hospital
type StatusTier string

const (
	StatusTierGreen  StatusTier = "green"
	StatusTierYellow StatusTier = "yellow"
	StatusTierRed    StatusTier = "red"
)

// Raw status strings written by the hospital control panel
const (
	StatusReady = "Ready"
	StatusBusy  = "Busy"
	StatusFull  = "Full"
)

// TierFromStatus maps a raw status string to a tier. Unrecognized or empty
// statuses deliberately map to green so a hospital with a garbled status is
// still eligible for recommendation.
func TierFromStatus(status string) StatusTier {
	switch status {
	case StatusReady:
		return StatusTierGreen
	case StatusBusy:
		return StatusTierYellow
	case StatusFull:
		return StatusTierRed
	default:
		return StatusTierGreen
	}
}

// Hospital is the normalized view of one hospital's live availability.
// All numeric fields are non-negative; missing fields normalize to zero.
type Hospital struct {
	ID                      string         `json:"id"`
	ExternalKey             string         `json:"external_key"`
	Name                    string         `json:"name"`
	Location                Coordinate     `json:"location"`
	BedsAvailable           int            `json:"beds_available"`
	ICUBedsAvailable        int            `json:"icu_beds_available"`
	SpecialistsByDepartment map[string]int `json:"specialists_by_department"`
	SpecialistCount         int            `json:"specialist_count"`
	StatusTier              StatusTier     `json:"status_tier"`
	LastUpdated             time.Time      `json:"last_updated"`
}

// Specialists returns the on-duty count for a department, zero when the
// department is not present in the mapping.
func (h *Hospital) Specialists(department string) int {
	return h.SpecialistsByDepartment[department]
}
