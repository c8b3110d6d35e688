package entities

import "time"

// HospitalProfile is the durable, slow-changing identity of a hospital in
// the registry: who it is and where it sits. Live availability lives in the
// external store, addressed by ExternalKey.
type HospitalProfile struct {
	ID          string     `json:"id" db:"id"`
	ExternalKey string     `json:"external_key" db:"external_key"`
	Name        string     `json:"name" db:"name"`
	Location    Coordinate `json:"location" db:"-"`
	City        string     `json:"city" db:"city"`
	PhoneNumber string     `json:"phone_number" db:"phone_number"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
