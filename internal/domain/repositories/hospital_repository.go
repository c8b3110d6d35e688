package repositories

import (
	"context"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
)

// HospitalRegistry defines the interface for durable hospital identity data
type HospitalRegistry interface {
	// Create registers a new hospital
	Create(ctx context.Context, hospital *entities.HospitalProfile) error

	// GetByID retrieves a hospital by ID
	GetByID(ctx context.Context, id string) (*entities.HospitalProfile, error)

	// GetByExternalKey retrieves a hospital by its live-store key
	GetByExternalKey(ctx context.Context, key string) (*entities.HospitalProfile, error)

	// Update updates a hospital's registry record
	Update(ctx context.Context, hospital *entities.HospitalProfile) error

	// Delete deactivates a hospital
	Delete(ctx context.Context, id string) error

	// List retrieves hospitals with filters
	List(ctx context.Context, filter HospitalFilter) ([]*entities.HospitalProfile, error)
}

// HospitalSearchRepository defines name search over the registry
// (e.g. Typesense), used by the admin control panel's hospital picker
type HospitalSearchRepository interface {
	// Search finds hospitals whose name matches the query
	Search(ctx context.Context, query string, limit int) ([]*entities.HospitalProfile, error)

	// Index indexes a hospital profile
	Index(ctx context.Context, hospital *entities.HospitalProfile) error

	// Delete removes a hospital from the index
	Delete(ctx context.Context, id string) error
}

// HospitalFilter defines filters for listing hospitals
type HospitalFilter struct {
	City     string
	IsActive *bool
	Limit    int
	Offset   int
}
