package providers

import (
	"context"
	"errors"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
)

// Location failure modes surfaced by a LocationProvider. The recommendation
// session treats all three as terminal for the session: scoring is blocked
// until a location exists and there is no automatic retry.
var (
	ErrLocationPermissionDenied = errors.New("location permission denied")
	ErrLocationUnavailable      = errors.New("location unavailable")
	ErrLocationTimeout          = errors.New("location request timed out")
)

// LocationProvider resolves the user's position
type LocationProvider interface {
	// RequestLocation returns the device position or one of the typed
	// location errors above. Implementations apply their own timeout and
	// must return ErrLocationTimeout when it elapses.
	RequestLocation(ctx context.Context) (entities.Coordinate, error)

	// Geocode converts a free-form address to coordinates, for intake forms
	// where no device position is available
	Geocode(ctx context.Context, address string) (*entities.Coordinate, error)

	// ReverseGeocode converts coordinates to a display address
	ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodedAddress, error)
}

// GeocodedAddress represents a reverse-geocoded position
type GeocodedAddress struct {
	FormattedAddress string
	Street           string
	City             string
	State            string
	Country          string
	Coordinates      entities.Coordinate
}
