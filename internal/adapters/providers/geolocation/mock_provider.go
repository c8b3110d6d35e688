package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
)

// MockLocationProvider implements a mock location provider for development
// and testing. RequestLocation returns a fixed position.
type MockLocationProvider struct {
	position entities.Coordinate
}

// NewMockLocationProvider creates a mock provider centered on Vijayawada
func NewMockLocationProvider() providers.LocationProvider {
	return &MockLocationProvider{
		position: entities.Coordinate{Latitude: 16.5062, Longitude: 80.6480},
	}
}

// RequestLocation returns the fixed mock position
func (m *MockLocationProvider) RequestLocation(ctx context.Context) (entities.Coordinate, error) {
	return m.position, nil
}

// Geocode converts an address to coordinates (mock implementation)
func (m *MockLocationProvider) Geocode(ctx context.Context, address string) (*entities.Coordinate, error) {
	mockCoordinates := map[string]entities.Coordinate{
		"Vijayawada": {Latitude: 16.5062, Longitude: 80.6480},
		"Hyderabad":  {Latitude: 17.3850, Longitude: 78.4867},
		"Guntur":     {Latitude: 16.3067, Longitude: 80.4365},
		"Chennai":    {Latitude: 13.0827, Longitude: 80.2707},
		"Bangalore":  {Latitude: 12.9716, Longitude: 77.5946},
	}

	for city, coords := range mockCoordinates {
		if strings.Contains(address, city) {
			c := coords
			return &c, nil
		}
	}

	// Default to the mock position for unknown addresses
	c := m.position
	return &c, nil
}

// ReverseGeocode converts coordinates to an address (mock implementation)
func (m *MockLocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("%f, %f", lat, lon),
		Street:           "MG Road",
		City:             "Vijayawada",
		State:            "Andhra Pradesh",
		Country:          "India",
		Coordinates: entities.Coordinate{
			Latitude:  lat,
			Longitude: lon,
		},
	}, nil
}
