package providers

import (
	"context"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to hospital
// change notifications
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.HospitalEvent) error

	// Subscribe subscribes to events on a channel. The subscription is
	// released when ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.HospitalEvent, error)

	// Unsubscribe drops all subscribers from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelHospitalUpdates carries every hospital write
	EventChannelHospitalUpdates = "hospitals:updates"

	// EventChannelHospitalPrefix is the prefix for per-hospital channels
	EventChannelHospitalPrefix = "hospitals:"
)

// GetHospitalChannel returns the channel name for one hospital's updates
func GetHospitalChannel(hospitalKey string) string {
	return EventChannelHospitalPrefix + hospitalKey
}
