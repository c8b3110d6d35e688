package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
	apperrors "github.com/lifeline-health/hospitalfinder/pkg/errors"
	"github.com/lifeline-health/hospitalfinder/pkg/retry"
)

// AvailabilityUpdate is the partial field set the hospital control panel
// submits. Nil pointers mean "leave unchanged".
type AvailabilityUpdate struct {
	Beds        *int           `json:"beds,omitempty"`
	ICUBeds     *int           `json:"icu_beds,omitempty"`
	Status      *string        `json:"status,omitempty"`
	Specialists map[string]int `json:"specialists,omitempty"`
}

// AvailabilityService validates and applies admin-side availability writes
// to the live store
type AvailabilityService struct {
	store  providers.LiveStore
	logger zerolog.Logger
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(store providers.LiveStore, logger zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		logger: logger.With().Str("component", "availability_service").Logger(),
	}
}

// Update applies a partial availability update to one hospital's live
// record. Field paths mirror the store schema (availability/beds,
// availability/specialists/<dept>, status) and every write stamps
// last_updated so consumers can see record freshness.
func (s *AvailabilityService) Update(ctx context.Context, hospitalKey string, upd AvailabilityUpdate) error {
	if hospitalKey == "" {
		return apperrors.NewValidationError("hospital key is required")
	}

	fields, err := buildAvailabilityFields(upd)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return apperrors.NewValidationError("no fields to update")
	}

	now := time.Now().UTC()
	fields["last_updated"] = now.Format(time.RFC3339)
	fields["last_updated_ms"] = now.UnixMilli()

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 3
	err = retry.Do(ctx, cfg, func() error {
		return s.store.UpdateAvailability(ctx, hospitalKey, fields)
	})
	if err != nil {
		return apperrors.NewExternalError("failed to update hospital availability", err)
	}

	s.logger.Info().
		Str("hospital_key", hospitalKey).
		Int("fields", len(fields)).
		Msg("hospital availability updated")
	return nil
}

func buildAvailabilityFields(upd AvailabilityUpdate) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	if upd.Beds != nil {
		if *upd.Beds < 0 {
			return nil, apperrors.NewValidationError("beds must be non-negative")
		}
		fields["availability/beds"] = *upd.Beds
	}
	if upd.ICUBeds != nil {
		if *upd.ICUBeds < 0 {
			return nil, apperrors.NewValidationError("icu beds must be non-negative")
		}
		fields["availability/icu_beds"] = *upd.ICUBeds
	}
	if upd.Status != nil {
		switch *upd.Status {
		case entities.StatusReady, entities.StatusBusy, entities.StatusFull:
			fields["status"] = *upd.Status
		default:
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown status %q", *upd.Status))
		}
	}
	for dept, count := range upd.Specialists {
		if !entities.IsKnownDepartment(dept) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown department %q", dept))
		}
		if count < 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("specialist count for %s must be non-negative", dept))
		}
		fields["availability/specialists/"+dept] = count
	}

	return fields, nil
}
