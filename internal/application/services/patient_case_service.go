package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
	apperrors "github.com/lifeline-health/hospitalfinder/pkg/errors"
)

// PatientCaseService handles emergency case submission and the receiving
// hospital's incoming-case workflow
type PatientCaseService struct {
	store  providers.LiveStore
	logger zerolog.Logger
}

// NewPatientCaseService creates a new patient case service
func NewPatientCaseService(store providers.LiveStore, logger zerolog.Logger) *PatientCaseService {
	return &PatientCaseService{
		store:  store,
		logger: logger.With().Str("component", "patient_case_service").Logger(),
	}
}

// Submit writes a patient case to the chosen hospital's record. The case is
// written exactly once: id, status and timestamp are assigned here and the
// clinical fields are frozen from this point on.
func (s *PatientCaseService) Submit(ctx context.Context, hospitalKey string, c *entities.PatientCase) (*entities.PatientCase, error) {
	if hospitalKey == "" {
		return nil, apperrors.NewValidationError("hospital key is required")
	}
	if err := c.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	submitted := *c
	submitted.ID = uuid.NewString()
	submitted.Status = entities.CaseStatusSent
	submitted.SentAt = time.Now().UTC()

	if err := s.store.AppendCase(ctx, hospitalKey, &submitted); err != nil {
		return nil, apperrors.NewExternalError("failed to submit patient case", err)
	}

	s.logger.Info().
		Str("hospital_key", hospitalKey).
		Str("case_id", submitted.ID).
		Str("severity", string(submitted.Severity)).
		Bool("golden_hour", submitted.IsGoldenHour).
		Msg("patient case submitted")
	return &submitted, nil
}

// Incoming returns a hospital's cases, newest first
func (s *PatientCaseService) Incoming(ctx context.Context, hospitalKey string) ([]*entities.PatientCase, error) {
	if hospitalKey == "" {
		return nil, apperrors.NewValidationError("hospital key is required")
	}

	cases, err := s.store.Cases(ctx, hospitalKey)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to load patient cases", err)
	}
	return cases, nil
}

// Transition moves a case through its workflow: sent -> accepted -> completed
func (s *PatientCaseService) Transition(ctx context.Context, hospitalKey, caseID string, next entities.CaseStatus) error {
	if hospitalKey == "" || caseID == "" {
		return apperrors.NewValidationError("hospital key and case id are required")
	}

	cases, err := s.store.Cases(ctx, hospitalKey)
	if err != nil {
		return apperrors.NewExternalError("failed to load patient cases", err)
	}

	var current *entities.PatientCase
	for _, c := range cases {
		if c.ID == caseID {
			current = c
			break
		}
	}
	if current == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("case %s not found for hospital %s", caseID, hospitalKey))
	}

	if !current.Status.CanTransitionTo(next) {
		return apperrors.NewConflictError(fmt.Sprintf("case %s cannot move from %s to %s", caseID, current.Status, next))
	}

	if err := s.store.UpdateCaseStatus(ctx, hospitalKey, caseID, next); err != nil {
		return apperrors.NewExternalError("failed to update case status", err)
	}

	s.logger.Info().
		Str("hospital_key", hospitalKey).
		Str("case_id", caseID).
		Str("status", string(next)).
		Msg("patient case status updated")
	return nil
}
