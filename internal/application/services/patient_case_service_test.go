package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	apperrors "github.com/lifeline-health/hospitalfinder/pkg/errors"
)

func validCase() *entities.PatientCase {
	return &entities.PatientCase{
		Department:     "cardiac",
		Condition:      "chest pain, suspected MI",
		Severity:       entities.SeverityCritical,
		Location:       entities.Coordinate{Latitude: 16.5062, Longitude: 80.6480},
		IsGoldenHour:   true,
		ParamedicEmail: "medic@example.com",
	}
}

func TestCaseSubmit_AssignsIDStatusAndTimestamp(t *testing.T) {
	store := new(MockLiveStore)
	svc := NewPatientCaseService(store, zerolog.Nop())

	var stored *entities.PatientCase
	store.On("AppendCase", mock.Anything, "hospital1", mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).(*entities.PatientCase)
		}).
		Return(nil)

	submitted, err := svc.Submit(context.Background(), "hospital1", validCase())
	require.NoError(t, err)

	assert.NotEmpty(t, submitted.ID)
	assert.Equal(t, entities.CaseStatusSent, submitted.Status)
	assert.WithinDuration(t, time.Now().UTC(), submitted.SentAt, 5*time.Second)
	assert.Equal(t, submitted, stored)
	store.AssertExpectations(t)
}

func TestCaseSubmit_DoesNotMutateInput(t *testing.T) {
	store := new(MockLiveStore)
	svc := NewPatientCaseService(store, zerolog.Nop())
	store.On("AppendCase", mock.Anything, "hospital1", mock.Anything).Return(nil)

	in := validCase()
	_, err := svc.Submit(context.Background(), "hospital1", in)
	require.NoError(t, err)

	assert.Empty(t, in.ID)
	assert.Empty(t, string(in.Status))
}

func TestCaseSubmit_RejectsInvalidCase(t *testing.T) {
	store := new(MockLiveStore)
	svc := NewPatientCaseService(store, zerolog.Nop())

	bad := validCase()
	bad.Department = "astrology"
	_, err := svc.Submit(context.Background(), "hospital1", bad)
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	store.AssertNotCalled(t, "AppendCase", mock.Anything, mock.Anything, mock.Anything)
}

func TestCaseTransition_FollowsWorkflow(t *testing.T) {
	store := new(MockLiveStore)
	svc := NewPatientCaseService(store, zerolog.Nop())

	sent := validCase()
	sent.ID = "case-1"
	sent.Status = entities.CaseStatusSent
	store.On("Cases", mock.Anything, "hospital1").Return([]*entities.PatientCase{sent}, nil)
	store.On("UpdateCaseStatus", mock.Anything, "hospital1", "case-1", entities.CaseStatusAccepted).Return(nil)

	err := svc.Transition(context.Background(), "hospital1", "case-1", entities.CaseStatusAccepted)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestCaseTransition_RejectsSkippedStep(t *testing.T) {
	store := new(MockLiveStore)
	svc := NewPatientCaseService(store, zerolog.Nop())

	sent := validCase()
	sent.ID = "case-1"
	sent.Status = entities.CaseStatusSent
	store.On("Cases", mock.Anything, "hospital1").Return([]*entities.PatientCase{sent}, nil)

	err := svc.Transition(context.Background(), "hospital1", "case-1", entities.CaseStatusCompleted)
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	store.AssertNotCalled(t, "UpdateCaseStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCaseTransition_CompletedIsTerminal(t *testing.T) {
	store := new(MockLiveStore)
	svc := NewPatientCaseService(store, zerolog.Nop())

	done := validCase()
	done.ID = "case-1"
	done.Status = entities.CaseStatusCompleted
	store.On("Cases", mock.Anything, "hospital1").Return([]*entities.PatientCase{done}, nil)

	err := svc.Transition(context.Background(), "hospital1", "case-1", entities.CaseStatusAccepted)
	assert.Error(t, err)
}

func TestCaseTransition_UnknownCase(t *testing.T) {
	store := new(MockLiveStore)
	svc := NewPatientCaseService(store, zerolog.Nop())
	store.On("Cases", mock.Anything, "hospital1").Return([]*entities.PatientCase{}, nil)

	err := svc.Transition(context.Background(), "hospital1", "missing", entities.CaseStatusAccepted)
	require.Error(t, err)

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}
