package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/repositories"
	apperrors "github.com/lifeline-health/hospitalfinder/pkg/errors"
)

// RegistryService handles the durable hospital registry and keeps the name
// search index in step with it. Index failures are logged, not fatal: the
// registry is the source of truth and the index converges on the next write.
type RegistryService struct {
	repo       repositories.HospitalRegistry
	searchRepo repositories.HospitalSearchRepository
	logger     zerolog.Logger
}

// NewRegistryService creates a new registry service
func NewRegistryService(repo repositories.HospitalRegistry, searchRepo repositories.HospitalSearchRepository, logger zerolog.Logger) *RegistryService {
	return &RegistryService{
		repo:       repo,
		searchRepo: searchRepo,
		logger:     logger.With().Str("component", "registry_service").Logger(),
	}
}

// Register creates a hospital and indexes it for name search
func (s *RegistryService) Register(ctx context.Context, hospital *entities.HospitalProfile) error {
	if err := hospital.Location.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if hospital.ID == "" {
		hospital.ID = uuid.New().String()
	}
	if err := s.repo.Create(ctx, hospital); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, hospital); err != nil {
			s.logger.Warn().Err(err).Str("hospital_id", hospital.ID).Msg("failed to index hospital")
		}
	}
	return nil
}

// GetByID retrieves a hospital profile by ID
func (s *RegistryService) GetByID(ctx context.Context, id string) (*entities.HospitalProfile, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByExternalKey retrieves a hospital profile by its live-store key
func (s *RegistryService) GetByExternalKey(ctx context.Context, key string) (*entities.HospitalProfile, error) {
	return s.repo.GetByExternalKey(ctx, key)
}

// List retrieves hospitals with filters
func (s *RegistryService) List(ctx context.Context, filter repositories.HospitalFilter) ([]*entities.HospitalProfile, error) {
	return s.repo.List(ctx, filter)
}

// Update updates a hospital's registry record and refreshes the index
func (s *RegistryService) Update(ctx context.Context, hospital *entities.HospitalProfile) error {
	if err := hospital.Location.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if err := s.repo.Update(ctx, hospital); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, hospital); err != nil {
			s.logger.Warn().Err(err).Str("hospital_id", hospital.ID).Msg("failed to refresh hospital index")
		}
	}
	return nil
}

// Deactivate removes a hospital from the registry and the search index
func (s *RegistryService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("hospital_id", id).Msg("failed to remove hospital from index")
		}
	}
	return nil
}

// SearchByName finds hospitals whose name matches the query, falling back
// to a registry list scan when no search index is configured
func (s *RegistryService) SearchByName(ctx context.Context, query string, limit int) ([]*entities.HospitalProfile, error) {
	if limit <= 0 {
		limit = 10
	}
	if s.searchRepo != nil {
		return s.searchRepo.Search(ctx, query, limit)
	}
	return s.repo.List(ctx, repositories.HospitalFilter{Limit: limit})
}
