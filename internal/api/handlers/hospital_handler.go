package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lifeline-health/hospitalfinder/internal/application/services"
	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/repositories"
	apperrors "github.com/lifeline-health/hospitalfinder/pkg/errors"
)

// HospitalHandler handles hospital registry and availability HTTP requests
type HospitalHandler struct {
	registry     *services.RegistryService
	availability *services.AvailabilityService
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(registry *services.RegistryService, availability *services.AvailabilityService) *HospitalHandler {
	return &HospitalHandler{
		registry:     registry,
		availability: availability,
	}
}

// GetHospital handles GET /api/hospitals/{id}
func (h *HospitalHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.PathValue("id")
	if hospitalID == "" {
		respondWithError(w, http.StatusBadRequest, "hospital ID is required")
		return
	}

	hospital, err := h.registry.GetByID(r.Context(), hospitalID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, hospital)
}

// ListHospitals handles GET /api/hospitals
func (h *HospitalHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repositories.HospitalFilter{
		City:   query.Get("city"),
		Limit:  30,
		Offset: 0,
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	hospitals, err := h.registry.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list hospitals")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}

// RegisterHospital handles POST /api/hospitals
func (h *HospitalHandler) RegisterHospital(w http.ResponseWriter, r *http.Request) {
	var hospital entities.HospitalProfile
	if err := json.NewDecoder(r.Body).Decode(&hospital); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.registry.Register(r.Context(), &hospital); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, hospital)
}

// SearchHospitals handles GET /api/hospitals/search?q=...
func (h *HospitalHandler) SearchHospitals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "search query is required")
		return
	}

	limit := 10
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
		limit = parsed
	}

	hospitals, err := h.registry.SearchByName(r.Context(), query, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to search hospitals")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}

// UpdateAvailability handles PATCH /api/hospitals/{key}/availability
func (h *HospitalHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	hospitalKey := r.PathValue("key")
	if hospitalKey == "" {
		respondWithError(w, http.StatusBadRequest, "hospital key is required")
		return
	}

	var upd services.AvailabilityUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.availability.Update(r.Context(), hospitalKey, upd); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "updated",
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps application errors to HTTP status codes
func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
