package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lifeline-health/hospitalfinder/internal/application/services"
	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
)

// PatientCaseHandler handles paramedic case submission and the receiving
// hospital's case workflow
type PatientCaseHandler struct {
	cases *services.PatientCaseService
}

// NewPatientCaseHandler creates a new patient case handler
func NewPatientCaseHandler(cases *services.PatientCaseService) *PatientCaseHandler {
	return &PatientCaseHandler{cases: cases}
}

// SubmitCase handles POST /api/hospitals/{key}/cases
func (h *PatientCaseHandler) SubmitCase(w http.ResponseWriter, r *http.Request) {
	hospitalKey := r.PathValue("key")
	if hospitalKey == "" {
		respondWithError(w, http.StatusBadRequest, "hospital key is required")
		return
	}

	var patientCase entities.PatientCase
	if err := json.NewDecoder(r.Body).Decode(&patientCase); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	submitted, err := h.cases.Submit(r.Context(), hospitalKey, &patientCase)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, submitted)
}

// ListCases handles GET /api/hospitals/{key}/cases
func (h *PatientCaseHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	hospitalKey := r.PathValue("key")
	if hospitalKey == "" {
		respondWithError(w, http.StatusBadRequest, "hospital key is required")
		return
	}

	cases, err := h.cases.Incoming(r.Context(), hospitalKey)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cases": cases,
		"count": len(cases),
	})
}

// TransitionCase handles PATCH /api/hospitals/{key}/cases/{caseId}
func (h *PatientCaseHandler) TransitionCase(w http.ResponseWriter, r *http.Request) {
	hospitalKey := r.PathValue("key")
	caseID := r.PathValue("caseId")
	if hospitalKey == "" || caseID == "" {
		respondWithError(w, http.StatusBadRequest, "hospital key and case ID are required")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	next := entities.CaseStatus(body.Status)
	switch next {
	case entities.CaseStatusAccepted, entities.CaseStatusCompleted:
	default:
		respondWithError(w, http.StatusBadRequest, "status must be accepted or completed")
		return
	}

	if err := h.cases.Transition(r.Context(), hospitalKey, caseID, next); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": string(next),
	})
}
