package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lifeline-health/hospitalfinder/internal/application/services"
	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
)

// RecommendationHandler serves one-shot hospital recommendations: read the
// current snapshot, normalize, rank against the caller's position and return
// the full view. Live updates go through the SSE stream instead.
type RecommendationHandler struct {
	store      providers.LiveStore
	normalizer *services.SnapshotNormalizer
	ranker     *services.RankingService
	logger     zerolog.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(store providers.LiveStore, ranker *services.RankingService, logger zerolog.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		store:      store,
		normalizer: services.NewSnapshotNormalizer(),
		ranker:     ranker,
		logger:     logger.With().Str("component", "recommendation_handler").Logger(),
	}
}

// GetRecommendations handles GET /api/recommendations?lat=X&lon=Y
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid latitude parameter")
		return
	}
	lon, err := strconv.ParseFloat(query.Get("lon"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid longitude parameter")
		return
	}

	user := entities.Coordinate{Latitude: lat, Longitude: lon}
	if err := user.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read live snapshot")
		respondWithError(w, http.StatusBadGateway, "live hospital data unavailable")
		return
	}

	hospitals, rejected := h.normalizer.Normalize(snap)
	ranked, excluded := h.ranker.Rank(hospitals, user)
	recommended := h.ranker.Recommended(ranked)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"recommended":   recommended,
		"ranked":        ranked,
		"excluded_full": excluded,
		"rejected":      rejected,
		"count":         len(ranked),
	})
}
