package routes

import (
	"net/http"

	"github.com/lifeline-health/hospitalfinder/internal/api/handlers"
	"github.com/lifeline-health/hospitalfinder/internal/api/middleware"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	recommendationHandler *handlers.RecommendationHandler
	hospitalHandler       *handlers.HospitalHandler
	patientCaseHandler    *handlers.PatientCaseHandler
	geolocationHandler    *handlers.GeolocationHandler
	sseHandler            *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	recommendationHandler *handlers.RecommendationHandler,
	hospitalHandler *handlers.HospitalHandler,
	patientCaseHandler *handlers.PatientCaseHandler,
	geolocationHandler *handlers.GeolocationHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		recommendationHandler: recommendationHandler,
		hospitalHandler:       hospitalHandler,
		patientCaseHandler:    patientCaseHandler,
		geolocationHandler:    geolocationHandler,
		sseHandler:            sseHandler,
		cacheMiddleware:       cacheMiddleware,
		metrics:               metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Recommendation endpoints
	r.mux.HandleFunc("GET /api/recommendations", r.recommendationHandler.GetRecommendations)

	// Hospital registry endpoints
	r.mux.HandleFunc("GET /api/hospitals", r.hospitalHandler.ListHospitals)
	r.mux.HandleFunc("POST /api/hospitals", r.hospitalHandler.RegisterHospital)
	r.mux.HandleFunc("GET /api/hospitals/search", r.hospitalHandler.SearchHospitals)
	r.mux.HandleFunc("GET /api/hospitals/{id}", r.hospitalHandler.GetHospital)

	// Live availability writes (admin control panel)
	r.mux.HandleFunc("PATCH /api/hospitals/{key}/availability", r.hospitalHandler.UpdateAvailability)

	// Patient case endpoints
	r.mux.HandleFunc("POST /api/hospitals/{key}/cases", r.patientCaseHandler.SubmitCase)
	r.mux.HandleFunc("GET /api/hospitals/{key}/cases", r.patientCaseHandler.ListCases)
	r.mux.HandleFunc("PATCH /api/hospitals/{key}/cases/{caseId}", r.patientCaseHandler.TransitionCase)

	// Geolocation endpoints
	r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)
	r.mux.HandleFunc("GET /api/reverse-geocode", r.geolocationHandler.ReverseGeocode)

	// Streaming endpoints
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/recommendations", r.sseHandler.StreamRecommendations)
		r.mux.HandleFunc("GET /api/stream/hospitals/region", r.sseHandler.StreamRegionalUpdates)
		r.mux.HandleFunc("GET /api/stream/hospitals/{key}", r.sseHandler.StreamHospitalUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
