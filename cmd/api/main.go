package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lifeline-health/hospitalfinder/internal/adapters/cache"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/database"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/events"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/providers/geolocation"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/search"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/store"
	"github.com/lifeline-health/hospitalfinder/internal/api/handlers"
	"github.com/lifeline-health/hospitalfinder/internal/api/middleware"
	"github.com/lifeline-health/hospitalfinder/internal/api/routes"
	"github.com/lifeline-health/hospitalfinder/internal/application/services"
	"github.com/lifeline-health/hospitalfinder/internal/domain/providers"
	"github.com/lifeline-health/hospitalfinder/internal/domain/repositories"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/postgres"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/redis"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/typesense"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/observability"
	"github.com/lifeline-health/hospitalfinder/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("hospital-finder-api", os.Getenv("APP_ENV"))
	logger := *observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client. The live availability store runs on Redis,
	// so unlike caching this dependency is required.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized successfully")

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	// Initialize adapters
	cacheProvider := cache.NewRedisAdapter(redisClient)

	eventBus := events.NewRedisEventBus(redisClient)
	log.Println("Event bus initialized successfully")

	liveStore := store.NewRedisLiveStore(redisClient, eventBus, logger)

	hospitalRegistry := database.NewHospitalAdapter(pgClient)

	var searchRepo repositories.HospitalSearchRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		// Ensure schema exists
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		searchRepo = adapter
	}

	var locationProvider providers.LocationProvider
	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey == "" {
			log.Println("Warning: GEOLOCATION_API_KEY is not set; using mock location provider")
			locationProvider = geolocation.NewMockLocationProvider()
		} else {
			locationProvider = geolocation.NewGoogleLocationProvider(cfg.Geolocation.APIKey, cacheProvider)
		}
	default:
		locationProvider = geolocation.NewMockLocationProvider()
	}

	// Initialize services
	rankingService, err := services.NewRankingService(services.RankingConfig{
		TopN:              cfg.Ranking.TopN,
		BedsWeight:        cfg.Ranking.BedsWeight,
		ICUWeight:         cfg.Ranking.ICUWeight,
		SpecialistsWeight: cfg.Ranking.SpecialistsWeight,
		TravelWeight:      cfg.Ranking.TravelWeight,
	})
	if err != nil {
		log.Fatalf("Invalid ranking configuration: %v", err)
	}

	registryService := services.NewRegistryService(hospitalRegistry, searchRepo, logger)
	availabilityService := services.NewAvailabilityService(liveStore, logger)
	patientCaseService := services.NewPatientCaseService(liveStore, logger)

	// Initialize handlers
	recommendationHandler := handlers.NewRecommendationHandler(liveStore, rankingService, logger)
	hospitalHandler := handlers.NewHospitalHandler(registryService, availabilityService)
	patientCaseHandler := handlers.NewPatientCaseHandler(patientCaseService)
	geolocationHandler := handlers.NewGeolocationHandler(locationProvider)

	// Initialize cache middleware
	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider)
	log.Println("Cache middleware initialized successfully")

	// Set up router. SSE runs in its own binary, so no sse handler here.
	router := routes.NewRouter(
		recommendationHandler,
		hospitalHandler,
		patientCaseHandler,
		geolocationHandler,
		nil,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if err := eventBus.Close(); err != nil {
		log.Printf("Error closing event bus: %v", err)
	}

	log.Println("Server stopped")
}
