package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/lifeline-health/hospitalfinder/internal/adapters/database"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/events"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/search"
	"github.com/lifeline-health/hospitalfinder/internal/adapters/store"
	"github.com/lifeline-health/hospitalfinder/internal/application/services"
	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/postgres"
	redisclient "github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/redis"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/clients/typesense"
	"github.com/lifeline-health/hospitalfinder/internal/infrastructure/observability"
	"github.com/lifeline-health/hospitalfinder/pkg/config"
)

type seedHospital struct {
	key         string
	name        string
	city        string
	phone       string
	lat         float64
	lng         float64
	beds        int
	icuBeds     int
	status      string
	specialists map[string]int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	observability.InitLogger("hospital-finder-seeder", os.Getenv("APP_ENV"))
	logger := *observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	ctx := context.Background()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	var searchRepo *search.TypesenseAdapter
	if err == nil {
		searchRepo = search.NewTypesenseAdapter(tsClient)
		searchRepo.InitSchema(ctx)
	} else {
		log.Printf("Typesense unavailable, seeding without name search index: %v", err)
	}

	registryRepo := database.NewHospitalAdapter(pgClient)
	var registryService *services.RegistryService
	if searchRepo != nil {
		registryService = services.NewRegistryService(registryRepo, searchRepo, logger)
	} else {
		registryService = services.NewRegistryService(registryRepo, nil, logger)
	}

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()
	liveStore := store.NewRedisLiveStore(redisClient, eventBus, logger)

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE hospitals RESTART IDENTITY CASCADE`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	hospitals := []seedHospital{
		{
			key: "vijayawada_government_general", name: "Government General Hospital Vijayawada",
			city: "Vijayawada", phone: "+91-866-2574201",
			lat: 16.5128, lng: 80.6263,
			beds: 42, icuBeds: 8, status: "Ready",
			specialists: map[string]int{"general": 12, "cardiac": 4, "neurology": 3, "orthopedic": 5, "pediatrics": 6, "oncology": 2},
		},
		{
			key: "andhra_hospitals_vijayawada", name: "Andhra Hospitals",
			city: "Vijayawada", phone: "+91-866-2466666",
			lat: 16.5193, lng: 80.6305,
			beds: 18, icuBeds: 4, status: "Busy",
			specialists: map[string]int{"general": 8, "cardiac": 6, "pediatrics": 10, "gynecology": 4, "nephrology": 2},
		},
		{
			key: "manipal_hospital_vijayawada", name: "Manipal Hospital Vijayawada",
			city: "Vijayawada", phone: "+91-866-6676666",
			lat: 16.4998, lng: 80.6554,
			beds: 27, icuBeds: 6, status: "Ready",
			specialists: map[string]int{"general": 9, "cardiac": 7, "neurology": 4, "urology": 3, "oncology": 5, "radiology": 3},
		},
		{
			key: "ramesh_hospitals_gunadala", name: "Ramesh Hospitals Gunadala",
			city: "Vijayawada", phone: "+91-866-2459999",
			lat: 16.5215, lng: 80.6617,
			beds: 9, icuBeds: 2, status: "Busy",
			specialists: map[string]int{"cardiac": 11, "general": 5, "pulmonology": 3, "anesthesiology": 4},
		},
		{
			key: "kamineni_hospitals_poranki", name: "Kamineni Hospitals Poranki",
			city: "Vijayawada", phone: "+91-866-2455511",
			lat: 16.4693, lng: 80.7094,
			beds: 33, icuBeds: 5, status: "Ready",
			specialists: map[string]int{"general": 7, "orthopedic": 6, "neurology": 5, "gynecology": 3, "ent": 2, "psychiatry": 2},
		},
		{
			key: "guntur_government_general", name: "Government General Hospital Guntur",
			city: "Guntur", phone: "+91-863-2222057",
			lat: 16.2987, lng: 80.4428,
			beds: 51, icuBeds: 10, status: "Ready",
			specialists: map[string]int{"general": 15, "cardiac": 3, "orthopedic": 7, "pediatrics": 8, "dermatology": 2, "ophthalmology": 3},
		},
		{
			key: "nri_general_hospital_chinakakani", name: "NRI General Hospital Chinakakani",
			city: "Guntur", phone: "+91-863-2293377",
			lat: 16.4420, lng: 80.5410,
			beds: 0, icuBeds: 1, status: "Full",
			specialists: map[string]int{"general": 10, "cardiac": 5, "neurology": 6, "nephrology": 4, "urology": 3},
		},
		{
			key: "aiims_mangalagiri", name: "AIIMS Mangalagiri",
			city: "Mangalagiri", phone: "+91-864-5233100",
			lat: 16.4150, lng: 80.5500,
			beds: 24, icuBeds: 7, status: "Busy",
			specialists: map[string]int{"general": 14, "cardiac": 8, "neurology": 7, "oncology": 6, "pulmonology": 5, "radiology": 4},
		},
	}

	now := time.Now().UTC()
	seeded := 0

	for _, h := range hospitals {
		profile := &entities.HospitalProfile{
			ID:          uuid.New().String(),
			ExternalKey: h.key,
			Name:        h.name,
			Location:    entities.Coordinate{Latitude: h.lat, Longitude: h.lng},
			City:        h.city,
			PhoneNumber: h.phone,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := registryService.Register(ctx, profile); err != nil {
			log.Printf("Failed to register hospital %s: %v", h.name, err)
			continue
		}

		specialists := make(map[string]int, len(h.specialists))
		for dept, count := range h.specialists {
			if !entities.IsKnownDepartment(dept) {
				log.Printf("Skipping unknown department %q for %s", dept, h.name)
				continue
			}
			specialists[dept] = count
		}

		record := map[string]interface{}{
			"hospital_name": h.name,
			"coordinates": map[string]interface{}{
				"lat": h.lat,
				"lng": h.lng,
			},
			"availability": map[string]interface{}{
				"beds":        h.beds,
				"icu_beds":    h.icuBeds,
				"specialists": specialists,
			},
			"status":          h.status,
			"last_updated":    now.Format(time.RFC3339),
			"last_updated_ms": now.UnixMilli(),
		}
		blob, err := json.Marshal(record)
		if err != nil {
			log.Printf("Failed to encode live record for %s: %v", h.name, err)
			continue
		}
		if err := liveStore.SetRecord(ctx, h.key, blob); err != nil {
			log.Printf("Failed to write live record for %s: %v", h.name, err)
			continue
		}

		seeded++
	}

	log.Printf("Seeding completed: %d of %d hospitals registered with live availability", seeded, len(hospitals))
}
