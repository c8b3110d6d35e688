package entities

// RankedHospital is the Scoring Engine's output for one hospital. It is
// derived data: recomputed wholesale on every input change and never
// persisted or partially mutated.
type RankedHospital struct {
	Hospital

	DistanceKm             float64 `json:"distance_km"`
	TravelMinutes          float64 `json:"travel_minutes"`
	BedAvailabilityPercent int     `json:"bed_availability_percent"`
	Score                  float64 `json:"score"`
	Rank                   int     `json:"rank"`
}
