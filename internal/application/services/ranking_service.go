package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
	"github.com/lifeline-health/hospitalfinder/pkg/geo"
)

const (
	// Assumed average ambulance speed; the travel estimate is an
	// approximation, not a routed ETA.
	avgSpeedKmPerHour = 40.0

	// Floor for the travel-time estimate so a hospital at the user's exact
	// position cannot produce an infinite score.
	minTravelMinutes = 0.1

	weightTolerance = 1e-9
)

// RankingConfig holds the scoring policy. Weights apply to metrics
// normalized against the candidate set's maxima and must sum to 1.0.
type RankingConfig struct {
	TopN              int
	BedsWeight        float64
	ICUWeight         float64
	SpecialistsWeight float64
	TravelWeight      float64
}

// DefaultRankingConfig returns the documented default policy
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		TopN:              2,
		BedsWeight:        0.35,
		ICUWeight:         0.30,
		SpecialistsWeight: 0.20,
		TravelWeight:      0.15,
	}
}

// Validate checks the config is usable
func (c RankingConfig) Validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("top-n must be at least 1, got %d", c.TopN)
	}
	sum := c.BedsWeight + c.ICUWeight + c.SpecialistsWeight + c.TravelWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("ranking weights must sum to 1.0, got %f", sum)
	}
	return nil
}

// RankingService computes a deterministic total order over hospitals for a
// given user position. It is pure and never fails for well-formed input:
// division-by-zero is prevented by flooring, not error handling.
type RankingService struct {
	cfg RankingConfig
}

// NewRankingService creates a ranking service with a validated config
func NewRankingService(cfg RankingConfig) (*RankingService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RankingService{cfg: cfg}, nil
}

// Config returns the active ranking policy
func (s *RankingService) Config() RankingConfig {
	return s.cfg
}

// Rank scores every non-Full hospital against the user position and returns
// the candidates sorted descending by score, plus the Full hospitals that
// were excluded up front. Ties keep input order (stable sort), so repeated
// runs over identical input yield identical lists.
func (s *RankingService) Rank(hospitals []entities.Hospital, user entities.Coordinate) ([]entities.RankedHospital, []entities.Hospital) {
	candidates := make([]entities.RankedHospital, 0, len(hospitals))
	var excluded []entities.Hospital

	for _, h := range hospitals {
		if h.StatusTier == entities.StatusTierRed {
			excluded = append(excluded, h)
			continue
		}

		distanceKm := geo.Distance(user, h.Location)
		travelMinutes := distanceKm / avgSpeedKmPerHour * 60
		if travelMinutes < minTravelMinutes {
			travelMinutes = minTravelMinutes
		}

		candidates = append(candidates, entities.RankedHospital{
			Hospital:               h,
			DistanceKm:             distanceKm,
			TravelMinutes:          travelMinutes,
			BedAvailabilityPercent: bedAvailabilityPercent(h),
		})
	}

	if len(candidates) == 0 {
		return candidates, excluded
	}

	// Maxima are floored at 1 so an all-zero metric contributes 0 for every
	// hospital instead of dividing by zero.
	maxBeds, maxICU, maxSpecialists := 1.0, 1.0, 1.0
	for _, c := range candidates {
		maxBeds = math.Max(maxBeds, float64(c.BedsAvailable))
		maxICU = math.Max(maxICU, float64(c.ICUBedsAvailable))
		maxSpecialists = math.Max(maxSpecialists, float64(c.SpecialistCount))
	}

	for i := range candidates {
		c := &candidates[i]
		c.Score = s.cfg.BedsWeight*float64(c.BedsAvailable)/maxBeds +
			s.cfg.ICUWeight*float64(c.ICUBedsAvailable)/maxICU +
			s.cfg.SpecialistsWeight*float64(c.SpecialistCount)/maxSpecialists +
			s.cfg.TravelWeight/c.TravelMinutes
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	for i := range candidates {
		candidates[i].Rank = i
	}

	return candidates, excluded
}

// Recommended returns the top-N slice of an already-ranked list
func (s *RankingService) Recommended(ranked []entities.RankedHospital) []entities.RankedHospital {
	if len(ranked) <= s.cfg.TopN {
		return ranked
	}
	return ranked[:s.cfg.TopN]
}

// bedAvailabilityPercent is a display-only figure: general beds as a share
// of all reported beds. Not a scoring input.
func bedAvailabilityPercent(h entities.Hospital) int {
	total := h.BedsAvailable + h.ICUBedsAvailable
	if total < 1 {
		total = 1
	}
	return int(math.Round(100 * float64(h.BedsAvailable) / float64(total)))
}
