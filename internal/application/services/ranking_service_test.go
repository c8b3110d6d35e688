package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-health/hospitalfinder/internal/domain/entities"
)

var testUser = entities.Coordinate{Latitude: 16.5062, Longitude: 80.6480}

func newTestRanker(t *testing.T) *RankingService {
	t.Helper()
	svc, err := NewRankingService(DefaultRankingConfig())
	require.NoError(t, err)
	return svc
}

func testHospital(id string, beds, icu, specialists int, lat, lng float64, tier entities.StatusTier) entities.Hospital {
	return entities.Hospital{
		ID:               id,
		ExternalKey:      id,
		Name:             id,
		Location:         entities.Coordinate{Latitude: lat, Longitude: lng},
		BedsAvailable:    beds,
		ICUBedsAvailable: icu,
		SpecialistCount:  specialists,
		StatusTier:       tier,
	}
}

func TestRankingConfig_WeightsMustSumToOne(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.BedsWeight = 0.5

	_, err := NewRankingService(cfg)
	assert.Error(t, err)
}

func TestRankingConfig_TopNMustBePositive(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.TopN = 0

	_, err := NewRankingService(cfg)
	assert.Error(t, err)
}

func TestRank_SortedNonIncreasing(t *testing.T) {
	svc := newTestRanker(t)

	hospitals := []entities.Hospital{
		testHospital("h1", 10, 2, 3, 16.55, 80.70, entities.StatusTierGreen),
		testHospital("h2", 4, 5, 1, 16.51, 80.65, entities.StatusTierGreen),
		testHospital("h3", 1, 0, 0, 16.60, 80.75, entities.StatusTierYellow),
		testHospital("h4", 20, 8, 6, 17.00, 81.00, entities.StatusTierGreen),
	}

	ranked, excluded := svc.Rank(hospitals, testUser)
	require.Len(t, ranked, 4)
	assert.Empty(t, excluded)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
		assert.Equal(t, i, ranked[i].Rank)
	}
}

func TestRank_FullHospitalsExcluded(t *testing.T) {
	svc := newTestRanker(t)

	// h3 is closest and best-equipped but Full; it must never be recommended
	hospitals := []entities.Hospital{
		testHospital("h1", 10, 2, 3, 16.55, 80.70, entities.StatusTierGreen),
		testHospital("h2", 4, 5, 1, 16.51, 80.65, entities.StatusTierGreen),
		testHospital("h3", 99, 99, 99, 16.507, 80.649, entities.StatusTierRed),
	}

	ranked, excluded := svc.Rank(hospitals, testUser)
	require.Len(t, ranked, 2)
	require.Len(t, excluded, 1)
	assert.Equal(t, "h3", excluded[0].ID)
	for _, r := range ranked {
		assert.NotEqual(t, "h3", r.ID)
	}
}

func TestRank_Idempotent(t *testing.T) {
	svc := newTestRanker(t)

	hospitals := []entities.Hospital{
		testHospital("h1", 5, 5, 5, 16.55, 80.70, entities.StatusTierGreen),
		testHospital("h2", 5, 5, 5, 16.55, 80.70, entities.StatusTierGreen),
		testHospital("h3", 2, 1, 0, 16.60, 80.60, entities.StatusTierGreen),
	}

	first, _ := svc.Rank(hospitals, testUser)
	second, _ := svc.Rank(hospitals, testUser)
	assert.Equal(t, first, second)

	// h1 and h2 are identical; the stable sort must keep input order
	assert.Equal(t, "h1", first[0].ID)
	assert.Equal(t, "h2", first[1].ID)
}

func TestRank_HospitalAtUserLocation(t *testing.T) {
	svc := newTestRanker(t)

	hospitals := []entities.Hospital{
		testHospital("here", 1, 1, 1, testUser.Latitude, testUser.Longitude, entities.StatusTierGreen),
	}

	ranked, _ := svc.Rank(hospitals, testUser)
	require.Len(t, ranked, 1)

	r := ranked[0]
	assert.Equal(t, 0.0, r.DistanceKm)
	assert.Equal(t, 0.1, r.TravelMinutes)
	assert.False(t, r.Score != r.Score, "score must not be NaN")
	assert.InDelta(t, 0.35+0.30+0.20+0.15/0.1, r.Score, 1e-9)
}

func TestRank_AllZeroMetricsRanksByDistance(t *testing.T) {
	svc := newTestRanker(t)

	hospitals := []entities.Hospital{
		testHospital("far", 0, 0, 0, 17.00, 81.00, entities.StatusTierGreen),
		testHospital("near", 0, 0, 0, 16.52, 80.66, entities.StatusTierGreen),
	}

	ranked, _ := svc.Rank(hospitals, testUser)
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].ID)
	assert.Equal(t, "far", ranked[1].ID)

	// With every capacity metric at zero the score reduces to the travel term
	for _, r := range ranked {
		assert.InDelta(t, 0.15/r.TravelMinutes, r.Score, 1e-9)
	}
}

func TestRank_WeightedScenario(t *testing.T) {
	svc := newTestRanker(t)

	// H1: strong on beds and specialists, 5km out. H2: strong on ICU, 1km
	// out. H3: Full at 0.5km, any metrics.
	hospitals := []entities.Hospital{
		testHospital("h1", 10, 2, 3, 16.5512, 80.6480, entities.StatusTierGreen),
		testHospital("h2", 4, 5, 1, 16.5152, 80.6480, entities.StatusTierGreen),
		testHospital("h3", 50, 50, 50, 16.5107, 80.6480, entities.StatusTierRed),
	}

	ranked, excluded := svc.Rank(hospitals, testUser)
	require.Len(t, ranked, 2)
	require.Len(t, excluded, 1)
	assert.Equal(t, "h3", excluded[0].ID)

	byID := map[string]entities.RankedHospital{}
	for _, r := range ranked {
		byID[r.ID] = r
	}
	require.Contains(t, byID, "h1")
	require.Contains(t, byID, "h2")

	// Recompute both scores from the formula and check the ordering matches
	for _, r := range ranked {
		expected := 0.35*float64(r.BedsAvailable)/10 +
			0.30*float64(r.ICUBedsAvailable)/5 +
			0.20*float64(r.SpecialistCount)/3 +
			0.15/r.TravelMinutes
		assert.InDelta(t, expected, r.Score, 1e-9)
	}
	if byID["h1"].Score > byID["h2"].Score {
		assert.Equal(t, 0, byID["h1"].Rank)
	} else {
		assert.Equal(t, 0, byID["h2"].Rank)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	svc := newTestRanker(t)

	ranked, excluded := svc.Rank(nil, testUser)
	assert.Empty(t, ranked)
	assert.Empty(t, excluded)
}

func TestRank_AllFullYieldsEmptyResult(t *testing.T) {
	svc := newTestRanker(t)

	hospitals := []entities.Hospital{
		testHospital("h1", 3, 1, 1, 16.55, 80.70, entities.StatusTierRed),
		testHospital("h2", 6, 2, 2, 16.51, 80.65, entities.StatusTierRed),
	}

	ranked, excluded := svc.Rank(hospitals, testUser)
	assert.Empty(t, ranked)
	assert.Len(t, excluded, 2)
}

func TestRank_BedAvailabilityPercent(t *testing.T) {
	svc := newTestRanker(t)

	hospitals := []entities.Hospital{
		testHospital("h1", 3, 1, 0, 16.55, 80.70, entities.StatusTierGreen),
		testHospital("h2", 0, 0, 0, 16.51, 80.65, entities.StatusTierGreen),
	}

	ranked, _ := svc.Rank(hospitals, testUser)
	byID := map[string]entities.RankedHospital{}
	for _, r := range ranked {
		byID[r.ID] = r
	}

	assert.Equal(t, 75, byID["h1"].BedAvailabilityPercent)
	assert.Equal(t, 0, byID["h2"].BedAvailabilityPercent)
}

func TestRecommended_TopNCutoff(t *testing.T) {
	svc := newTestRanker(t)

	hospitals := []entities.Hospital{
		testHospital("h1", 10, 2, 3, 16.55, 80.70, entities.StatusTierGreen),
		testHospital("h2", 4, 5, 1, 16.51, 80.65, entities.StatusTierGreen),
		testHospital("h3", 1, 1, 1, 16.60, 80.75, entities.StatusTierGreen),
	}

	ranked, _ := svc.Rank(hospitals, testUser)
	recommended := svc.Recommended(ranked)
	require.Len(t, recommended, 2)
	assert.Equal(t, ranked[0].ID, recommended[0].ID)
	assert.Equal(t, ranked[1].ID, recommended[1].ID)

	// A smaller candidate set is returned whole
	short := ranked[:1]
	assert.Len(t, svc.Recommended(short), 1)
}

func TestRecommended_ConfigurableTopN(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.TopN = 3
	svc, err := NewRankingService(cfg)
	require.NoError(t, err)

	hospitals := []entities.Hospital{
		testHospital("h1", 10, 2, 3, 16.55, 80.70, entities.StatusTierGreen),
		testHospital("h2", 4, 5, 1, 16.51, 80.65, entities.StatusTierGreen),
		testHospital("h3", 1, 1, 1, 16.60, 80.75, entities.StatusTierGreen),
		testHospital("h4", 2, 2, 2, 16.62, 80.78, entities.StatusTierGreen),
	}

	ranked, _ := svc.Rank(hospitals, testUser)
	assert.Len(t, svc.Recommended(ranked), 3)
}
