package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

func TestDistanceKmIdentity(t *testing.T) {
	assert.Zero(t, DistanceKm(12.9716, 77.5946, 12.9716, 77.5946))
	assert.Zero(t, DistanceKm(0, 0, 0, 0))
}

func TestDistanceKmSymmetry(t *testing.T) {
	d1 := DistanceKm(12.9716, 77.5946, 13.0827, 80.2707)
	d2 := DistanceKm(13.0827, 80.2707, 12.9716, 77.5946)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKmKnownValue(t *testing.T) {
	// Bengaluru to Chennai is roughly 290 km great-circle.
	d := DistanceKm(12.9716, 77.5946, 13.0827, 80.2707)
	assert.InDelta(t, 290, d, 10)
}

func candidate(name string, rating float64, count int, lat, lng float64) Candidate {
	return Candidate{
		Name: name,
		Profile: domain.StaffProfile{
			UserID:   name,
			Rating:   domain.Rating{Sum: rating * float64(count), Count: count},
			WorkArea: domain.WorkArea{Location: &domain.Location{Lat: lat, Lng: lng}},
		},
	}
}

func TestRankOrdersByRatingThenDistance(t *testing.T) {
	// ~1km north vs ~2km north of origin at the equator.
	origin := 0.0
	near := candidate("near", 4.5, 10, 0.009, 0)
	far := candidate("far", 4.0, 10, 0.018, 0)

	ranked := Rank([]Candidate{far, near}, origin, origin)
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].Name)
	assert.Equal(t, "far", ranked[1].Name)
}

func TestRankDistanceBreaksRatingTies(t *testing.T) {
	near := candidate("near", 4.0, 5, 0.009, 0)
	far := candidate("far", 4.0, 5, 0.045, 0)

	ranked := Rank([]Candidate{far, near}, 0, 0)
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].Name)
	assert.Less(t, ranked[0].DistanceKm, ranked[1].DistanceKm)
}

func TestRankComputesArrivalEstimate(t *testing.T) {
	// 0.045 degrees latitude is ~5km, so the 2 min/km heuristic gives ~10min.
	ranked := Rank([]Candidate{candidate("s", 4.0, 1, 0.045, 0)}, 0, 0)
	require.Len(t, ranked, 1)
	assert.InDelta(t, 5.0, ranked[0].DistanceKm, 0.1)
	assert.InDelta(t, 10, ranked[0].EstimatedArrivalMins, 1)
}

func TestRankSkipsCandidatesWithoutLocation(t *testing.T) {
	noLoc := Candidate{Name: "ghost", Profile: domain.StaffProfile{UserID: "ghost"}}
	ranked := Rank([]Candidate{noLoc, candidate("s", 4.0, 1, 0.01, 0)}, 0, 0)
	require.Len(t, ranked, 1)
	assert.Equal(t, "s", ranked[0].Name)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []Candidate{
		candidate("a", 3.0, 1, 0.01, 0),
		candidate("b", 5.0, 1, 0.02, 0),
	}
	Rank(in, 0, 0)
	assert.Equal(t, "a", in[0].Name)
	assert.Equal(t, "b", in[1].Name)
}
