package geo

import (
	"math"
	"sort"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// minutesPerKm is the arrival-time heuristic: a flat 2 minutes per kilometer.
// This is a policy constant, not physics.
const minutesPerKm = 2

// DistanceKm returns the great-circle distance between two points in
// kilometers.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// RankedStaff is a dispatch candidate annotated with its distance from the
// search origin and a rough arrival estimate.
type RankedStaff struct {
	Profile              domain.StaffProfile
	Name                 string
	Email                string
	DistanceKm           float64
	EstimatedArrivalMins int
}

// Candidate pairs a staff profile with display identity for ranking.
type Candidate struct {
	Profile domain.StaffProfile
	Name    string
	Email   string
}

// Rank orders candidates by rating descending, ties broken by distance
// ascending. Candidates without a work-area point are skipped. The input
// slice is not mutated.
func Rank(candidates []Candidate, originLat, originLng float64) []RankedStaff {
	ranked := make([]RankedStaff, 0, len(candidates))
	for _, c := range candidates {
		loc := c.Profile.WorkArea.Location
		if loc == nil {
			continue
		}
		distance := DistanceKm(originLat, originLng, loc.Lat, loc.Lng)
		ranked = append(ranked, RankedStaff{
			Profile:              c.Profile,
			Name:                 c.Name,
			Email:                c.Email,
			DistanceKm:           math.Round(distance*100) / 100,
			EstimatedArrivalMins: int(math.Round(distance * minutesPerKm)),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Profile.Rating.Average(), ranked[j].Profile.Rating.Average()
		if ri != rj {
			return ri > rj
		}
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked
}
