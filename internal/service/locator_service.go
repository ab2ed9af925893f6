package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-complaints/internal/cache"
	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/geo"
	"github.com/spec-kit/civic-complaints/internal/repository"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// LocatorService answers "who can respond near this point" queries. Results
// are ranked by rating then proximity and cached briefly in Redis.
type LocatorService struct {
	staff       repository.StaffRepository
	departments repository.DepartmentRepository
	nearbyCache cache.NearbyCache
	logger      *zap.Logger

	primaryRadiusKm  float64
	fallbackRadiusKm float64
	cacheTTL         time.Duration
}

// LocatorDependencies bundles collaborators for the locator service.
type LocatorDependencies struct {
	StaffRepo        repository.StaffRepository
	DepartmentRepo   repository.DepartmentRepository
	NearbyCache      cache.NearbyCache
	Logger           *zap.Logger
	PrimaryRadiusKm  float64
	FallbackRadiusKm float64
	CacheTTL         time.Duration
}

// NewLocatorService constructs the service.
func NewLocatorService(deps LocatorDependencies) *LocatorService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocatorService{
		staff:            deps.StaffRepo,
		departments:      deps.DepartmentRepo,
		nearbyCache:      deps.NearbyCache,
		logger:           logger,
		primaryRadiusKm:  deps.PrimaryRadiusKm,
		fallbackRadiusKm: deps.FallbackRadiusKm,
		cacheTTL:         deps.CacheTTL,
	}
}

// NearbyResult is the locator answer: candidates within the primary radius,
// plus a wider fallback ring when the primary ring is empty.
type NearbyResult struct {
	DepartmentID   string            `json:"department_id"`
	DepartmentName string            `json:"department_name"`
	Primary        []geo.RankedStaff `json:"primary"`
	Fallback       []geo.RankedStaff `json:"fallback,omitempty"`
	FromCache      bool              `json:"-"`
}

// FindNearby resolves the department for a category and returns eligible
// staff ranked by rating then distance. radiusKm overrides the configured
// primary radius when positive. A cache miss falls through to the database;
// a cache failure degrades to a direct query.
func (s *LocatorService) FindNearby(ctx context.Context, lat, lng float64, category string, radiusKm float64) (*NearbyResult, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperrors.NewValidationError("coordinates out of range", map[string]any{"lat": lat, "lng": lng})
	}
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": category})
	}

	primaryRadius := s.primaryRadiusKm
	if radiusKm > 0 {
		primaryRadius = radiusKm
	}
	fallbackRadius := s.fallbackRadiusKm
	if fallbackRadius < primaryRadius {
		fallbackRadius = primaryRadius
	}

	key := cache.NearbyKey(lat, lng, category, primaryRadius)
	if s.nearbyCache != nil {
		var cached NearbyResult
		found, err := s.nearbyCache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("nearby cache read failed", zap.Error(err))
		} else if found {
			cached.FromCache = true
			return &cached, nil
		}
	}

	dept, err := s.departments.FindByCategory(ctx, category)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewDependencyError("department lookup failed", err)
	}

	// No department covering the category is a valid empty answer, not an
	// error; it is cached like any other result.
	result := &NearbyResult{Primary: make([]geo.RankedStaff, 0)}
	if dept != nil {
		result.DepartmentID = dept.ID
		result.DepartmentName = dept.Name

		candidates, err := s.staff.ListEligible(ctx, dept.ID)
		if err != nil {
			return nil, apperrors.NewDependencyError("staff lookup failed", err)
		}

		geoCandidates := make([]geo.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if !c.Profile.Dispatchable() {
				continue
			}
			geoCandidates = append(geoCandidates, geo.Candidate{
				Profile: c.Profile,
				Name:    c.Name,
				Email:   c.Email,
			})
		}
		ranked := geo.Rank(geoCandidates, lat, lng)

		for _, r := range ranked {
			if r.DistanceKm <= primaryRadius {
				result.Primary = append(result.Primary, r)
			}
		}
		// Widen the search only when nobody is inside the primary ring.
		if len(result.Primary) == 0 {
			for _, r := range ranked {
				if r.DistanceKm > primaryRadius && r.DistanceKm <= fallbackRadius {
					result.Fallback = append(result.Fallback, r)
				}
			}
		}
	}

	if s.nearbyCache != nil {
		if err := s.nearbyCache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("nearby cache write failed", zap.Error(err))
		}
	}
	return result, nil
}
