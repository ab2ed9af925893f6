package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-complaints/internal/api/dto"
	"github.com/spec-kit/civic-complaints/internal/auth"
	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/geo"
	"github.com/spec-kit/civic-complaints/internal/service"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// StaffHandler manages department, staff profile and locator endpoints.
type StaffHandler struct {
	staff   *service.StaffService
	locator *service.LocatorService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(staffService *service.StaffService, locatorService *service.LocatorService) *StaffHandler {
	return &StaffHandler{staff: staffService, locator: locatorService}
}

// CreateDepartment POST /departments.
func (h *StaffHandler) CreateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.staff.CreateDepartment(c.Context(), departmentInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// UpdateDepartment PUT /departments/:id.
func (h *StaffHandler) UpdateDepartment(c *fiber.Ctx) error {
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.staff.UpdateDepartment(c.Context(), c.Params("id"), departmentInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments GET /departments.
func (h *StaffHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.staff.ListDepartments(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(departments))
	for i := range departments {
		items = append(items, departmentResponse(&departments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpsertProfile PUT /staff/profile.
func (h *StaffHandler) UpsertProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.StaffProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.StaffProfileInput{
		DepartmentID: req.DepartmentID,
		Title:        req.Title,
		Skills:       req.Skills,
		ShiftStart:   req.ShiftStart,
		ShiftEnd:     req.ShiftEnd,
		WorkArea: domain.WorkArea{
			City:  req.City,
			Zones: req.Zones,
		},
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
	}
	if req.Location != nil {
		input.WorkArea.Location = &domain.Location{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}
	profile, err := h.staff.UpsertProfile(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProfileFromDomain(profile)})
}

// GetProfile GET /staff/profile.
func (h *StaffHandler) GetProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	profile, err := h.staff.GetProfile(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProfileFromDomain(profile)})
}

// SetDuty POST /staff/duty.
func (h *StaffHandler) SetDuty(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.DutyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.staff.SetDuty(c.Context(), principal.User, req.OnDuty); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"on_duty": req.OnDuty}})
}

// ListRoster GET /departments/:id/staff.
func (h *StaffHandler) ListRoster(c *fiber.Ctx) error {
	roster, err := h.staff.ListByDepartment(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.StaffProfileResponse, 0, len(roster))
	for i := range roster {
		resp := dto.ProfileFromDomain(&roster[i].Profile)
		items = append(items, resp)
	}
	return c.JSON(fiber.Map{"data": items})
}

// Nearby GET /staff/nearby?lat=&lng=&category=&radius=.
func (h *StaffHandler) Nearby(c *fiber.Ctx) error {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	category := c.Query("category")
	if errLat != nil || errLng != nil || category == "" {
		return apperrors.NewValidationError("lat, lng and category are required", nil)
	}
	var radius float64
	if v := c.Query("radius"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("radius must be a positive number", nil)
		}
		radius = parsed
	}
	result, err := h.locator.FindNearby(c.Context(), lat, lng, category, radius)
	if err != nil {
		return err
	}
	resp := dto.NearbyResponse{
		DepartmentID:   result.DepartmentID,
		DepartmentName: result.DepartmentName,
		Primary:        nearbyStaff(result.Primary),
		Fallback:       nearbyStaff(result.Fallback),
		Cached:         result.FromCache,
	}
	return c.JSON(fiber.Map{"data": resp})
}

// AnalyticsSummary GET /analytics/summary.
func (h *StaffHandler) AnalyticsSummary(c *fiber.Ctx) error {
	var orgID *string
	if v := c.Query("organization_id"); v != "" {
		orgID = &v
	}
	counts, err := h.staff.AnalyticsSummary(c.Context(), orgID, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AnalyticsSummaryResponse{
		Total:      counts.Total,
		Open:       counts.Open,
		InProgress: counts.InProgress,
		Resolved:   counts.Resolved,
		SLABreach:  counts.SLABreach,
	}})
}

func nearbyStaff(ranked []geo.RankedStaff) []dto.NearbyStaffResponse {
	items := make([]dto.NearbyStaffResponse, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, dto.NearbyStaffResponse{
			UserID:               r.Profile.UserID,
			Name:                 r.Name,
			Email:                r.Email,
			RatingAverage:        r.Profile.Rating.Average(),
			DistanceKm:           r.DistanceKm,
			EstimatedArrivalMins: r.EstimatedArrivalMins,
		})
	}
	return items
}

func departmentInput(req dto.DepartmentRequest) service.DepartmentInput {
	return service.DepartmentInput{
		Name:              req.Name,
		Code:              req.Code,
		CategoriesHandled: req.CategoriesHandled,
		SLAPolicyHours:    req.SLAPolicyHours,
		ManagerID:         req.ManagerID,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
	}
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:                dept.ID,
		Name:              dept.Name,
		Code:              dept.Code,
		CategoriesHandled: dept.CategoriesHandled,
		SLAPolicyHours:    dept.SLAPolicyHours,
		ManagerID:         dept.ManagerID,
		ContactEmail:      dept.ContactEmail,
		ContactPhone:      dept.ContactPhone,
		CreatedAt:         dept.CreatedAt,
	}
}
