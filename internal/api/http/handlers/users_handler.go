package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-complaints/internal/api/dto"
	"github.com/spec-kit/civic-complaints/internal/auth"
	"github.com/spec-kit/civic-complaints/internal/service"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// UsersHandler manages registration, login and organization endpoints.
type UsersHandler struct {
	service *service.AuthService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{service: authService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Register(c.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		JoinCode: req.JoinCode,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(result)})
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// OrganizationProfile GET /orgs/me.
func (h *UsersHandler) OrganizationProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profile, err := h.service.GetOrganizationProfile(c.Context(), principal.User.OrganizationID)
	if err != nil {
		return err
	}
	org := profile.Organization
	return c.JSON(fiber.Map{"data": dto.OrganizationProfileResponse{
		Organization: dto.OrganizationResponse{
			ID:        org.ID,
			Name:      org.Name,
			Plan:      org.Plan,
			JoinCode:  org.JoinCode,
			CreatedAt: org.CreatedAt,
		},
		Features: dto.PlanFeaturesResponse{
			MaxComplaintsPerDay:    profile.Policy.MaxComplaintsPerDay,
			SLAHoursCeiling:        profile.Policy.SLAHoursCeiling,
			DefaultPriority:        profile.Policy.DefaultPriority,
			AutoAssignEnabled:      profile.Policy.AutoAssignEnabled,
			PriorityRoutingEnabled: profile.Policy.PriorityRoutingEnabled,
			SLAEnabled:             profile.Policy.SLAEnabled,
			AnalyticsEnabled:       profile.Policy.AnalyticsEnabled,
		},
	}})
}

// CreateOrganization POST /orgs. Open bootstrap endpoint; the response join
// code is what lets the first users register.
func (h *UsersHandler) CreateOrganization(c *fiber.Ctx) error {
	var req dto.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	org, err := h.service.CreateOrganization(c.Context(), service.CreateOrganizationInput{
		Name: req.Name,
		Plan: req.Plan,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.OrganizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		Plan:      org.Plan,
		JoinCode:  org.JoinCode,
		CreatedAt: org.CreatedAt,
	}})
}

// CreateOperator POST /users/operators. Admin-only at the route.
func (h *UsersHandler) CreateOperator(c *fiber.Ctx) error {
	var req dto.CreateOperatorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.CreateOperator(c.Context(), service.CreateOperatorInput{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		Role:           req.Role,
		DepartmentID:   req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:      dto.UserFromDomain(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}
