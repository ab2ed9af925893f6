package dto

import (
	"time"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	JoinCode string `json:"join_code"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse payload.
type UserResponse struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone,omitempty"`
	Role           domain.Role `json:"role"`
	CreatedAt      time.Time   `json:"created_at"`
}

// AuthResponse pairs a user with a signed token.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// CreateOrganizationRequest payload.
type CreateOrganizationRequest struct {
	Name string          `json:"name"`
	Plan domain.PlanTier `json:"plan,omitempty"`
}

// OrganizationResponse payload.
type OrganizationResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Plan      domain.PlanTier `json:"plan"`
	JoinCode  string          `json:"join_code"`
	CreatedAt time.Time       `json:"created_at"`
}

// PlanFeaturesResponse lists the feature gates and quotas resolved from the
// organization's plan.
type PlanFeaturesResponse struct {
	MaxComplaintsPerDay    int                      `json:"max_complaints_per_day"`
	SLAHoursCeiling        int                      `json:"sla_hours_ceiling"`
	DefaultPriority        domain.ComplaintPriority `json:"default_priority"`
	AutoAssignEnabled      bool                     `json:"auto_assign_enabled"`
	PriorityRoutingEnabled bool                     `json:"priority_routing_enabled"`
	SLAEnabled             bool                     `json:"sla_enabled"`
	AnalyticsEnabled       bool                     `json:"analytics_enabled"`
}

// OrganizationProfileResponse payload for the current organization.
type OrganizationProfileResponse struct {
	Organization OrganizationResponse `json:"organization"`
	Features     PlanFeaturesResponse `json:"features"`
}

// CreateOperatorRequest payload for staff and admin provisioning.
type CreateOperatorRequest struct {
	OrganizationID string      `json:"organization_id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	Phone          string      `json:"phone,omitempty"`
	Role           domain.Role `json:"role"`
	DepartmentID   *string     `json:"department_id,omitempty"`
}

// UserFromDomain maps a user to its response shape.
func UserFromDomain(user *domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		Name:           user.Name,
		Email:          user.Email,
		Phone:          user.Phone,
		Role:           user.Role,
		CreatedAt:      user.CreatedAt,
	}
}
