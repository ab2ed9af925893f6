package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-complaints/internal/auth"
	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/policy"
	"github.com/spec-kit/civic-complaints/internal/repository"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// AuthService handles registration, login, and organization onboarding.
type AuthService struct {
	users      repository.UserRepository
	orgs       repository.OrganizationRepository
	staff      repository.StaffRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	OrgRepo    repository.OrganizationRepository
	StaffRepo  repository.StaffRepository
	Tokens     *auth.TokenManager
	BcryptCost int
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		orgs:       deps.OrgRepo,
		staff:      deps.StaffRepo,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
	}
}

// RegisterInput is a registration payload. Citizens join an existing
// organization through its join code.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	JoinCode string
}

// AuthResult pairs the authenticated user with a signed token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a citizen account under the organization owning the join
// code and returns a signed token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if strings.TrimSpace(input.JoinCode) == "" {
		return nil, apperrors.NewValidationError("organization join code is required", nil)
	}

	org, err := s.orgs.GetByJoinCode(ctx, strings.TrimSpace(input.JoinCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"join_code": input.JoinCode})
		}
		return nil, apperrors.MapError(err)
	}

	if _, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email)); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		OrganizationID: org.ID,
		Name:           strings.TrimSpace(input.Name),
		Email:          normalizeEmail(input.Email),
		PasswordHash:   hash,
		Phone:          strings.TrimSpace(input.Phone),
		Role:           domain.RoleCitizen,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.issueToken(user)
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issueToken(user)
}

// CreateOrganizationInput is an organization onboarding payload.
type CreateOrganizationInput struct {
	Name string
	Plan domain.PlanTier
}

// CreateOrganization provisions a tenant with a fresh join code.
func (s *AuthService) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*domain.Organization, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("organization name is required", nil)
	}
	plan := input.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	org := &domain.Organization{
		Name:     strings.TrimSpace(input.Name),
		Plan:     plan,
		JoinCode: generateJoinCode(),
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, apperrors.MapError(err)
	}
	return org, nil
}

// OrganizationProfile pairs an organization with the policy derived from its
// plan tier.
type OrganizationProfile struct {
	Organization *domain.Organization
	Policy       policy.PlanPolicy
}

// GetOrganizationProfile returns the caller's organization along with its
// resolved plan policy.
func (s *AuthService) GetOrganizationProfile(ctx context.Context, orgID string) (*OrganizationProfile, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"organization_id": orgID})
		}
		return nil, apperrors.MapError(err)
	}
	return &OrganizationProfile{Organization: org, Policy: policy.ResolvePlan(org.Plan)}, nil
}

// CreateOperatorInput provisions staff and admin accounts. Admin-only.
type CreateOperatorInput struct {
	OrganizationID string
	Name           string
	Email          string
	Password       string
	Phone          string
	Role           domain.Role
	DepartmentID   *string
}

// CreateOperator registers a staff or admin account directly under an
// organization and seeds an empty staff profile for staff.
func (s *AuthService) CreateOperator(ctx context.Context, input CreateOperatorInput) (*domain.User, error) {
	if input.Role != domain.RoleStaff && input.Role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("role must be STAFF or ADMIN", map[string]any{"role": input.Role})
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if _, err := s.orgs.GetByID(ctx, input.OrganizationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"organization_id": input.OrganizationID})
		}
		return nil, apperrors.MapError(err)
	}
	if _, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email)); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		OrganizationID: input.OrganizationID,
		Name:           strings.TrimSpace(input.Name),
		Email:          normalizeEmail(input.Email),
		PasswordHash:   hash,
		Phone:          strings.TrimSpace(input.Phone),
		Role:           input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	if user.Role == domain.RoleStaff {
		profile := &domain.StaffProfile{
			UserID:       user.ID,
			DepartmentID: input.DepartmentID,
		}
		if err := s.staff.Upsert(ctx, profile); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return user, nil
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateJoinCode() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}
