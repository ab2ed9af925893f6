package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/repository"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// StaffService manages departments, staff profiles, and duty state.
type StaffService struct {
	staff       repository.StaffRepository
	departments repository.DepartmentRepository
	complaints  repository.ComplaintRepository
}

// StaffDependencies bundles collaborators for the staff service.
type StaffDependencies struct {
	StaffRepo      repository.StaffRepository
	DepartmentRepo repository.DepartmentRepository
	ComplaintRepo  repository.ComplaintRepository
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	return &StaffService{
		staff:       deps.StaffRepo,
		departments: deps.DepartmentRepo,
		complaints:  deps.ComplaintRepo,
	}
}

// DepartmentInput is a department create or update payload.
type DepartmentInput struct {
	Name              string
	Code              string
	CategoriesHandled []string
	SLAPolicyHours    int
	ManagerID         *string
	ContactEmail      string
	ContactPhone      string
}

// CreateDepartment registers a new department. Admin-only at the boundary.
func (s *StaffService) CreateDepartment(ctx context.Context, input DepartmentInput) (*domain.Department, error) {
	if err := validateDepartment(input); err != nil {
		return nil, err
	}
	dept := &domain.Department{
		Name:              strings.TrimSpace(input.Name),
		Code:              strings.ToUpper(strings.TrimSpace(input.Code)),
		CategoriesHandled: input.CategoriesHandled,
		SLAPolicyHours:    input.SLAPolicyHours,
		ManagerID:         input.ManagerID,
		ContactEmail:      input.ContactEmail,
		ContactPhone:      input.ContactPhone,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// UpdateDepartment replaces a department's mutable fields.
func (s *StaffService) UpdateDepartment(ctx context.Context, id string, input DepartmentInput) (*domain.Department, error) {
	if err := validateDepartment(input); err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	dept.Name = strings.TrimSpace(input.Name)
	dept.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	dept.CategoriesHandled = input.CategoriesHandled
	dept.SLAPolicyHours = input.SLAPolicyHours
	dept.ManagerID = input.ManagerID
	dept.ContactEmail = input.ContactEmail
	dept.ContactPhone = input.ContactPhone
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns all departments.
func (s *StaffService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return departments, nil
}

// StaffProfileInput is a staff profile upsert payload.
type StaffProfileInput struct {
	DepartmentID *string
	Title        string
	Skills       []string
	ShiftStart   string
	ShiftEnd     string
	WorkArea     domain.WorkArea
	ContactPhone string
	ContactEmail string
}

// UpsertProfile creates or replaces the actor's staff profile. The rating
// pair is never written through this path.
func (s *StaffService) UpsertProfile(ctx context.Context, actor *domain.User, input StaffProfileInput) (*domain.StaffProfile, error) {
	if actor == nil || actor.Role != domain.RoleStaff {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *input.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}
	if loc := input.WorkArea.Location; loc != nil {
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return nil, apperrors.NewValidationError("coordinates out of range", map[string]any{"lat": loc.Lat, "lng": loc.Lng})
		}
	}

	existing, err := s.staff.GetByUserID(ctx, actor.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	profile := &domain.StaffProfile{
		UserID:       actor.ID,
		DepartmentID: input.DepartmentID,
		Title:        strings.TrimSpace(input.Title),
		Skills:       input.Skills,
		ShiftStart:   input.ShiftStart,
		ShiftEnd:     input.ShiftEnd,
		WorkArea:     input.WorkArea,
		ContactPhone: input.ContactPhone,
		ContactEmail: input.ContactEmail,
	}
	if existing != nil {
		profile.OnDutyToday = existing.OnDutyToday
		profile.Rating = existing.Rating
	}
	if err := s.staff.Upsert(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// GetProfile returns the actor's staff profile.
func (s *StaffService) GetProfile(ctx context.Context, userID string) (*domain.StaffProfile, error) {
	profile, err := s.staff.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff profile", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// SetDuty flips the actor's on-duty flag.
func (s *StaffService) SetDuty(ctx context.Context, actor *domain.User, onDuty bool) error {
	if actor == nil || actor.Role != domain.RoleStaff {
		return apperrors.NewForbidden("staff role required")
	}
	if _, err := s.staff.GetByUserID(ctx, actor.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("staff profile", map[string]any{"user_id": actor.ID})
		}
		return apperrors.MapError(err)
	}
	if err := s.staff.SetOnDuty(ctx, actor.ID, onDuty); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListByDepartment returns the staff roster for a department.
func (s *StaffService) ListByDepartment(ctx context.Context, departmentID string) ([]repository.StaffCandidate, error) {
	roster, err := s.staff.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roster, nil
}

// AnalyticsSummary aggregates complaint counts, optionally per organization.
func (s *StaffService) AnalyticsSummary(ctx context.Context, orgID *string, now time.Time) (*repository.StatusCounts, error) {
	counts, err := s.complaints.Counts(ctx, orgID, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

func validateDepartment(input DepartmentInput) error {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Code) == "" {
		return apperrors.NewValidationError("name and code are required", nil)
	}
	if input.SLAPolicyHours <= 0 {
		return apperrors.NewValidationError("sla_policy_hours must be positive", map[string]any{"sla_policy_hours": input.SLAPolicyHours})
	}
	for _, category := range input.CategoriesHandled {
		if !domain.ValidCategory(category) {
			return apperrors.NewValidationError("unknown category", map[string]any{"category": category})
		}
	}
	return nil
}
