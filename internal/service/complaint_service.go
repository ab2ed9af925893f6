package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-complaints/internal/cache"
	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/events"
	"github.com/spec-kit/civic-complaints/internal/policy"
	"github.com/spec-kit/civic-complaints/internal/repository"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// ComplaintService drives the complaint lifecycle: creation with quota and
// SLA resolution, status transitions with audit history, and staff
// assignment.
type ComplaintService struct {
	complaints  repository.ComplaintRepository
	history     repository.ComplaintHistoryRepository
	departments repository.DepartmentRepository
	staff       repository.StaffRepository
	orgs        repository.OrganizationRepository
	attachments repository.AttachmentRepository
	tx          repository.TxRunner
	nearbyCache cache.NearbyCache
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo  repository.ComplaintRepository
	HistoryRepo    repository.ComplaintHistoryRepository
	DepartmentRepo repository.DepartmentRepository
	StaffRepo      repository.StaffRepository
	OrgRepo        repository.OrganizationRepository
	AttachmentRepo repository.AttachmentRepository
	TxRunner       repository.TxRunner
	NearbyCache    cache.NearbyCache
	Dispatcher     events.Dispatcher
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		complaints:  deps.ComplaintRepo,
		history:     deps.HistoryRepo,
		departments: deps.DepartmentRepo,
		staff:       deps.StaffRepo,
		orgs:        deps.OrgRepo,
		attachments: deps.AttachmentRepo,
		tx:          deps.TxRunner,
		nearbyCache: deps.NearbyCache,
		dispatcher:  deps.Dispatcher,
		now:         time.Now,
	}
}

// AttachmentInput describes attachment metadata supplied at creation.
type AttachmentInput struct {
	URL  string
	Kind string
}

// CreateComplaintInput describes a creation payload after boundary parsing.
type CreateComplaintInput struct {
	Title        string
	Description  string
	Category     string
	Priority     domain.ComplaintPriority
	Location     *domain.Location
	Reporter     *domain.ReporterSnapshot
	DepartmentID *string
	StaffID      *string
	Attachments  []AttachmentInput
}

// UpdateStatusInput describes a status transition request.
type UpdateStatusInput struct {
	Status  domain.ComplaintStatus
	Note    string
	StaffID *string
}

// ComplaintListFilter describes operator listing filters.
type ComplaintListFilter struct {
	Statuses     []domain.ComplaintStatus
	DepartmentID *string
	AssignedTo   *string
	Category     *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// Create files a new complaint for the actor, enforcing the plan's daily
// quota and resolving department and SLA deadline once at creation.
func (s *ComplaintService) Create(ctx context.Context, actor *domain.User, input CreateComplaintInput) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("actor required")
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" || strings.TrimSpace(input.Category) == "" {
		return nil, apperrors.NewValidationError("title, description and category are required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if input.Priority != "" && !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	// No silent fallback to a default tenant: an actor without an
	// organization cannot file complaints.
	if actor.OrganizationID == "" {
		return nil, apperrors.NewValidationError("actor has no organization", nil)
	}

	org, err := s.orgs.GetByID(ctx, actor.OrganizationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"organization_id": actor.OrganizationID})
		}
		return nil, apperrors.MapError(err)
	}
	plan := policy.ResolvePlan(org.Plan)

	now := s.now()
	if !plan.Unlimited() {
		// Count-then-insert; a slight overshoot under concurrent
		// submissions is tolerated, the quota is best effort.
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		count, err := s.complaints.CountByCreatorSince(ctx, actor.ID, startOfDay)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if count >= plan.MaxComplaintsPerDay {
			return nil, apperrors.NewQuotaExceeded("daily complaint limit reached", plan.MaxComplaintsPerDay)
		}
	}

	dept, err := s.resolveDepartment(ctx, input.DepartmentID, input.Category)
	if err != nil {
		return nil, err
	}

	var deptID *string
	var deptHours *int
	if dept != nil {
		deptID = &dept.ID
		deptHours = &dept.SLAPolicyHours
	}

	// A pre-selected assignee goes through the same checks as later
	// assignment; a bogus id must not reach the insert.
	if input.StaffID != nil {
		if err := s.validateAssignee(ctx, *input.StaffID, deptID); err != nil {
			return nil, err
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = plan.DefaultPriority
	}

	complaint := &domain.Complaint{
		ReferenceKey:   generateReferenceKey(),
		OrganizationID: org.ID,
		CreatedBy:      actor.ID,
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Category:       input.Category,
		Priority:       priority,
		Location:       input.Location,
		Reporter:       input.Reporter,
		Status:         domain.ComplaintStatusOpen,
		DepartmentID:   deptID,
		AssignedTo:     input.StaffID,
		SLADeadline:    policy.ResolveDeadline(now, deptHours, plan.SLAHoursCeiling),
	}

	// The complaint, its first history entry and the attachments commit or
	// roll back together; a complaint must never exist without history.
	if err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.complaints.WithTx(tx).Create(ctx, complaint); err != nil {
			return apperrors.MapError(err)
		}
		actorID := actor.ID
		if err := s.history.WithTx(tx).Create(ctx, &domain.ComplaintHistory{
			ComplaintID: complaint.ID,
			ActorID:     &actorID,
			FromStatus:  nil,
			ToStatus:    domain.ComplaintStatusOpen,
			Note:        "complaint created",
		}); err != nil {
			return apperrors.MapError(err)
		}
		for _, att := range input.Attachments {
			record := &domain.Attachment{
				ComplaintID: complaint.ID,
				URL:         att.URL,
				Kind:        att.Kind,
			}
			if err := s.attachments.WithTx(tx).Create(ctx, record); err != nil {
				return apperrors.MapError(err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Actor:       events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.ComplaintCreatedPayload{
			DepartmentID: complaint.DepartmentID,
			Category:     complaint.Category,
			Priority:     complaint.Priority,
			Title:        complaint.Title,
			SLADeadline:  complaint.SLADeadline,
		},
	})
	return complaint, nil
}

// UpdateStatus transitions a complaint, appending a history entry and
// stamping or clearing the resolution time. Only staff of the owning
// department and admins may call it.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *domain.User, complaintID string, input UpdateStatusInput) (*domain.Complaint, error) {
	if actor == nil || !actor.IsOperator() {
		return nil, apperrors.NewForbidden("staff or admin role required")
	}
	if !domain.ValidStatus(input.Status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.Status})
	}

	complaint, err := s.getComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOperatorScope(ctx, actor, complaint); err != nil {
		return nil, err
	}
	// Reopening a resolved complaint is an unusual, admin-only path.
	if complaint.Status == domain.ComplaintStatusResolved && input.Status != domain.ComplaintStatusResolved && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may reopen a resolved complaint")
	}

	if input.StaffID != nil {
		if err := s.validateAssignee(ctx, *input.StaffID, complaint.DepartmentID); err != nil {
			return nil, err
		}
	}

	oldStatus := complaint.Status
	update := repository.StatusUpdate{
		Status:         input.Status,
		ResolutionTime: complaint.ResolutionTime,
	}
	switch {
	case input.Status == domain.ComplaintStatusResolved && complaint.ResolutionTime == nil:
		resolvedAt := s.now()
		update.ResolutionTime = &resolvedAt
	case input.Status != domain.ComplaintStatusResolved:
		// resolution_time is set iff status is RESOLVED; clear it on exit.
		update.ResolutionTime = nil
	}
	if input.StaffID != nil {
		update.AssignedTo = input.StaffID
		update.SetAssignee = true
	}

	if err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.complaints.WithTx(tx).UpdateStatus(ctx, complaint.ID, oldStatus, update); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewConflict("complaint was updated concurrently", map[string]any{"complaint_id": complaint.ID})
			}
			return apperrors.MapError(err)
		}
		actorID := actor.ID
		from := oldStatus
		if err := s.history.WithTx(tx).Create(ctx, &domain.ComplaintHistory{
			ComplaintID: complaint.ID,
			ActorID:     &actorID,
			FromStatus:  &from,
			ToStatus:    input.Status,
			Note:        input.Note,
		}); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	complaint.Status = input.Status
	complaint.ResolutionTime = update.ResolutionTime
	if input.StaffID != nil {
		complaint.AssignedTo = input.StaffID
		s.invalidateNearbyCache(ctx)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: complaint.ID,
		Actor:       events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: input.Status,
			Note:      input.Note,
		},
	})
	return complaint, nil
}

// AssignStaff sets the assigned staff member without touching status.
func (s *ComplaintService) AssignStaff(ctx context.Context, actor *domain.User, complaintID, staffID string) (*domain.Complaint, error) {
	if actor == nil || !actor.IsOperator() {
		return nil, apperrors.NewForbidden("staff or admin role required")
	}
	complaint, err := s.getComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOperatorScope(ctx, actor, complaint); err != nil {
		return nil, err
	}
	if err := s.validateAssignee(ctx, staffID, complaint.DepartmentID); err != nil {
		return nil, err
	}

	if err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.complaints.WithTx(tx).UpdateAssignee(ctx, complaint.ID, &staffID); err != nil {
			return apperrors.MapError(err)
		}
		actorID := actor.ID
		from := complaint.Status
		if err := s.history.WithTx(tx).Create(ctx, &domain.ComplaintHistory{
			ComplaintID: complaint.ID,
			ActorID:     &actorID,
			FromStatus:  &from,
			ToStatus:    complaint.Status,
			Note:        "staff assigned",
		}); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	complaint.AssignedTo = &staffID

	// Availability is advisory; expiry would also converge, this just
	// shortens the stale window.
	s.invalidateNearbyCache(ctx)

	s.publishEvent(ctx, events.Event{
		Type:        events.EventStaffAssigned,
		ComplaintID: complaint.ID,
		Actor:       events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.StaffAssignedPayload{
			StaffID:      staffID,
			DepartmentID: complaint.DepartmentID,
		},
	})
	return complaint, nil
}

// GetForActor fetches a complaint with its history, enforcing visibility:
// citizens see their own, staff their department's, admins everything.
func (s *ComplaintService) GetForActor(ctx context.Context, actor *domain.User, complaintID string) (*domain.Complaint, []domain.ComplaintHistory, error) {
	complaint, err := s.getComplaint(ctx, complaintID)
	if err != nil {
		return nil, nil, err
	}
	switch actor.Role {
	case domain.RoleCitizen:
		if complaint.CreatedBy != actor.ID {
			return nil, nil, apperrors.NewForbidden("access denied")
		}
	case domain.RoleStaff:
		if err := s.checkOperatorScope(ctx, actor, complaint); err != nil {
			return nil, nil, err
		}
	}
	entries, err := s.history.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return complaint, entries, nil
}

// ListMine returns the actor's own complaints, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.Complaint, error) {
	creatorID := actor.ID
	return s.list(ctx, repository.ComplaintFilter{
		CreatedBy: &creatorID,
		Limit:     limit,
		Offset:    offset,
	})
}

// ListAll returns complaints for operators, scoped to the staff member's
// department unless the actor is an admin.
func (s *ComplaintService) ListAll(ctx context.Context, actor *domain.User, filter ComplaintListFilter) ([]domain.Complaint, error) {
	if actor == nil || !actor.IsOperator() {
		return nil, apperrors.NewForbidden("staff or admin role required")
	}
	repoFilter := repository.ComplaintFilter{
		Statuses:     filter.Statuses,
		DepartmentID: filter.DepartmentID,
		AssignedTo:   filter.AssignedTo,
		Category:     filter.Category,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if actor.Role == domain.RoleStaff {
		profile, err := s.staff.GetByUserID(ctx, actor.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if profile == nil || profile.DepartmentID == nil {
			return nil, apperrors.NewForbidden("staff member has no department")
		}
		repoFilter.DepartmentID = profile.DepartmentID
	}
	return s.list(ctx, repoFilter)
}

// Attachments returns the attachment metadata for a complaint.
func (s *ComplaintService) Attachments(ctx context.Context, complaintID string) ([]domain.Attachment, error) {
	attachments, err := s.attachments.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

func (s *ComplaintService) list(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	complaints, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

func (s *ComplaintService) getComplaint(ctx context.Context, id string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

// resolveDepartment prefers the caller-supplied department and falls back to
// category lookup. A category no department handles is not an error; the
// complaint is routed for manual triage with a nil department.
func (s *ComplaintService) resolveDepartment(ctx context.Context, departmentID *string, category string) (*domain.Department, error) {
	if departmentID != nil {
		dept, err := s.departments.GetByID(ctx, *departmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *departmentID})
			}
			return nil, apperrors.MapError(err)
		}
		return dept, nil
	}
	dept, err := s.departments.FindByCategory(ctx, category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

func (s *ComplaintService) checkOperatorScope(ctx context.Context, actor *domain.User, complaint *domain.Complaint) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	profile, err := s.staff.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewForbidden("staff profile required")
		}
		return apperrors.MapError(err)
	}
	if profile.DepartmentID == nil || complaint.DepartmentID == nil || *profile.DepartmentID != *complaint.DepartmentID {
		return apperrors.NewForbidden("complaint outside staff department")
	}
	return nil
}

func (s *ComplaintService) validateAssignee(ctx context.Context, staffID string, departmentID *string) error {
	profile, err := s.staff.GetByUserID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return apperrors.MapError(err)
	}
	if departmentID != nil && (profile.DepartmentID == nil || *profile.DepartmentID != *departmentID) {
		return apperrors.NewConflict("staff outside complaint department", map[string]any{"staff_id": staffID})
	}
	return nil
}

func (s *ComplaintService) invalidateNearbyCache(ctx context.Context) {
	if s.nearbyCache == nil {
		return
	}
	_ = s.nearbyCache.InvalidatePrefix(ctx, cache.NearbyPrefix)
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateReferenceKey() string {
	return "CMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
