package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-complaints/internal/api/dto"
	"github.com/spec-kit/civic-complaints/internal/auth"
	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/service"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// ComplaintsHandler manages complaint endpoints.
type ComplaintsHandler struct {
	service *service.ComplaintService
	now     func() time.Time
}

// NewComplaintsHandler constructs the handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService, now: time.Now}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateComplaintInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		DepartmentID: req.DepartmentID,
		StaffID:      req.StaffID,
	}
	if req.Location != nil {
		input.Location = &domain.Location{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}
	if req.Reporter != nil {
		input.Reporter = &domain.ReporterSnapshot{
			Name:  req.Reporter.Name,
			Phone: req.Reporter.Phone,
			Email: req.Reporter.Email,
		}
	}
	for _, att := range req.Attachments {
		input.Attachments = append(input.Attachments, service.AttachmentInput{URL: att.URL, Kind: att.Kind})
	}

	complaint, err := h.service.Create(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.summary(complaint)})
}

// ListMine GET /complaints/mine.
func (h *ComplaintsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	limit, offset := parsePagination(c)
	complaints, err := h.service.ListMine(c.Context(), principal.User, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summaries(complaints)})
}

// List GET /complaints for operators.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	filter := parseComplaintListQuery(c)
	complaints, err := h.service.ListAll(c.Context(), principal.User, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summaries(complaints)})
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	complaint, history, err := h.service.GetForActor(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	attachments, err := h.service.Attachments(c.Context(), complaint.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.detail(complaint, history, attachments)})
}

// UpdateStatus PATCH /complaints/:id/status.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.service.UpdateStatus(c.Context(), principal.User, c.Params("id"), service.UpdateStatusInput{
		Status:  req.Status,
		Note:    req.Note,
		StaffID: req.StaffID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(complaint)})
}

// Assign POST /complaints/:id/assign.
func (h *ComplaintsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AssignStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StaffID == "" {
		return apperrors.NewValidationError("staff_id required", nil)
	}
	complaint, err := h.service.AssignStaff(c.Context(), principal.User, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.summary(complaint)})
}

func (h *ComplaintsHandler) summary(complaint *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:           complaint.ID,
		ReferenceKey: complaint.ReferenceKey,
		Title:        complaint.Title,
		Category:     complaint.Category,
		Priority:     complaint.Priority,
		Status:       complaint.Status,
		DepartmentID: complaint.DepartmentID,
		AssignedTo:   complaint.AssignedTo,
		SLADeadline:  complaint.SLADeadline,
		SLABreached:  complaint.SLABreached(h.now()),
		CreatedAt:    complaint.CreatedAt,
	}
}

func (h *ComplaintsHandler) summaries(complaints []domain.Complaint) []dto.ComplaintSummary {
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, h.summary(&complaints[i]))
	}
	return items
}

func (h *ComplaintsHandler) detail(complaint *domain.Complaint, history []domain.ComplaintHistory, attachments []domain.Attachment) dto.ComplaintDetailResponse {
	resp := dto.ComplaintDetailResponse{
		ComplaintSummary: h.summary(complaint),
		Description:      complaint.Description,
		ResolutionTime:   complaint.ResolutionTime,
		UpdatedAt:        complaint.UpdatedAt,
		History:          make([]dto.HistoryEntryResponse, 0, len(history)),
		Attachments:      make([]dto.AttachmentResponse, 0, len(attachments)),
	}
	if complaint.Location != nil {
		resp.Location = &dto.LocationDTO{Lat: complaint.Location.Lat, Lng: complaint.Location.Lng}
	}
	if complaint.Reporter != nil {
		resp.Reporter = &dto.ReporterDTO{
			Name:  complaint.Reporter.Name,
			Phone: complaint.Reporter.Phone,
			Email: complaint.Reporter.Email,
		}
	}
	for _, entry := range history {
		resp.History = append(resp.History, dto.HistoryEntryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	for _, att := range attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:        att.ID,
			URL:       att.URL,
			Kind:      att.Kind,
			CreatedAt: att.CreatedAt,
		})
	}
	return resp
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseComplaintListQuery(c *fiber.Ctx) service.ComplaintListFilter {
	filter := service.ComplaintListFilter{}
	filter.Limit, filter.Offset = parsePagination(c)

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := domain.ComplaintStatus(strings.ToUpper(strings.TrimSpace(s)))
			if domain.ValidStatus(status) {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if v := c.Query("department_id"); v != "" {
		filter.DepartmentID = &v
	}
	if v := c.Query("assigned_to"); v != "" {
		filter.AssignedTo = &v
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("created_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if v := c.Query("created_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedTo = &t
		}
	}
	return filter
}
