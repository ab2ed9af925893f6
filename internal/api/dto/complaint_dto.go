package dto

import (
	"time"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// LocationDTO is a geographic point on the wire.
type LocationDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ReporterDTO is the reporter contact snapshot on the wire.
type ReporterDTO struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// AttachmentRequest describes attachment metadata supplied at creation.
type AttachmentRequest struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Title        string                   `json:"title"`
	Description  string                   `json:"description"`
	Category     string                   `json:"category"`
	Priority     domain.ComplaintPriority `json:"priority,omitempty"`
	Location     *LocationDTO             `json:"location,omitempty"`
	Reporter     *ReporterDTO             `json:"reporter,omitempty"`
	DepartmentID *string                  `json:"department_id,omitempty"`
	StaffID      *string                  `json:"staff_id,omitempty"`
	Attachments  []AttachmentRequest      `json:"attachments,omitempty"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.ComplaintStatus `json:"status"`
	Note    string                 `json:"note,omitempty"`
	StaffID *string                `json:"staff_id,omitempty"`
}

// AssignStaffRequest payload.
type AssignStaffRequest struct {
	StaffID string `json:"staff_id"`
}

// ComplaintSummary response.
type ComplaintSummary struct {
	ID           string                   `json:"id"`
	ReferenceKey string                   `json:"reference_key"`
	Title        string                   `json:"title"`
	Category     string                   `json:"category"`
	Priority     domain.ComplaintPriority `json:"priority"`
	Status       domain.ComplaintStatus   `json:"status"`
	DepartmentID *string                  `json:"department_id,omitempty"`
	AssignedTo   *string                  `json:"assigned_to,omitempty"`
	SLADeadline  time.Time                `json:"sla_deadline"`
	SLABreached  bool                     `json:"sla_breached"`
	CreatedAt    time.Time                `json:"created_at"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ComplaintSummary
	Description    string                 `json:"description"`
	Location       *LocationDTO           `json:"location,omitempty"`
	Reporter       *ReporterDTO           `json:"reporter,omitempty"`
	ResolutionTime *time.Time             `json:"resolution_time,omitempty"`
	UpdatedAt      time.Time              `json:"updated_at"`
	History        []HistoryEntryResponse `json:"history"`
	Attachments    []AttachmentResponse   `json:"attachments"`
}

// HistoryEntryResponse is one audit trail entry.
type HistoryEntryResponse struct {
	ID         string                  `json:"id"`
	ActorID    *string                 `json:"actor_id,omitempty"`
	FromStatus *domain.ComplaintStatus `json:"from_status,omitempty"`
	ToStatus   domain.ComplaintStatus  `json:"to_status"`
	Note       string                  `json:"note,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// AnalyticsSummaryResponse aggregates complaint counts.
type AnalyticsSummaryResponse struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	SLABreach  int64 `json:"sla_breach"`
}
