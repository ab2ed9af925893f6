package events

import (
	"time"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventStaffAssigned          EventType = "staff_assigned"
	EventReviewSubmitted        EventType = "review_submitted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	DepartmentID *string                  `json:"department_id,omitempty"`
	Category     string                   `json:"category"`
	Priority     domain.ComplaintPriority `json:"priority"`
	Title        string                   `json:"title"`
	SLADeadline  time.Time                `json:"sla_deadline"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
}

// StaffAssignedPayload payload.
type StaffAssignedPayload struct {
	StaffID      string  `json:"staff_id"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// ReviewSubmittedPayload payload.
type ReviewSubmittedPayload struct {
	ReviewID      string  `json:"review_id"`
	StaffID       string  `json:"staff_id"`
	Rating        int     `json:"rating"`
	RatingAverage float64 `json:"rating_average"`
}
