package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "OPEN"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s ComplaintStatus) bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// ComplaintPriority enumerates urgency levels.
type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "LOW"
	ComplaintPriorityMedium ComplaintPriority = "MEDIUM"
	ComplaintPriorityHigh   ComplaintPriority = "HIGH"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p ComplaintPriority) bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh:
		return true
	}
	return false
}

// Location is a coarse lat/lng point attached to a complaint.
type Location struct {
	Lat float64
	Lng float64
}

// ReporterSnapshot is a decoupled copy of the reporter's contact details at
// submission time. It is never updated when the profile changes later.
type ReporterSnapshot struct {
	Name  string
	Phone string
	Email string
}

// Complaint is the aggregate for citizen-filed work items.
type Complaint struct {
	ID             string
	ReferenceKey   string
	OrganizationID string
	CreatedBy      string
	Title          string
	Description    string
	Category       string
	Priority       ComplaintPriority
	Location       *Location
	Reporter       *ReporterSnapshot
	Status         ComplaintStatus
	DepartmentID   *string
	AssignedTo     *string
	SLADeadline    time.Time
	ResolutionTime *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SLABreached reports whether the complaint is past its deadline and still
// unresolved at the given instant. Breach is a read-time computation, not a
// stored flag.
func (c *Complaint) SLABreached(now time.Time) bool {
	return c.Status != ComplaintStatusResolved && now.After(c.SLADeadline)
}
