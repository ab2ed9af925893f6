package domain

import "time"

// ComplaintHistory is an immutable audit trail entry. Exactly one entry is
// appended for every status change, including the initial OPEN entry.
type ComplaintHistory struct {
	ID          string
	ComplaintID string
	ActorID     *string
	FromStatus  *ComplaintStatus
	ToStatus    ComplaintStatus
	Note        string
	CreatedAt   time.Time
}
