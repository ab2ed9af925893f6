package domain

import "time"

// Review is a one-time citizen rating of a resolved complaint. At most one
// review exists per complaint.
type Review struct {
	ID                string
	ComplaintID       string
	StaffID           string
	CitizenID         string
	Rating            int
	ResolutionQuality *int
	Timeliness        *int
	Communication     *int
	Comment           string
	CreatedAt         time.Time
}
