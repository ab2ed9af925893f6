package domain

import "time"

// WorkArea describes where a staff member operates. The location is a single
// self-reported representative point, not live GPS.
type WorkArea struct {
	City     string
	Zones    []string
	Location *Location
}

// Rating is a rolling aggregate stored as (sum, count) so the average never
// drifts from the underlying review set.
type Rating struct {
	Sum   float64
	Count int
}

// Average returns the arithmetic mean of all recorded ratings, 0 when none.
func (r Rating) Average() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.Sum / float64(r.Count)
}

// StaffProfile qualifies a STAFF user as a dispatch candidate.
type StaffProfile struct {
	UserID       string
	DepartmentID *string
	Title        string
	Skills       []string
	ShiftStart   string
	ShiftEnd     string
	OnDutyToday  bool
	WorkArea     WorkArea
	ContactPhone string
	ContactEmail string
	Rating       Rating
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Dispatchable reports whether the profile is eligible for automatic
// dispatch: on duty today, a known work-area point, and a department.
func (p *StaffProfile) Dispatchable() bool {
	return p.OnDutyToday && p.WorkArea.Location != nil && p.DepartmentID != nil
}
