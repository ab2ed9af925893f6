package domain

import "time"

// Department is a routing target owning a set of complaint categories and an
// SLA policy expressed in hours.
type Department struct {
	ID                string
	Name              string
	Code              string
	CategoriesHandled []string
	SLAPolicyHours    int
	ManagerID         *string
	ContactEmail      string
	ContactPhone      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Handles reports whether the department owns the given category.
func (d *Department) Handles(category string) bool {
	for _, c := range d.CategoriesHandled {
		if c == category {
			return true
		}
	}
	return false
}
