package domain

import "time"

// PlanTier enumerates subscription levels for an organization.
type PlanTier string

const (
	PlanFree  PlanTier = "free"
	PlanGod   PlanTier = "god"
	PlanTitan PlanTier = "titan"
)

// Organization is the tenant-level feature gate. Every user belongs to
// exactly one organization; quota and SLA ceilings derive from its plan.
type Organization struct {
	ID        string
	Name      string
	Plan      PlanTier
	JoinCode  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
