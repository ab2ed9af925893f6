package policy

import "github.com/spec-kit/civic-complaints/internal/domain"

// UnlimitedDaily marks a plan without a daily complaint cap.
const UnlimitedDaily = -1

// PlanPolicy bundles the feature gates and quotas derived from a plan tier.
type PlanPolicy struct {
	MaxComplaintsPerDay    int
	SLAHoursCeiling        int
	DefaultPriority        domain.ComplaintPriority
	AutoAssignEnabled      bool
	PriorityRoutingEnabled bool
	SLAEnabled             bool
	AnalyticsEnabled       bool
}

// Unlimited reports whether the plan has no daily complaint cap.
func (p PlanPolicy) Unlimited() bool {
	return p.MaxComplaintsPerDay == UnlimitedDaily
}

var planPolicies = map[domain.PlanTier]PlanPolicy{
	domain.PlanFree: {
		MaxComplaintsPerDay: 2,
		SLAHoursCeiling:     72,
		DefaultPriority:     domain.ComplaintPriorityLow,
	},
	domain.PlanGod: {
		MaxComplaintsPerDay: UnlimitedDaily,
		SLAHoursCeiling:     48,
		DefaultPriority:     domain.ComplaintPriorityMedium,
		AutoAssignEnabled:   true,
		SLAEnabled:          true,
		AnalyticsEnabled:    true,
	},
	domain.PlanTitan: {
		MaxComplaintsPerDay:    UnlimitedDaily,
		SLAHoursCeiling:        24,
		DefaultPriority:        domain.ComplaintPriorityHigh,
		AutoAssignEnabled:      true,
		PriorityRoutingEnabled: true,
		SLAEnabled:             true,
		AnalyticsEnabled:       true,
	},
}

// ResolvePlan maps a plan tier to its policy bundle. Unknown or empty tiers
// resolve to the most restrictive (free) bundle; this function never fails.
func ResolvePlan(tier domain.PlanTier) PlanPolicy {
	if policy, ok := planPolicies[tier]; ok {
		return policy
	}
	return planPolicies[domain.PlanFree]
}
