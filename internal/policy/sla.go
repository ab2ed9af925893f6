package policy

import "time"

// ResolveDeadline computes the absolute SLA deadline for a complaint created
// at now. Effective hours are min(department policy, plan ceiling) when a
// department is known, otherwise the plan ceiling alone. The deadline is
// computed once at creation and never silently recomputed.
func ResolveDeadline(now time.Time, departmentHours *int, planCeilingHours int) time.Time {
	effective := planCeilingHours
	if departmentHours != nil && *departmentHours < effective {
		effective = *departmentHours
	}
	return now.Add(time.Duration(effective) * time.Hour)
}
