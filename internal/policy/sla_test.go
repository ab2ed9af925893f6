package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDeadline(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	deptFast := 12
	deptSlow := 96

	tests := []struct {
		name      string
		deptHours *int
		ceiling   int
		wantHours int
	}{
		{"department tighter than ceiling", &deptFast, 72, 12},
		{"ceiling tighter than department", &deptSlow, 72, 72},
		{"no department uses ceiling", nil, 48, 48},
		{"equal values", &deptSlow, 96, 96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDeadline(now, tt.deptHours, tt.ceiling)
			assert.Equal(t, now.Add(time.Duration(tt.wantHours)*time.Hour), got)
		})
	}
}

func TestResolveDeadlineDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	hours := 24
	assert.Equal(t, ResolveDeadline(now, &hours, 72), ResolveDeadline(now, &hours, 72))
}
