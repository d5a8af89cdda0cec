package database

import "testing"

func TestPlanStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to PlanStatus
		want     bool
	}{
		{PlanPlanned, PlanArmed, true},
		{PlanPlanned, PlanCancelled, true},
		{PlanPlanned, PlanExecuted, false},
		{PlanArmed, PlanExecuted, true},
		{PlanArmed, PlanCancelled, true},
		{PlanArmed, PlanPlanned, false},
		{PlanExecuted, PlanCancelled, false},
		{PlanCancelled, PlanArmed, false},
	}
	for _, tt := range tests {
		if got := tt.from.ValidTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
