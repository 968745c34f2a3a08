package domain

import (
	"testing"
	"time"
)

func TestSyncSchedule_IsDue(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	hourAgo := now.Add(-time.Hour)
	minuteAgo := now.Add(-time.Minute)

	tests := []struct {
		name     string
		schedule SyncSchedule
		want     bool
	}{
		{
			name:     "hourly schedule overdue",
			schedule: SyncSchedule{CronExpr: "0 * * * *", Enabled: true, LastRunAt: &hourAgo},
			want:     true,
		},
		{
			name:     "hourly schedule just ran",
			schedule: SyncSchedule{CronExpr: "0 * * * *", Enabled: true, LastRunAt: &minuteAgo},
			want:     false,
		},
		{
			name:     "disabled schedule never fires",
			schedule: SyncSchedule{CronExpr: "* * * * *", Enabled: false, LastRunAt: &hourAgo},
			want:     false,
		},
		{
			name:     "invalid expression never fires",
			schedule: SyncSchedule{CronExpr: "not-a-cron", Enabled: true, LastRunAt: &hourAgo},
			want:     false,
		},
		{
			name:     "never ran falls back to a day ago",
			schedule: SyncSchedule{CronExpr: "0 0 * * *", Enabled: true},
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.schedule.IsDue(now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSource_HasEntityType(t *testing.T) {
	s := &Source{EntityTypes: []string{"contacts", "deals"}}
	if !s.HasEntityType("contacts") {
		t.Error("expected contacts to be present")
	}
	if s.HasEntityType("invoices") {
		t.Error("did not expect invoices")
	}
}
