package models

import (
	"testing"
	"time"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func at(loc *time.Location, year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func TestAd_IsLive(t *testing.T) {
	end := func(tm time.Time) *time.Time { u := tm.UTC(); return &u }

	// Stored as UTC the way the store returns them: 04:00-06:00 IST is
	// 22:30-00:30 UTC.
	earlyMorning := &Ad{
		IsActive:   true,
		Recurrence: RecurrenceDaily,
		StartsAt:   at(ist, 2024, time.June, 3, 4, 0).UTC(),
		EndsAt:     end(at(ist, 2024, time.June, 30, 6, 0)),
	}
	overnight := &Ad{
		IsActive:   true,
		Recurrence: RecurrenceDaily,
		StartsAt:   at(ist, 2024, time.June, 3, 22, 0).UTC(),
		EndsAt:     end(at(ist, 2024, time.June, 30, 2, 0)),
	}
	evenings := &Ad{
		IsActive:   true,
		Recurrence: RecurrenceDaily,
		StartsAt:   at(ist, 2024, time.June, 3, 18, 0).UTC(),
	}
	// Monday 23:00 UTC is Tuesday 04:30 IST.
	weekly := &Ad{
		IsActive:   true,
		Recurrence: RecurrenceWeekly,
		StartsAt:   at(time.UTC, 2024, time.June, 3, 23, 0),
	}
	oneOff := &Ad{
		IsActive: true,
		StartsAt: at(time.UTC, 2024, time.June, 3, 0, 0),
		EndsAt:   end(at(time.UTC, 2024, time.June, 10, 0, 0)),
	}
	paused := &Ad{StartsAt: oneOff.StartsAt}

	tests := []struct {
		name string
		ad   *Ad
		now  time.Time
		want bool
	}{
		{"window opens", earlyMorning, at(ist, 2024, time.June, 5, 4, 0), true},
		{"window before utc midnight", earlyMorning, at(ist, 2024, time.June, 5, 5, 15), true},
		{"window after utc midnight", earlyMorning, at(ist, 2024, time.June, 5, 5, 45), true},
		{"window closes", earlyMorning, at(ist, 2024, time.June, 5, 6, 0), false},
		{"before window", earlyMorning, at(ist, 2024, time.June, 5, 3, 59), false},
		{"overnight late evening", overnight, at(ist, 2024, time.June, 5, 23, 0), true},
		{"overnight after midnight", overnight, at(ist, 2024, time.June, 6, 1, 0), true},
		{"overnight morning", overnight, at(ist, 2024, time.June, 6, 3, 0), false},
		{"overnight afternoon", overnight, at(ist, 2024, time.June, 6, 21, 0), false},
		{"open ended daily", evenings, at(ist, 2024, time.June, 8, 19, 0), true},
		{"open ended daily too early", evenings, at(ist, 2024, time.June, 8, 17, 0), false},
		{"weekly local weekday", weekly, at(ist, 2024, time.June, 11, 10, 0), true},
		{"weekly utc weekday only", weekly, at(ist, 2024, time.June, 10, 20, 0), false},
		{"weekly in utc", weekly, at(time.UTC, 2024, time.June, 10, 23, 30), true},
		{"one off running", oneOff, at(time.UTC, 2024, time.June, 5, 12, 0), true},
		{"one off at end", oneOff, at(time.UTC, 2024, time.June, 10, 0, 0), false},
		{"one off after end", oneOff, at(time.UTC, 2024, time.June, 12, 0, 0), false},
		{"not started", oneOff, at(time.UTC, 2024, time.June, 2, 23, 0), false},
		{"inactive", paused, at(time.UTC, 2024, time.June, 5, 12, 0), false},
	}

	for _, tc := range tests {
		if got := tc.ad.IsLive(tc.now); got != tc.want {
			t.Errorf("%s: IsLive(%s) = %v, want %v", tc.name, tc.now, got, tc.want)
		}
	}
}

func TestAd_Targets(t *testing.T) {
	ad := &Ad{TargetRole: string(RoleUser)}
	if !ad.Targets(RoleUser) {
		t.Error("Expected ad to target jama users")
	}
	if ad.Targets(RoleSuperAdmin) {
		t.Error("Expected ad to skip super admins")
	}
	for _, role := range []string{"", TargetAll} {
		ad.TargetRole = role
		if !ad.Targets(RoleSuperAdmin) {
			t.Errorf("Expected target %q to reach every role", role)
		}
	}
}
