package models

import (
	"time"

	"github.com/google/uuid"
)

type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// TargetAll shows an ad to every role.
const TargetAll = "all"

type Ad struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	VideoURL    string     `json:"video_url"`
	TargetURL   string     `json:"target_url"`
	IsActive    bool       `json:"is_active"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Recurrence  Recurrence `json:"recurrence"`
	TargetRole  string     `json:"target_role"`
	Priority    int        `json:"priority"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsLive reports whether the ad should be shown at now.
//
// Schedules are read in now's location. Daily ads are limited to the clock
// window from StartsAt to EndsAt; a window whose end is earlier in the day
// than its start runs past midnight, and without EndsAt it closes at
// midnight. Weekly ads run only on the weekday of StartsAt.
func (a *Ad) IsLive(now time.Time) bool {
	if !a.IsActive || now.Before(a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && !now.Before(*a.EndsAt) {
		return false
	}

	loc := now.Location()
	start := a.StartsAt.In(loc)
	switch a.Recurrence {
	case RecurrenceDaily:
		from, at := clockOf(start), clockOf(now)
		if a.EndsAt == nil {
			return at >= from
		}
		to := clockOf(a.EndsAt.In(loc))
		switch {
		case to > from:
			return at >= from && at < to
		case to < from:
			return at >= from || at < to
		}
		// Same clock time at both ends: all day.
		return true
	case RecurrenceWeekly:
		return now.Weekday() == start.Weekday()
	}
	return true
}

// Targets reports whether the ad is meant for the given role.
func (a *Ad) Targets(role Role) bool {
	return a.TargetRole == "" || a.TargetRole == TargetAll || a.TargetRole == string(role)
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

type AdInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	ImageURL    string     `json:"image_url" validate:"omitempty,url"`
	VideoURL    string     `json:"video_url" validate:"omitempty,url"`
	TargetURL   string     `json:"target_url" validate:"omitempty,url"`
	IsActive    bool       `json:"is_active"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at" validate:"omitempty,gtfield=StartsAt"`
	Recurrence  Recurrence `json:"recurrence" validate:"omitempty,oneof=none daily weekly"`
	TargetRole  string     `json:"target_role" validate:"omitempty,oneof=all jama_user super_admin"`
	Priority    int        `json:"priority" validate:"gte=0,lte=100"`
}

// AdStats pairs an ad with its delivery counters.
type AdStats struct {
	Ad          *Ad   `json:"ad"`
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`
}
