// Package overdue places a loan on the calendar: when it should finish, how
// long it has run, and how far past its tenor it is.
package overdue

import (
	"math"
	"time"

	"github.com/mcclellann/jama/pkg/economics"
	"github.com/mcclellann/jama/pkg/models"
)

// Band is a display priority. Reports sort by it, so the three tiers stay
// ordered normal < medium < high.
type Band string

const (
	BandNormal Band = "normal"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

const (
	mediumFromDays = 4
	highFromDays   = 7
)

// Rank orders bands for sorting; higher is more urgent.
func (b Band) Rank() int {
	switch b {
	case BandHigh:
		return 2
	case BandMedium:
		return 1
	}
	return 0
}

// BandFor maps days overdue to a priority band.
func BandFor(daysOverdue int) Band {
	switch {
	case daysOverdue >= highFromDays:
		return BandHigh
	case daysOverdue >= mediumFromDays:
		return BandMedium
	}
	return BandNormal
}

type Timing struct {
	ExpectedEndDate      time.Time `json:"expected_end_date"`
	DaysSinceStart       int       `json:"days_since_start"`
	DaysOverdue          int       `json:"days_overdue"`
	DaysSinceLastPayment int       `json:"days_since_last_payment"`
	PriorityBand         Band      `json:"priority_band"`
}

// Compute derives the timing of a loan as of today. A zero lastPayment means
// no payment yet and counts from start. Only calendar dates matter; clock
// parts of the arguments are dropped.
func Compute(start time.Time, tenorCount int, tenorUnit models.TenorUnit, lastPayment, today time.Time) Timing {
	startDay := models.DateOnly(start)
	todayDay := models.DateOnly(today)
	tenorDays := economics.TenorInDays(tenorCount, tenorUnit)

	if lastPayment.IsZero() {
		lastPayment = start
	}

	sinceStart := daysBetween(startDay, todayDay)
	overdue := sinceStart - tenorDays
	if overdue < 0 {
		overdue = 0
	}

	return Timing{
		ExpectedEndDate:      startDay.AddDate(0, 0, tenorDays),
		DaysSinceStart:       sinceStart,
		DaysOverdue:          overdue,
		DaysSinceLastPayment: daysBetween(models.DateOnly(lastPayment), todayDay),
		PriorityBand:         BandFor(overdue),
	}
}

// ExpectedEndDate is start plus the tenor in days.
func ExpectedEndDate(start time.Time, tenorCount int, tenorUnit models.TenorUnit) time.Time {
	return models.DateOnly(start).AddDate(0, 0, economics.TenorInDays(tenorCount, tenorUnit))
}

func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}
