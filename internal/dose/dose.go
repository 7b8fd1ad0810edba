// Package dose classifies a medication's state relative to a caller-supplied time.
// Nothing here reads the clock.
package dose

import (
	"math"
	"time"

	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/utils"
)

const (
	ExpiringWindowDays = 30
	PendingWindow      = 2 * time.Hour
	MissedAfter        = 2 * time.Hour
)

type facts struct {
	daysToExpire int
	hasDose      bool
	untilDose    time.Duration
	low          bool
}

func (f facts) expired() bool  { return f.daysToExpire < 0 }
func (f facts) expiring() bool { return f.daysToExpire <= ExpiringWindowDays }
func (f facts) missed() bool   { return f.hasDose && f.untilDose < -MissedAfter }
func (f facts) pending() bool {
	return f.hasDose && f.untilDose >= 0 && f.untilDose <= PendingWindow
}

type rule struct {
	match  func(facts) bool
	status models.DoseStatus
}

// rules is the tie-break order: the first matching rule decides the status.
// Expiry beats a missed dose, a missed dose beats stock, and every red
// condition beats a pending dose. The last rule always matches.
var rules = []rule{
	{facts.expired, models.StatusExpired},
	{facts.missed, models.StatusMissedDose},
	{func(f facts) bool { return f.low }, models.StatusLowStock},
	{facts.expiring, models.StatusExpiringSoon},
	{facts.pending, models.StatusDueNow},
	{func(facts) bool { return true }, models.StatusOnTrack},
}

// Evaluate returns exactly one status for m at now.
func Evaluate(m models.Medication, now time.Time) models.DoseStatus {
	f := facts{
		daysToExpire: DaysToExpire(m, now),
		low:          IsLow(m),
	}
	if next, ok := NextDose(m, now); ok {
		f.hasDose = true
		f.untilDose = next.Sub(now)
	}
	for _, r := range rules {
		if r.match(f) {
			return r.status
		}
	}
	return models.StatusOnTrack
}

// DaysToExpire rounds the remaining time up to whole days; negative once expired.
func DaysToExpire(m models.Medication, now time.Time) int {
	days := m.ExpiresOn.Sub(now).Hours() / 24
	return int(math.Ceil(days))
}

func IsLow(m models.Medication) bool {
	return m.Stock <= m.RefillThreshold
}

// IsExpiringSoon is the aggregator's predicate: within the window but not yet expired.
func IsExpiringSoon(m models.Medication, now time.Time) bool {
	d := DaysToExpire(m, now)
	return d >= 0 && d <= ExpiringWindowDays
}

// NextDose computes the next scheduled dose on now's calendar day, or the day
// after for single-entry schedules. ok is false when the schedule has no usable
// first entry.
//
// When the first entry has passed and no later entry today is still ahead, a
// multi-entry schedule falls back to today's first entry, which is already in
// the past. Only single-entry schedules roll over to tomorrow.
func NextDose(m models.Medication, now time.Time) (time.Time, bool) {
	if len(m.Schedule) == 0 {
		return time.Time{}, false
	}
	hour, minute, ok := utils.ParseClock(m.Schedule[0])
	if !ok {
		return time.Time{}, false
	}
	first := utils.AtClock(now, hour, minute)
	if !first.Before(now) {
		return first, true
	}

	if len(m.Schedule) == 1 {
		return first.AddDate(0, 0, 1), true
	}
	for _, entry := range m.Schedule[1:] {
		hour, minute, ok := utils.ParseClock(entry)
		if !ok {
			continue
		}
		if at := utils.AtClock(now, hour, minute); !at.Before(now) {
			return at, true
		}
	}
	// TODO: confirm with product whether this should roll over to tomorrow's first entry.
	return first, true
}
