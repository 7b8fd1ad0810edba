// Package reminders derives collection-wide reminder data from dose statuses
// and decides which of it becomes an outbound notification.
package reminders

import (
	"sort"
	"time"

	"medication-refill-tracker/internal/dose"
	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/utils"
)

// UpcomingWindow bounds the upcoming reminders list.
const UpcomingWindow = 24 * time.Hour

// Aggregate partitions meds at now. The low/expiring set is computed from its
// own predicates, so a medication the evaluator reports as Missed Dose can
// still be listed there.
func Aggregate(meds []models.Medication, now time.Time) models.ReminderState {
	var st models.ReminderState
	for _, m := range meds {
		status := dose.Evaluate(m, now)
		if status.Level == models.LevelYellow {
			st.DueNow = append(st.DueNow, m)
		}
		if status.Label == models.LabelMissedDose {
			st.MissedNow = append(st.MissedNow, m)
		}
		if dose.IsLow(m) || dose.IsExpiringSoon(m, now) {
			st.LowOrExpiring = append(st.LowOrExpiring, m)
		}
	}
	st.LowOrExpiringCount = len(st.LowOrExpiring)
	return st
}

// Filter keeps the medications matching f, in collection order.
func Filter(meds []models.Medication, f models.Filter, now time.Time) []models.Medication {
	out := make([]models.Medication, 0, len(meds))
	for _, m := range meds {
		status := dose.Evaluate(m, now)
		var keep bool
		switch f {
		case models.FilterPending:
			keep = status.Level == models.LevelYellow
		case models.FilterMissed:
			keep = status.Label == models.LabelMissedDose
		case models.FilterLow:
			keep = status.Label == models.LabelLowStock
		case models.FilterExpiring:
			keep = status.Label == models.LabelExpiringSoon
		default:
			keep = true
		}
		if keep {
			out = append(out, m)
		}
	}
	return out
}

// Views attaches the derived status and next dose to each medication.
func Views(meds []models.Medication, now time.Time) []models.MedicationView {
	out := make([]models.MedicationView, 0, len(meds))
	for _, m := range meds {
		v := models.MedicationView{Medication: m, Status: dose.Evaluate(m, now)}
		if next, ok := dose.NextDose(m, now); ok {
			v.NextDose = &next
		}
		out = append(out, v)
	}
	return out
}

// SortByNextDose orders meds by next dose; medications without one go last.
func SortByNextDose(meds []models.Medication, now time.Time) []models.NextDose {
	var out []models.NextDose
	var undated []models.NextDose
	for _, m := range meds {
		if at, ok := dose.NextDose(m, now); ok {
			out = append(out, models.NextDose{Medication: m, At: at})
		} else {
			undated = append(undated, models.NextDose{Medication: m})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return append(out, undated...)
}

// BuildDashboard fills the summary cards. The expiring card counts every
// medication within the window, already expired ones included.
func BuildDashboard(meds []models.Medication, now time.Time) models.Dashboard {
	var d models.Dashboard
	if sorted := SortByNextDose(meds, now); len(sorted) > 0 && !sorted[0].At.IsZero() {
		next := sorted[0]
		d.Next = &next
	}
	for _, m := range meds {
		if dose.Evaluate(m, now).Level == models.LevelYellow {
			d.PendingCount++
		}
		if dose.IsLow(m) {
			d.LowCount++
		}
		if dose.DaysToExpire(m, now) <= dose.ExpiringWindowDays {
			d.ExpiringCount++
		}
	}
	return d
}

// Upcoming lists every scheduled time of every medication over the next
// window, each entry pushed to tomorrow when already past today.
func Upcoming(meds []models.Medication, now time.Time, window time.Duration) []models.NextDose {
	var out []models.NextDose
	for _, m := range meds {
		for _, entry := range m.Schedule {
			at, ok := nextOccurrence(entry, now)
			if !ok || at.Sub(now) > window {
				continue
			}
			out = append(out, models.NextDose{Medication: m, At: at})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func nextOccurrence(entry string, now time.Time) (time.Time, bool) {
	hour, minute, ok := utils.ParseClock(entry)
	if !ok {
		return time.Time{}, false
	}
	at := utils.AtClock(now, hour, minute)
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, true
}
