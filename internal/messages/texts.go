package messages

import (
	"fmt"
	"strings"
	"time"

	"medication-refill-tracker/internal/dose"
	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/reminders"
)

const (
	clockLayout   = "15:04"
	dateLayout    = "Jan 2, 2006"
	headerLayout  = "Mon, Jan 2, 2006"
	noneScheduled = "None scheduled"

	// ExpiredWarning replaces the "taken" action for expired medications.
	ExpiredWarning = "Expired, do not take"
)

func AlertText(title, body string) string {
	if body == "" {
		return title
	}
	return title + "\n" + body
}

// CaregiverSummary renders a plain text status report for someone managing
// care remotely. Expiring counts only medications not yet expired.
func CaregiverSummary(meds []models.Medication, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Medication status – %s\n\n", now.Format(headerLayout))

	if d := reminders.BuildDashboard(meds, now); d.Next != nil {
		fmt.Fprintf(&b, "Next dose: %s at %s\n", d.Next.Medication.Name, d.Next.At.Format(clockLayout))
	} else {
		fmt.Fprintf(&b, "Next dose: %s\n", noneScheduled)
	}

	var pending, low, expiring int
	for _, m := range meds {
		if dose.Evaluate(m, now).Level == models.LevelYellow {
			pending++
		}
		if dose.IsLow(m) {
			low++
		}
		if dose.IsExpiringSoon(m, now) {
			expiring++
		}
	}
	fmt.Fprintf(&b, "Pending (due now): %d\n", pending)
	fmt.Fprintf(&b, "Low stock: %d\n", low)
	fmt.Fprintf(&b, "Expiring within %d days: %d\n\n", dose.ExpiringWindowDays, expiring)

	b.WriteString("Medications:\n")
	for _, v := range reminders.Views(meds, now) {
		fmt.Fprintf(&b, "- %s: %s, next %s, stock %d, expires %s\n",
			nameWithDosage(v.Medication), v.Status.Label, nextClock(v.NextDose), v.Stock,
			v.ExpiresOn.UTC().Format(dateLayout))
	}
	return b.String()
}

// StatusCard is the bot's per-medication message.
func StatusCard(v models.MedicationView) string {
	var b strings.Builder
	b.WriteString(levelMark(v.Status.Level) + " " + nameWithDosage(v.Medication) + "\n")
	fmt.Fprintf(&b, "%s · next %s\n", v.Status.Label, nextClock(v.NextDose))
	fmt.Fprintf(&b, "Stock %d (refill at %d) · expires %s", v.Stock, v.RefillThreshold,
		v.ExpiresOn.UTC().Format(dateLayout))
	if v.Status.Label == models.LabelExpired {
		b.WriteString("\n" + ExpiredWarning)
	}
	return b.String()
}

// UpcomingText lists the doses of the next 24 hours, one per line.
func UpcomingText(upcoming []models.NextDose) string {
	if len(upcoming) == 0 {
		return "No doses in the next 24 hours."
	}
	var b strings.Builder
	b.WriteString("Next 24 hours:\n")
	for _, u := range upcoming {
		fmt.Fprintf(&b, "%s  %s\n", u.At.Format(clockLayout), nameWithDosage(u.Medication))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func nameWithDosage(m models.Medication) string {
	if m.Dosage == "" {
		return m.Name
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.Dosage)
}

func nextClock(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format(clockLayout)
}

func levelMark(l models.Level) string {
	switch l {
	case models.LevelRed:
		return "🔴"
	case models.LevelYellow:
		return "🟡"
	default:
		return "🟢"
	}
}
