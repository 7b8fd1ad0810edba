package reminders

import (
	"fmt"
	"strings"

	"medication-refill-tracker/internal/models"
)

type Tone string

const (
	ToneMissed  Tone = "missed"
	ToneDue     Tone = "due"
	ToneWarning Tone = "warning"
)

const (
	TitleMissed      = "You missed a dose"
	TitleDue         = "Time to take your medication"
	TitleLowExpiring = "An Rx is about to run out or expire"
)

type BannerPart struct {
	Title   string          `json:"title"`
	Text    string          `json:"text"`
	Filters []models.Filter `json:"filters"`
}

// Banner is the in-app reminder strip.
type Banner struct {
	Visible bool         `json:"visible"`
	Tone    Tone         `json:"tone,omitempty"`
	Parts   []BannerPart `json:"parts,omitempty"`
}

// BuildBanner renders st into banner parts, missed first. A dismissed banner
// stays hidden whatever the state.
func BuildBanner(st models.ReminderState, dismissed bool) Banner {
	hasMissed := len(st.MissedNow) > 0
	hasDue := len(st.DueNow) > 0
	hasWarning := st.LowOrExpiringCount > 0
	if dismissed || (!hasMissed && !hasDue && !hasWarning) {
		return Banner{}
	}

	b := Banner{Visible: true, Tone: ToneWarning}
	switch {
	case hasMissed:
		b.Tone = ToneMissed
	case hasDue:
		b.Tone = ToneDue
	}
	if hasMissed {
		b.Parts = append(b.Parts, BannerPart{
			Title:   TitleMissed,
			Text:    Names(st.MissedNow) + ". Take as soon as possible.",
			Filters: []models.Filter{models.FilterMissed},
		})
	}
	if hasDue {
		b.Parts = append(b.Parts, BannerPart{
			Title:   TitleDue,
			Text:    Names(st.DueNow) + " (within current time window).",
			Filters: []models.Filter{models.FilterPending},
		})
	}
	if hasWarning {
		b.Parts = append(b.Parts, BannerPart{
			Title:   TitleLowExpiring,
			Text:    fmt.Sprintf("%d medication(s).", st.LowOrExpiringCount),
			Filters: []models.Filter{models.FilterLow, models.FilterExpiring},
		})
	}
	return b
}

// Names joins medication names with ", ".
func Names(meds []models.Medication) string {
	names := make([]string, 0, len(meds))
	for _, m := range meds {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}
