package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medication-refill-tracker/internal/models"
)

var day = time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func medication(id, name string, schedule ...string) models.Medication {
	return models.Medication{
		ID:              id,
		Name:            name,
		Dosage:          "100mg",
		Schedule:        schedule,
		Stock:           50,
		RefillThreshold: 5,
		ExpiresOn:       day.AddDate(1, 0, 0),
	}
}

// fixture at 09:00: Aspirin due, Bisoprolol missed and low, Cetirizine
// expiring, Dexamethasone expired, Ezetimibe on track.
func fixture() []models.Medication {
	aspirin := medication("a", "Aspirin", "10:00")

	bisoprolol := medication("b", "Bisoprolol", "06:00", "06:30")
	bisoprolol.Stock = 2

	cetirizine := medication("c", "Cetirizine", "20:00")
	cetirizine.ExpiresOn = day.AddDate(0, 0, 10)

	dexa := medication("d", "Dexamethasone", "20:00")
	dexa.ExpiresOn = day.AddDate(0, 0, -5)

	ezetimibe := medication("e", "Ezetimibe", "21:00")

	return []models.Medication{aspirin, bisoprolol, cetirizine, dexa, ezetimibe}
}

func ids(meds []models.Medication) []string {
	out := make([]string, 0, len(meds))
	for _, m := range meds {
		out = append(out, m.ID)
	}
	return out
}

func TestAggregate(t *testing.T) {
	st := Aggregate(fixture(), at(9, 0))

	assert.Equal(t, []string{"a"}, ids(st.DueNow))
	assert.Equal(t, []string{"b"}, ids(st.MissedNow))
	// b is listed even though its status is Missed Dose; d is expired, not expiring
	assert.Equal(t, []string{"b", "c"}, ids(st.LowOrExpiring))
	assert.Equal(t, 2, st.LowOrExpiringCount)
}

func TestAggregate_IsDeterministic(t *testing.T) {
	meds := fixture()
	now := at(9, 0)
	assert.Equal(t, Aggregate(meds, now), Aggregate(meds, now))
}

func TestAggregate_EmptyCollection(t *testing.T) {
	st := Aggregate(nil, at(9, 0))
	assert.Empty(t, st.DueNow)
	assert.Empty(t, st.MissedNow)
	assert.Zero(t, st.LowOrExpiringCount)
}

func TestAggregate_ToleratesCollectionChangingBetweenCalls(t *testing.T) {
	meds := fixture()
	first := Aggregate(meds, at(9, 0))
	second := Aggregate(meds[:1], at(9, 1))
	assert.Len(t, first.DueNow, 1)
	assert.Len(t, second.DueNow, 1)
	assert.Empty(t, second.MissedNow)
}

func TestFilter(t *testing.T) {
	meds := fixture()
	now := at(9, 0)

	assert.Len(t, Filter(meds, models.FilterAll, now), 5)
	assert.Equal(t, []string{"a"}, ids(Filter(meds, models.FilterPending, now)))
	assert.Equal(t, []string{"b"}, ids(Filter(meds, models.FilterMissed, now)))
	// the low filter goes by label, and b's label is Missed Dose
	assert.Empty(t, Filter(meds, models.FilterLow, now))
	assert.Equal(t, []string{"c"}, ids(Filter(meds, models.FilterExpiring, now)))
}

func TestViews(t *testing.T) {
	views := Views(fixture()[:1], at(9, 0))
	require.Len(t, views, 1)
	assert.Equal(t, models.StatusDueNow, views[0].Status)
	require.NotNil(t, views[0].NextDose)
	assert.Equal(t, at(10, 0), *views[0].NextDose)
}

func TestBuildDashboard(t *testing.T) {
	d := BuildDashboard(fixture(), at(9, 0))

	require.NotNil(t, d.Next)
	// Bisoprolol's next dose falls back to 06:00 today, the earliest time
	assert.Equal(t, "b", d.Next.Medication.ID)
	assert.Equal(t, at(6, 0), d.Next.At)
	assert.Equal(t, 1, d.PendingCount)
	assert.Equal(t, 1, d.LowCount)
	// Cetirizine plus the already expired Dexamethasone
	assert.Equal(t, 2, d.ExpiringCount)
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := BuildDashboard(nil, at(9, 0))
	assert.Nil(t, d.Next)
	assert.Zero(t, d.PendingCount)
}

func TestUpcoming(t *testing.T) {
	got := Upcoming(fixture(), at(9, 0), UpcomingWindow)

	require.Len(t, got, 6)
	var order []string
	for _, u := range got {
		order = append(order, u.Medication.ID)
	}
	assert.Equal(t, []string{"a", "c", "d", "e", "b", "b"}, order)
	assert.Equal(t, at(6, 0).AddDate(0, 0, 1), got[4].At)
	assert.Equal(t, at(6, 30).AddDate(0, 0, 1), got[5].At)
}

func TestUpcoming_RespectsWindow(t *testing.T) {
	got := Upcoming(fixture(), at(9, 0), 2*time.Hour)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Medication.ID)
}

func TestBuildBanner(t *testing.T) {
	st := Aggregate(fixture(), at(9, 0))
	b := BuildBanner(st, false)

	assert.True(t, b.Visible)
	assert.Equal(t, ToneMissed, b.Tone)
	require.Len(t, b.Parts, 3)
	assert.Equal(t, TitleMissed, b.Parts[0].Title)
	assert.Equal(t, "Bisoprolol. Take as soon as possible.", b.Parts[0].Text)
	assert.Equal(t, TitleDue, b.Parts[1].Title)
	assert.Equal(t, "2 medication(s).", b.Parts[2].Text)
	assert.Equal(t, []models.Filter{models.FilterLow, models.FilterExpiring}, b.Parts[2].Filters)
}

func TestBuildBanner_ToneAndVisibility(t *testing.T) {
	due := models.ReminderState{DueNow: fixture()[:1]}
	assert.Equal(t, ToneDue, BuildBanner(due, false).Tone)

	warn := models.ReminderState{LowOrExpiringCount: 1}
	assert.Equal(t, ToneWarning, BuildBanner(warn, false).Tone)

	assert.False(t, BuildBanner(models.ReminderState{}, false).Visible)
	assert.False(t, BuildBanner(due, true).Visible)
}
