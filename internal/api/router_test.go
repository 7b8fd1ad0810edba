package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medication-refill-tracker/internal/metrics"
	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/reminders"
	"medication-refill-tracker/internal/tracker"
)

// memStore is a map-backed tracker.Store.
type memStore struct {
	meds   []models.Medication
	nextID int
}

func (s *memStore) List(context.Context) ([]models.Medication, error) {
	return append([]models.Medication(nil), s.meds...), nil
}

func (s *memStore) Insert(_ context.Context, m models.Medication) (models.Medication, error) {
	s.nextID++
	m.ID = "new" + string(rune('0'+s.nextID))
	s.meds = append(s.meds, m)
	return m, nil
}

func (s *memStore) Update(_ context.Context, id string, p models.MedicationPatch) error {
	for i, m := range s.meds {
		if m.ID == id {
			s.meds[i] = p.Apply(m)
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *memStore) Delete(_ context.Context, id string) error {
	for i, m := range s.meds {
		if m.ID == id {
			s.meds = append(s.meds[:i], s.meds[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

var (
	day = time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC)
	now = day.Add(9 * time.Hour)
)

func med(id, name string, schedule ...string) models.Medication {
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

func setup(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	b := med("b", "Bisoprolol", "06:00", "06:30")
	b.Stock = 2
	store := &memStore{meds: []models.Medication{med("a", "Aspirin", "10:00"), b}}
	tr := tracker.New(store, nil, zap.NewNop(), nil)
	require.NoError(t, tr.Reload(context.Background()))

	router := NewRouter(&Deps{
		Tracker: tr,
		Metrics: metrics.New(),
		Loc:     time.UTC,
		Now:     func() time.Time { return now },
	})
	return router, store
}

func do(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	router, _ := setup(t)
	rec := do(router, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[MessageEnvelope](t, rec).Message)
}

func TestListMedications(t *testing.T) {
	router, _ := setup(t)

	rec := do(router, http.MethodGet, "/v1/medications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]models.MedicationView](t, rec)
	require.Len(t, views, 2)
	assert.Equal(t, models.StatusDueNow, views[0].Status)
	assert.Equal(t, models.StatusMissedDose, views[1].Status)
	require.NotNil(t, views[0].NextDose)
	assert.True(t, day.Add(10*time.Hour).Equal(*views[0].NextDose))
}

func TestListMedications_Filter(t *testing.T) {
	router, _ := setup(t)

	rec := do(router, http.MethodGet, "/v1/medications?filter=pending", nil)
	views := decode[[]models.MedicationView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, "a", views[0].ID)

	rec = do(router, http.MethodGet, "/v1/medications?filter=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMedication(t *testing.T) {
	router, _ := setup(t)

	rec := do(router, http.MethodGet, "/v1/medications/b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bisoprolol", decode[models.MedicationView](t, rec).Name)

	rec = do(router, http.MethodGet, "/v1/medications/zzz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMedication(t *testing.T) {
	router, store := setup(t)

	rec := do(router, http.MethodPost, "/v1/medications", models.MedicationInput{
		Name:            "Lisinopril",
		Schedule:        []string{"08:00"},
		Stock:           30,
		RefillThreshold: 7,
		ExpiresOn:       "2026-01-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Medication](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Len(t, store.meds, 3)

	rec = do(router, http.MethodGet, "/v1/medications", nil)
	assert.Len(t, decode[[]models.MedicationView](t, rec), 3)
}

func TestCreateMedication_Invalid(t *testing.T) {
	router, _ := setup(t)

	rec := do(router, http.MethodPost, "/v1/medications", models.MedicationInput{Name: "X", ExpiresOn: "2026-01-31"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[MessageEnvelope](t, rec).Error)

	req := httptest.NewRequest(http.MethodPost, "/v1/medications", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceMedication(t *testing.T) {
	router, store := setup(t)

	rec := do(router, http.MethodPut, "/v1/medications/a", models.MedicationInput{
		Name:      "Aspirin Forte",
		Schedule:  []string{"07:00", "19:00"},
		Stock:     10,
		ExpiresOn: "2027-01-01",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Aspirin Forte", store.meds[0].Name)
	assert.Equal(t, []string{"07:00", "19:00"}, store.meds[0].Schedule)
}

func TestPatchMedication(t *testing.T) {
	router, store := setup(t)

	rec := do(router, http.MethodPatch, "/v1/medications/a", map[string]any{"expires_on": "2027-03-01", "stock": 9})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9, store.meds[0].Stock)
	assert.Equal(t, time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), store.meds[0].ExpiresOn)

	rec = do(router, http.MethodPatch, "/v1/medications/a", map[string]any{"expires_on": "March"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPatch, "/v1/medications/a", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStock(t *testing.T) {
	router, store := setup(t)

	rec := do(router, http.MethodPut, "/v1/medications/b/stock", map[string]int{"stock": 60})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 60, store.meds[1].Stock)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPut, "/v1/medications/b/stock", map[string]int{}).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPut, "/v1/medications/b/stock", map[string]int{"stock": -3}).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPut, "/v1/medications/zzz/stock", map[string]int{"stock": 1}).Code)
}

func TestMarkTaken(t *testing.T) {
	router, store := setup(t)

	rec := do(router, http.MethodPost, "/v1/medications/a/taken", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.meds[0].LastTaken)
	assert.True(t, now.Equal(*store.meds[0].LastTaken))
	assert.Equal(t, 50, store.meds[0].Stock)
}

func TestDeleteMedication(t *testing.T) {
	router, store := setup(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodDelete, "/v1/medications/a", nil).Code)
	assert.Len(t, store.meds, 1)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodDelete, "/v1/medications/a", nil).Code)
}

func TestDerivedState(t *testing.T) {
	router, _ := setup(t)

	d := decode[models.Dashboard](t, do(router, http.MethodGet, "/v1/dashboard", nil))
	assert.Equal(t, 1, d.PendingCount)
	assert.Equal(t, 1, d.LowCount)

	st := decode[models.ReminderState](t, do(router, http.MethodGet, "/v1/reminders", nil))
	assert.Len(t, st.DueNow, 1)
	assert.Len(t, st.MissedNow, 1)
	assert.Equal(t, 1, st.LowOrExpiringCount)

	up := decode[[]models.NextDose](t, do(router, http.MethodGet, "/v1/upcoming", nil))
	assert.Len(t, up, 3)

	rec := do(router, http.MethodGet, "/v1/summary", nil)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Pending (due now): 1")
}

func TestBanner(t *testing.T) {
	router, _ := setup(t)

	b := decode[reminders.Banner](t, do(router, http.MethodGet, "/v1/banner", nil))
	assert.True(t, b.Visible)
	assert.Equal(t, reminders.ToneMissed, b.Tone)
	assert.Len(t, b.Parts, 3)

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/v1/banner/dismiss", nil).Code)
	b = decode[reminders.Banner](t, do(router, http.MethodGet, "/v1/banner", nil))
	assert.False(t, b.Visible)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setup(t)
	rec := do(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medtracker_tick_duration_seconds")
}
