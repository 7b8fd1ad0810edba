package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medication-refill-tracker/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sample(name string) models.Medication {
	return models.Medication{
		Name:            name,
		Dosage:          "10mg",
		Schedule:        []string{"08:00", "20:00"},
		Stock:           30,
		RefillThreshold: 7,
		ExpiresOn:       time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestInsertAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.Insert(ctx, sample("Lisinopril"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := db.Insert(ctx, sample("Metformin"))
	require.NoError(t, err)

	meds, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 2)
	// ULIDs keep insertion order
	assert.Equal(t, first.ID, meds[0].ID)
	assert.Equal(t, second.ID, meds[1].ID)

	got := meds[0]
	assert.Equal(t, "Lisinopril", got.Name)
	assert.Equal(t, []string{"08:00", "20:00"}, got.Schedule)
	assert.Equal(t, 30, got.Stock)
	assert.Equal(t, 7, got.RefillThreshold)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), got.ExpiresOn)
	assert.Nil(t, got.LastTaken)
	assert.Empty(t, got.ImageURL)
}

func TestInsert_KeepsGivenID(t *testing.T) {
	db := newTestDB(t)
	m := sample("Aspirin")
	m.ID = "fixed-id"
	m.ImageURL = "https://example.com/aspirin.png"

	_, err := db.Insert(context.Background(), m)
	require.NoError(t, err)

	got, err := db.Get(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/aspirin.png", got.ImageURL)
}

func TestUpdate_PartialFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m, err := db.Insert(ctx, sample("Lisinopril"))
	require.NoError(t, err)

	stock := 4
	taken := time.Date(2025, 5, 8, 8, 5, 0, 0, time.UTC)
	require.NoError(t, db.Update(ctx, m.ID, models.MedicationPatch{Stock: &stock, LastTaken: &taken}))

	got, err := db.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
	require.NotNil(t, got.LastTaken)
	assert.True(t, taken.Equal(*got.LastTaken))
	assert.Equal(t, "Lisinopril", got.Name)
	assert.Equal(t, []string{"08:00", "20:00"}, got.Schedule)
}

func TestUpdate_ScheduleAndExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m, err := db.Insert(ctx, sample("Lisinopril"))
	require.NoError(t, err)

	exp := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Update(ctx, m.ID, models.MedicationPatch{Schedule: []string{"07:30"}, ExpiresOn: &exp}))

	got, err := db.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"07:30"}, got.Schedule)
	assert.Equal(t, exp, got.ExpiresOn)
}

func TestUpdate_EmptyPatch(t *testing.T) {
	db := newTestDB(t)
	err := db.Update(context.Background(), "x", models.MedicationPatch{})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUpdateAndDelete_Missing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	stock := 1

	assert.ErrorIs(t, db.Update(ctx, "missing", models.MedicationPatch{Stock: &stock}), models.ErrNotFound)
	assert.ErrorIs(t, db.Delete(ctx, "missing"), models.ErrNotFound)
	_, err := db.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m, err := db.Insert(ctx, sample("Lisinopril"))
	require.NoError(t, err)

	require.NoError(t, db.Delete(ctx, m.ID))

	meds, err := db.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestBuildUpdate_SortedColumns(t *testing.T) {
	name := "A"
	stock := 2
	sets, args, err := buildUpdate(models.MedicationPatch{Stock: &stock, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, []string{"name = ?", "stock = ?"}, sets)
	assert.Equal(t, []any{"A", 2}, args)
}

func TestNew_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	db, err := New(path)
	require.NoError(t, err)
	_, err = db.Insert(context.Background(), sample("Lisinopril"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	meds, err := db.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, meds, 1)
}
