// Package tracker owns the in-memory medication collection. Every mutation
// goes to the store first and is followed by a full reload; the periodic
// tick turns the collection into reminder state and alerts.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"medication-refill-tracker/internal/messages"
	"medication-refill-tracker/internal/metrics"
	"medication-refill-tracker/internal/models"
	"medication-refill-tracker/internal/reminders"
	"medication-refill-tracker/internal/utils"
	"medication-refill-tracker/internal/validate"
)

// Store persists medications. storage.DB and dynamo.MedicationRepo implement it.
type Store interface {
	List(ctx context.Context) ([]models.Medication, error)
	Insert(ctx context.Context, m models.Medication) (models.Medication, error)
	Update(ctx context.Context, id string, patch models.MedicationPatch) error
	Delete(ctx context.Context, id string) error
}

type Tracker struct {
	store   Store
	policy  *reminders.Policy
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	meds []models.Medication

	// memMu guards mem and is held while alerts go out; one tick at a time.
	memMu sync.Mutex
	mem   *reminders.Memory

	bannerDismissed atomic.Bool
}

func New(store Store, policy *reminders.Policy, logger *zap.Logger, m *metrics.Metrics) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:   store,
		policy:  policy,
		logger:  logger,
		metrics: m,
		mem:     reminders.NewMemory(),
	}
}

// Reload replaces the collection with the store's contents. On failure the
// previous collection stays in place.
func (t *Tracker) Reload(ctx context.Context) error {
	meds, err := t.store.List(ctx)
	if err != nil {
		t.metrics.ReloadFailed()
		return fmt.Errorf("reload medications: %w", err)
	}
	t.mu.Lock()
	t.meds = meds
	t.mu.Unlock()
	t.metrics.SetMedications(len(meds))
	return nil
}

// Tick runs one reminder pass at now: reload, aggregate, then let the
// throttle policy decide what to send.
func (t *Tracker) Tick(ctx context.Context, now time.Time) models.ReminderState {
	start := time.Now()
	defer func() { t.metrics.ObserveTick(time.Since(start)) }()

	if err := t.Reload(ctx); err != nil {
		t.logger.Warn("tick: using previous collection", zap.Error(err))
	}

	st := reminders.Aggregate(t.Medications(), now)
	if t.policy == nil {
		return st
	}
	t.memMu.Lock()
	sent := t.policy.Decide(ctx, st, now, t.mem)
	t.memMu.Unlock()
	if len(sent) > 0 {
		t.logger.Info("alerts sent", zap.Int("count", len(sent)))
	}
	return st
}

// ---------- mutations -------------------------------------------------------

func (t *Tracker) Add(ctx context.Context, in models.MedicationInput) (models.Medication, error) {
	m, err := fromInput(in)
	if err != nil {
		return models.Medication{}, err
	}
	stored, err := t.store.Insert(ctx, m)
	if err != nil {
		return models.Medication{}, err
	}
	t.reloadAfterWrite(ctx)
	return stored, nil
}

// Edit replaces every editable field of id with in. LastTaken is kept.
func (t *Tracker) Edit(ctx context.Context, id string, in models.MedicationInput) error {
	m, err := fromInput(in)
	if err != nil {
		return err
	}
	return t.Patch(ctx, id, models.MedicationPatch{
		Name:            &m.Name,
		Dosage:          &m.Dosage,
		Schedule:        m.Schedule,
		Stock:           &m.Stock,
		RefillThreshold: &m.RefillThreshold,
		ExpiresOn:       &m.ExpiresOn,
		ImageURL:        &m.ImageURL,
	})
}

// Patch applies a partial update.
func (t *Tracker) Patch(ctx context.Context, id string, p models.MedicationPatch) error {
	if err := checkPatch(p); err != nil {
		return err
	}
	if err := t.store.Update(ctx, id, p); err != nil {
		return err
	}
	t.reloadAfterWrite(ctx)
	return nil
}

func (t *Tracker) UpdateStock(ctx context.Context, id string, stock int) error {
	return t.Patch(ctx, id, models.MedicationPatch{Stock: &stock})
}

// MarkTaken records now as the last intake. Stock is not touched.
func (t *Tracker) MarkTaken(ctx context.Context, id string, now time.Time) error {
	return t.Patch(ctx, id, models.MedicationPatch{LastTaken: &now})
}

func (t *Tracker) Delete(ctx context.Context, id string) error {
	if err := t.store.Delete(ctx, id); err != nil {
		return err
	}
	t.reloadAfterWrite(ctx)
	return nil
}

func (t *Tracker) reloadAfterWrite(ctx context.Context) {
	if err := t.Reload(ctx); err != nil {
		t.logger.Warn("reload after write failed", zap.Error(err))
	}
}

// fromInput normalizes and validates in. Invalid schedule entries are
// dropped; an input left with none is rejected.
func fromInput(in models.MedicationInput) (models.Medication, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Dosage = strings.TrimSpace(in.Dosage)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Schedule = utils.ParseScheduleInput(strings.Join(in.Schedule, ","))
	if err := validate.Struct(in); err != nil {
		return models.Medication{}, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}
	exp, err := utils.ParseDate(in.ExpiresOn)
	if err != nil {
		return models.Medication{}, fmt.Errorf("%w: expires_on: %v", models.ErrBadRequest, err)
	}
	return models.Medication{
		Name:            in.Name,
		Dosage:          in.Dosage,
		Schedule:        in.Schedule,
		Stock:           in.Stock,
		RefillThreshold: in.RefillThreshold,
		ExpiresOn:       exp,
		ImageURL:        in.ImageURL,
	}, nil
}

func checkPatch(p models.MedicationPatch) error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: no fields to update", models.ErrBadRequest)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name is required", models.ErrBadRequest)
	}
	if p.Schedule != nil {
		if len(p.Schedule) == 0 {
			return fmt.Errorf("%w: schedule needs at least one time", models.ErrBadRequest)
		}
		for _, s := range p.Schedule {
			if !utils.IsClock(s) {
				return fmt.Errorf("%w: bad schedule entry %q", models.ErrBadRequest, s)
			}
		}
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", models.ErrBadRequest)
	}
	if p.RefillThreshold != nil && *p.RefillThreshold < 0 {
		return fmt.Errorf("%w: refill_threshold must not be negative", models.ErrBadRequest)
	}
	return nil
}

// ---------- reads -----------------------------------------------------------

// Medications returns a copy of the current collection.
func (t *Tracker) Medications() []models.Medication {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Medication(nil), t.meds...)
}

func (t *Tracker) Get(id string) (models.Medication, error) {
	for _, m := range t.Medications() {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Medication{}, models.ErrNotFound
}

// Views lists medications matching f with their status.
func (t *Tracker) Views(f models.Filter, now time.Time) []models.MedicationView {
	return reminders.Views(reminders.Filter(t.Medications(), f, now), now)
}

func (t *Tracker) Dashboard(now time.Time) models.Dashboard {
	return reminders.BuildDashboard(t.Medications(), now)
}

func (t *Tracker) Reminders(now time.Time) models.ReminderState {
	return reminders.Aggregate(t.Medications(), now)
}

func (t *Tracker) Upcoming(now time.Time) []models.NextDose {
	return reminders.Upcoming(t.Medications(), now, reminders.UpcomingWindow)
}

func (t *Tracker) Summary(now time.Time) string {
	return messages.CaregiverSummary(t.Medications(), now)
}

// Banner is hidden for the rest of the session once dismissed.
func (t *Tracker) Banner(now time.Time) reminders.Banner {
	return reminders.BuildBanner(t.Reminders(now), t.bannerDismissed.Load())
}

func (t *Tracker) DismissBanner() { t.bannerDismissed.Store(true) }
