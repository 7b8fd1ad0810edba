package reminders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medication-refill-tracker/internal/metrics"
	"medication-refill-tracker/internal/models"
)

// DefaultDoseCooldown is the minimum gap between two dose alerts sharing a throttle key.
const DefaultDoseCooldown = 30 * time.Minute

// DefaultSendTimeout bounds a single Emit.
const DefaultSendTimeout = 15 * time.Second

type Category string

const (
	CategoryDose        Category = "dose"
	CategoryMissed      Category = "missed"
	CategoryLowExpiring Category = "low_expiring"
)

// Sink is a best-effort notification channel.
type Sink interface {
	Available() bool
	Authorized() bool
	Emit(ctx context.Context, title, body string) error
}

type Alert struct {
	Category     Category `json:"category"`
	MedicationID string   `json:"medication_id,omitempty"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
}

// Memory is the session-scoped record of what was already announced. Dose
// keys are never pruned; keys of deleted medications just stop matching.
type Memory struct {
	doseAlerts map[string]time.Time

	MissedAnnounced      bool
	LowExpiringAnnounced bool
}

func NewMemory() *Memory {
	return &Memory{doseAlerts: make(map[string]time.Time)}
}

// LastDoseAlert returns when the dose alert for key last fired.
func (m *Memory) LastDoseAlert(key string) (time.Time, bool) {
	t, ok := m.doseAlerts[key]
	return t, ok
}

func (m *Memory) recordDoseAlert(key string, at time.Time) {
	if m.doseAlerts == nil {
		m.doseAlerts = make(map[string]time.Time)
	}
	m.doseAlerts[key] = at
}

// DoseKey buckets dose alerts by medication, calendar day and hour. Crossing an
// hour boundary starts a new bucket even inside the cooldown.
func DoseKey(medicationID string, now time.Time) string {
	return fmt.Sprintf("%s|%s|%02d", medicationID, now.Format("2006-01-02"), now.Hour())
}

type Policy struct {
	Sink        Sink
	Cooldown    time.Duration
	SendTimeout time.Duration
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

func NewPolicy(sink Sink, cooldown time.Duration, logger *zap.Logger, m *metrics.Metrics) *Policy {
	if cooldown <= 0 {
		cooldown = DefaultDoseCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{Sink: sink, Cooldown: cooldown, SendTimeout: DefaultSendTimeout, Logger: logger, Metrics: m}
}

// Decide emits the alerts st calls for and returns the ones the sink accepted.
// mem is only updated for accepted alerts. Without an available, authorized
// sink nothing happens.
func (p *Policy) Decide(ctx context.Context, st models.ReminderState, now time.Time, mem *Memory) []Alert {
	if p.Sink == nil || !p.Sink.Available() || !p.Sink.Authorized() {
		return nil
	}

	var sent []Alert
	for _, m := range st.DueNow {
		key := DoseKey(m.ID, now)
		if last, ok := mem.LastDoseAlert(key); ok && now.Sub(last) < p.Cooldown {
			continue
		}
		a := DoseAlert(m)
		if p.emit(ctx, a) {
			mem.recordDoseAlert(key, now)
			sent = append(sent, a)
		}
	}

	if len(st.MissedNow) > 0 && !mem.MissedAnnounced {
		a := MissedAlert(st.MissedNow)
		if p.emit(ctx, a) {
			mem.MissedAnnounced = true
			sent = append(sent, a)
		}
	}

	if st.LowOrExpiringCount > 0 && !mem.LowExpiringAnnounced {
		a := LowExpiringAlert(st.LowOrExpiringCount)
		if p.emit(ctx, a) {
			mem.LowExpiringAnnounced = true
			sent = append(sent, a)
		}
	}
	return sent
}

func (p *Policy) emit(ctx context.Context, a Alert) bool {
	if p.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.SendTimeout)
		defer cancel()
	}
	if err := p.Sink.Emit(ctx, a.Title, a.Body); err != nil {
		p.Logger.Warn("notification failed",
			zap.String("category", string(a.Category)),
			zap.String("medication_id", a.MedicationID),
			zap.Error(err),
		)
		p.Metrics.AlertFailed(string(a.Category))
		return false
	}
	p.Logger.Debug("notification sent",
		zap.String("category", string(a.Category)),
		zap.String("medication_id", a.MedicationID),
	)
	p.Metrics.AlertEmitted(string(a.Category))
	return true
}

// ---------- alert texts -----------------------------------------------------

func DoseAlert(m models.Medication) Alert {
	body := m.Name
	if m.Dosage != "" {
		body += " · " + m.Dosage
	}
	return Alert{Category: CategoryDose, MedicationID: m.ID, Title: TitleDue, Body: body}
}

func MissedAlert(missed []models.Medication) Alert {
	return Alert{
		Category: CategoryMissed,
		Title:    TitleMissed,
		Body:     Names(missed) + ". Take as soon as possible.",
	}
}

func LowExpiringAlert(count int) Alert {
	return Alert{
		Category: CategoryLowExpiring,
		Title:    TitleLowExpiring,
		Body:     fmt.Sprintf("%d medication(s) need attention. Refill or check expiry dates.", count),
	}
}
