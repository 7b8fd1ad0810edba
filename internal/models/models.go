package models

import "time"

// Medication is one row of the medications table.
type Medication struct {
	ID              string     `json:"id"               dynamodbav:"id"`
	Name            string     `json:"name"             dynamodbav:"name"`
	Dosage          string     `json:"dosage"           dynamodbav:"dosage"`
	Schedule        []string   `json:"schedule"         dynamodbav:"schedule"` // ["08:00", "20:00"], dose order
	Stock           int        `json:"stock"            dynamodbav:"stock"`
	RefillThreshold int        `json:"refill_threshold" dynamodbav:"refill_threshold"`
	ExpiresOn       time.Time  `json:"expires_on"       dynamodbav:"expires_on"` // midnight UTC
	LastTaken       *time.Time `json:"last_taken"       dynamodbav:"last_taken,omitempty"`
	ImageURL        string     `json:"image_url,omitempty" dynamodbav:"image_url,omitempty"`
}

// MedicationInput is the create / full-edit payload. Schedule entries are
// validated here, the evaluator assumes they are well formed.
type MedicationInput struct {
	Name            string   `json:"name"             validate:"required,max=200"`
	Dosage          string   `json:"dosage"           validate:"max=200"`
	Schedule        []string `json:"schedule"         validate:"required,min=1,dive,hhmm"`
	Stock           int      `json:"stock"            validate:"gte=0"`
	RefillThreshold int      `json:"refill_threshold" validate:"gte=0"`
	ExpiresOn       string   `json:"expires_on"       validate:"required,datetime=2006-01-02"`
	ImageURL        string   `json:"image_url"        validate:"omitempty,url"`
}

// MedicationPatch is a partial update; nil fields are left untouched.
type MedicationPatch struct {
	Name            *string    `json:"name,omitempty"`
	Dosage          *string    `json:"dosage,omitempty"`
	Schedule        []string   `json:"schedule,omitempty"`
	Stock           *int       `json:"stock,omitempty"`
	RefillThreshold *int       `json:"refill_threshold,omitempty"`
	ExpiresOn       *time.Time `json:"expires_on,omitempty"`
	LastTaken       *time.Time `json:"last_taken,omitempty"`
	ImageURL        *string    `json:"image_url,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MedicationPatch) IsEmpty() bool {
	return p.Name == nil && p.Dosage == nil && p.Schedule == nil && p.Stock == nil &&
		p.RefillThreshold == nil && p.ExpiresOn == nil && p.LastTaken == nil && p.ImageURL == nil
}

// Apply returns a copy of m with the patch fields applied.
func (p MedicationPatch) Apply(m Medication) Medication {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Schedule != nil {
		m.Schedule = append([]string(nil), p.Schedule...)
	}
	if p.Stock != nil {
		m.Stock = *p.Stock
	}
	if p.RefillThreshold != nil {
		m.RefillThreshold = *p.RefillThreshold
	}
	if p.ExpiresOn != nil {
		m.ExpiresOn = *p.ExpiresOn
	}
	if p.LastTaken != nil {
		t := *p.LastTaken
		m.LastTaken = &t
	}
	if p.ImageURL != nil {
		m.ImageURL = *p.ImageURL
	}
	return m
}

// ReminderState partitions the collection for banners and notifications.
type ReminderState struct {
	DueNow             []Medication `json:"due_now"`
	MissedNow          []Medication `json:"missed_now"`
	LowOrExpiring      []Medication `json:"low_or_expiring"`
	LowOrExpiringCount int          `json:"low_or_expiring_count"`
}

// NextDose pairs a medication with its computed next dose time.
type NextDose struct {
	Medication Medication `json:"medication"`
	At         time.Time  `json:"at"`
}

// Dashboard holds the summary cards.
type Dashboard struct {
	Next          *NextDose `json:"next,omitempty"` // nil -> no doses
	PendingCount  int       `json:"pending_count"`
	LowCount      int       `json:"low_count"`
	ExpiringCount int       `json:"expiring_count"`
}

// MedicationView is a medication with its derived status, as served to UIs.
type MedicationView struct {
	Medication
	Status   DoseStatus `json:"status"`
	NextDose *time.Time `json:"next_dose,omitempty"`
}
