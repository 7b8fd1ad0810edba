package models

type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"
)

type Label string

const (
	LabelOnTrack      Label = "On Track"
	LabelDueNow       Label = "Due Now"
	LabelMissedDose   Label = "Missed Dose"
	LabelLowStock     Label = "Low Stock"
	LabelExpiringSoon Label = "Expiring Soon"
	LabelExpired      Label = "Expired"
)

// DoseStatus is derived on every evaluation and never stored.
type DoseStatus struct {
	Level Level `json:"level"`
	Label Label `json:"label"`
}

var (
	StatusExpired      = DoseStatus{Level: LevelRed, Label: LabelExpired}
	StatusMissedDose   = DoseStatus{Level: LevelRed, Label: LabelMissedDose}
	StatusLowStock     = DoseStatus{Level: LevelRed, Label: LabelLowStock}
	StatusExpiringSoon = DoseStatus{Level: LevelRed, Label: LabelExpiringSoon}
	StatusDueNow       = DoseStatus{Level: LevelYellow, Label: LabelDueNow}
	StatusOnTrack      = DoseStatus{Level: LevelGreen, Label: LabelOnTrack}
)

// Filter selects medications for list views.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPending  Filter = "pending"
	FilterMissed   Filter = "missed"
	FilterLow      Filter = "low"
	FilterExpiring Filter = "expiring"
)

func ParseFilter(s string) (Filter, bool) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, true
	case FilterAll, FilterPending, FilterMissed, FilterLow, FilterExpiring:
		return f, true
	}
	return FilterAll, false
}
