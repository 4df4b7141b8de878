package pets

import (
	"strings"
	"time"
)

// Status del listado.
// @Enum active, inactive, adopted
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusAdopted  Status = "adopted"
)

// Normalize: un status vacío (documentos viejos) cuenta como active.
func (s Status) Normalize() Status {
	switch Status(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StatusInactive:
		return StatusInactive
	case StatusAdopted:
		return StatusAdopted
	case StatusActive, "":
		return StatusActive
	default:
		return s
	}
}

func (s Status) Valid() bool {
	switch s.Normalize() {
	case StatusActive, StatusInactive, StatusAdopted:
		return true
	default:
		return false
	}
}

// Pet es un listado publicado por un refugio.
// Los atributos usan el mismo vocabulario que users.Preferences.
type Pet struct {
	ID        string
	ShelterID string

	Name        string
	AnimalType  string
	Species     string // alias legacy de AnimalType
	Breed       string
	Size        string
	Temperament string
	AgeRange    string
	Age         string // alias legacy de AgeRange
	Gender      string
	Color       string

	Description string
	Photos      []string

	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Type resuelve animalType con fallback a species.
func (p Pet) Type() string {
	if v := strings.TrimSpace(p.AnimalType); v != "" {
		return v
	}
	return strings.TrimSpace(p.Species)
}

// AgeValue resuelve ageRange con fallback a age.
func (p Pet) AgeValue() string {
	if v := strings.TrimSpace(p.AgeRange); v != "" {
		return v
	}
	return strings.TrimSpace(p.Age)
}

func (p Pet) IsActive() bool {
	return p.Status.Normalize() == StatusActive
}
