// Package match calcula la compatibilidad entre las preferencias de un
// adoptante y un listado de mascota.
//
// Score, ToPercent y Describe comparten la misma evaluación por campo
// (Evaluate), así el texto explicativo nunca se desincroniza del puntaje.
package match

import (
	"math"
	"strings"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
)

const (
	WeightType        = 50.0
	WeightSize        = 25.0
	WeightTemperament = 25.0
	WeightAge         = 25.0
	WeightBreed       = 10.0
	WeightGender      = 5.0
	WeightColor       = 5.0

	// MaxScore = suma de los pesos.
	MaxScore = WeightType + WeightSize + WeightTemperament + WeightAge + WeightBreed + WeightGender + WeightColor
)

var (
	SizeOrder = []string{"small", "medium", "large", "extra large"}
	AgeOrder  = []string{"baby", "young", "adult", "senior"}
)

// Outcome clasifica cómo se otorgó el puntaje de un campo.
type Outcome string

const (
	OutcomeNoPreference Outcome = "no_preference"
	OutcomeMissing      Outcome = "missing"
	OutcomeExact        Outcome = "exact"
	OutcomeClose        Outcome = "close"
	OutcomeMismatch     Outcome = "mismatch"
)

type FieldScore struct {
	Label   string  `json:"label"`
	Weight  float64 `json:"weight"`
	Points  float64 `json:"points"`
	Outcome Outcome `json:"outcome"`
	Pref    string  `json:"pref,omitempty"`
	PetVal  string  `json:"petValue,omitempty"`
}

// Result es derivado y efímero; nunca se persiste.
type Result struct {
	Raw       float64      `json:"rawScore"`
	Percent   int          `json:"percent"`
	Breakdown []FieldScore `json:"breakdown"`
}

type field struct {
	label   string
	weight  float64
	pref    func(*users.Preferences) string
	petVal  func(pets.Pet) string
	ordered []string
}

// fields en el orden fijo de evaluación (y de la explicación).
var fields = []field{
	{label: "Type", weight: WeightType, pref: func(p *users.Preferences) string { return str(p.AnimalType) }, petVal: pets.Pet.Type},
	{label: "Size", weight: WeightSize, pref: func(p *users.Preferences) string { return str(p.Size) }, petVal: func(p pets.Pet) string { return p.Size }, ordered: SizeOrder},
	{label: "Temperament", weight: WeightTemperament, pref: func(p *users.Preferences) string { return str(p.Temperament) }, petVal: func(p pets.Pet) string { return p.Temperament }},
	{label: "Age", weight: WeightAge, pref: (*users.Preferences).AgePreference, petVal: pets.Pet.AgeValue, ordered: AgeOrder},
	{label: "Breed", weight: WeightBreed, pref: func(p *users.Preferences) string { return str(p.Breed) }, petVal: func(p pets.Pet) string { return p.Breed }},
	{label: "Gender", weight: WeightGender, pref: func(p *users.Preferences) string { return str(p.Gender) }, petVal: func(p pets.Pet) string { return p.Gender }},
	{label: "Color", weight: WeightColor, pref: func(p *users.Preferences) string { return str(p.Color) }, petVal: func(p pets.Pet) string { return p.Color }},
}

// Evaluate aplica la política por campo. Con preferencias ausentes o sin
// ninguna clave devuelve Result vacío (Raw 0): "no hizo el quiz" no es
// lo mismo que "todo coincide".
func Evaluate(p pets.Pet, prefs *users.Preferences) Result {
	if prefs.IsEmpty() {
		return Result{}
	}

	out := Result{Breakdown: make([]FieldScore, 0, len(fields))}
	for _, f := range fields {
		fs := scoreField(f.label, f.weight, f.pref(prefs), f.petVal(p), f.ordered)
		out.Raw += fs.Points
		out.Breakdown = append(out.Breakdown, fs)
	}
	out.Percent = ToPercent(out.Raw)
	return out
}

// Score es la suma de los puntos por campo, en [0, MaxScore].
func Score(p pets.Pet, prefs *users.Preferences) float64 {
	return Evaluate(p, prefs).Raw
}

// ToPercent normaliza a [0,100] redondeando; no positivo => 0.
func ToPercent(raw float64) int {
	if raw <= 0 || math.IsNaN(raw) {
		return 0
	}
	pct := int(math.Floor(raw/MaxScore*100 + 0.5))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func scoreField(label string, weight float64, pref, petVal string, ordered []string) FieldScore {
	// solo "" es "sin preferencia"; "  " es un valor que normaliza a "" y
	// no coincide con nada
	fs := FieldScore{Label: label, Weight: weight, Pref: strings.TrimSpace(pref), PetVal: strings.TrimSpace(petVal)}

	if pref == "" {
		fs.Points = weight
		fs.Outcome = OutcomeNoPreference
		return fs
	}
	if fs.PetVal == "" {
		fs.Outcome = OutcomeMissing
		return fs
	}

	prefNorm := normalize(pref)
	petNorm := normalize(petVal)
	if prefNorm == petNorm {
		fs.Points = weight
		fs.Outcome = OutcomeExact
		return fs
	}

	if len(ordered) > 0 {
		pi, qi := indexOf(ordered, prefNorm), indexOf(ordered, petNorm)
		if pi != -1 && qi != -1 && (pi-qi == 1 || qi-pi == 1) {
			fs.Points = weight / 2
			fs.Outcome = OutcomeClose
			return fs
		}
	}

	fs.Outcome = OutcomeMismatch
	return fs
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
