package match

import (
	"fmt"
	"strconv"
	"strings"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
)

const (
	MsgListingUnavailable = "Listing unavailable."
	MsgNoPreferences      = "No preferences set yet. Take the quiz to get personalized matches."
)

// Describe explica el puntaje en texto: una línea de cabecera y una línea por campo.
func Describe(p *pets.Pet, prefs *users.Preferences) string {
	if p == nil {
		return MsgListingUnavailable
	}
	if prefs.IsEmpty() {
		return MsgNoPreferences
	}

	res := Evaluate(*p, prefs)

	lines := make([]string, 0, len(res.Breakdown)+1)
	lines = append(lines, fmt.Sprintf("Match score: %s pts (%d%%) of %s", FormatPoints(res.Raw), res.Percent, FormatPoints(MaxScore)))
	for _, fs := range res.Breakdown {
		lines = append(lines, fs.Detail())
	}
	return strings.Join(lines, "\n")
}

// Detail es la línea explicativa de un campo.
func (fs FieldScore) Detail() string {
	pts := "+" + FormatPoints(fs.Points)
	switch fs.Outcome {
	case OutcomeNoPreference:
		return fmt.Sprintf("%s %s: No preference (counts as match)", pts, fs.Label)
	case OutcomeMissing:
		return fmt.Sprintf("%s %s: Listing missing value", pts, fs.Label)
	case OutcomeExact:
		return fmt.Sprintf("%s %s: Matches (%s)", pts, fs.Label, fs.PetVal)
	case OutcomeClose:
		return fmt.Sprintf("%s %s: Close (%s vs %s)", pts, fs.Label, fs.Pref, fs.PetVal)
	default:
		return fmt.Sprintf("%s %s: Preferred %s, pet is %s", pts, fs.Label, orNA(fs.Pref), orNA(fs.PetVal))
	}
}

// FormatPoints: enteros sin decimales, medios puntos con uno ("12.5").
func FormatPoints(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
