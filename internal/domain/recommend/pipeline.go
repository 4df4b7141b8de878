// Package recommend arma las recomendaciones del adoptante y el catálogo
// público con su puntaje de match.
package recommend

import (
	"sort"
	"strings"

	"pet-adoption-marketplace/internal/domain/match"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
)

const (
	DefaultLimit = 8
	// MinPercent es el piso de calidad: por debajo no se recomienda.
	MinPercent = 25
)

// Annotated es un pet con su match. Scored=false cuando no hubo preferencias
// (Percent queda en 0 y no debe mostrarse).
type Annotated struct {
	Pet     pets.Pet
	Raw     float64
	Percent int
	Scored  bool
}

// Recommend filtra activos no excluidos y, si hay preferencias, puntúa,
// descarta los de menos de MinPercent y ordena por porcentaje desc (empates
// en el orden de entrada). Sin preferencias devuelve los primeros limit tal
// cual. limit <= 0 usa DefaultLimit. No muta all.
func Recommend(all []pets.Pet, prefs *users.Preferences, excluded map[string]struct{}, limit int) []Annotated {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := make([]pets.Pet, 0, len(all))
	for _, p := range all {
		if !p.IsActive() {
			continue
		}
		if _, skip := excluded[strings.TrimSpace(p.ID)]; skip {
			continue
		}
		candidates = append(candidates, p)
	}

	if prefs.IsEmpty() {
		n := min(limit, len(candidates))
		out := make([]Annotated, 0, n)
		for _, p := range candidates[:n] {
			out = append(out, Annotated{Pet: p})
		}
		return out
	}

	scored := make([]Annotated, 0, len(candidates))
	for _, p := range candidates {
		raw := match.Score(p, prefs)
		pct := match.ToPercent(raw)
		if pct < MinPercent {
			continue
		}
		scored = append(scored, Annotated{Pet: p, Raw: raw, Percent: pct, Scored: true})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Percent > scored[j].Percent })

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
