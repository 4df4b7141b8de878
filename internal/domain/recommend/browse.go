package recommend

import (
	"sort"
	"strings"

	"pet-adoption-marketplace/internal/domain/match"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
)

type SortBy string

const (
	SortMatch SortBy = "match"
	SortNew   SortBy = "new"
)

// OnlyMatchesPercent es el umbral del toggle "solo buenos matches".
const OnlyMatchesPercent = 50

func ParseSort(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortNew:
		return SortNew
	default:
		return SortMatch
	}
}

// Filter son los filtros del catálogo. Vacío = sin filtro.
type Filter struct {
	Type   string
	Breed  string
	Color  string
	Gender string
	Size   string
	Search string

	OnlyMatches bool
	Sort        SortBy
}

// Browse anota todos los listados con su match (si hay preferencias), aplica
// los filtros y ordena. No activos nunca aparecen. OnlyMatches solo aplica a
// adoptantes.
func Browse(all []pets.Pet, viewer users.User, f Filter) []Annotated {
	scoring := !viewer.Preferences.IsEmpty()
	onlyMatches := f.OnlyMatches && appliesOnlyMatches(viewer.Role)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Annotated, 0, len(all))
	for _, p := range all {
		if !p.IsActive() {
			continue
		}
		if !equalsFilter(f.Type, p.Type()) || !equalsFilter(f.Breed, p.Breed) ||
			!equalsFilter(f.Color, p.Color) || !equalsFilter(f.Gender, p.Gender) ||
			!equalsFilter(f.Size, p.Size) {
			continue
		}
		if search != "" && !strings.Contains(haystack(p), search) {
			continue
		}

		a := Annotated{Pet: p}
		if scoring {
			a.Raw = match.Score(p, viewer.Preferences)
			a.Percent = match.ToPercent(a.Raw)
			a.Scored = true
		}
		if onlyMatches && a.Percent < OnlyMatchesPercent {
			continue
		}
		out = append(out, a)
	}

	switch f.Sort {
	case SortNew:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Pet.CreatedAt.After(out[j].Pet.CreatedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	}
	return out
}

func appliesOnlyMatches(r users.Role) bool {
	switch r {
	case users.RoleAdopter:
		return true
	case users.RoleShelter, users.RoleAdmin:
		return false
	default:
		return false
	}
}

func equalsFilter(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}

func haystack(p pets.Pet) string {
	return strings.ToLower(strings.Join([]string{p.Name, p.Breed, p.Species, p.AnimalType, p.Color}, " "))
}
