package applications

import (
	"sort"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/match"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
)

// Annotated es una solicitud con el match del postulante contra la mascota.
type Annotated struct {
	Application

	DisplayName    string
	MatchPercent   int
	HasPreferences bool
}

// Group reúne las solicitudes de una mascota, ordenadas por match desc.
type Group struct {
	PetID        string
	PetName      string
	Pet          *pets.Pet
	Applications []Annotated
}

type Grouped struct {
	Active   []Group
	Previous []Group
}

const (
	UnknownApplicant = "Unknown"
	UnknownPet       = "Unknown Pet"
)

// nameSources es la cadena de fallback del nombre del postulante, en orden.
var nameSources = []func(u *users.User, a Application) string{
	func(u *users.User, _ Application) string {
		if u == nil || u.AdopterProfile == nil {
			return ""
		}
		return u.AdopterProfile.Name
	},
	func(u *users.User, _ Application) string {
		if u == nil {
			return ""
		}
		return u.DisplayName
	},
	func(u *users.User, _ Application) string {
		if u == nil {
			return ""
		}
		return u.Email
	},
	func(_ *users.User, a Application) string { return a.ApplicantName },
	func(_ *users.User, a Application) string { return a.ApplicantEmail },
}

// ApplicantName resuelve el nombre a mostrar; "Unknown" si nada sirve.
func ApplicantName(u *users.User, a Application) string {
	for _, src := range nameSources {
		if v := strings.TrimSpace(src(u, a)); v != "" {
			return v
		}
	}
	return UnknownApplicant
}

// GroupByPet agrupa solicitudes por mascota y separa activas (submitted) de
// históricas. Un grupo aparece en Active si tiene al menos una submitted y en
// Previous si tiene al menos una que no lo es (puede estar en ambos).
// Active: más solicitudes activas primero. Previous: actividad más reciente
// primero (max de createdAt de sus solicitudes y updatedAt de la mascota).
// Puro: no muta las entradas.
func GroupByPet(apps []Application, petsByID map[string]pets.Pet, applicants map[string]users.User) Grouped {
	order := make([]string, 0)
	byPet := make(map[string][]Annotated)

	for _, a := range apps {
		if _, seen := byPet[a.PetID]; !seen {
			order = append(order, a.PetID)
		}
		byPet[a.PetID] = append(byPet[a.PetID], annotate(a, petsByID, applicants))
	}

	out := Grouped{Active: make([]Group, 0), Previous: make([]Group, 0)}
	for _, petID := range order {
		items := byPet[petID]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].MatchPercent > items[j].MatchPercent
		})

		var pet *pets.Pet
		name := ""
		if p, ok := petsByID[petID]; ok {
			pet = &p
			name = p.Name
		}
		if strings.TrimSpace(name) == "" {
			name = items[0].PetName
		}
		if strings.TrimSpace(name) == "" {
			name = UnknownPet
		}

		var active, previous []Annotated
		for _, it := range items {
			if it.Status.IsActive() {
				active = append(active, it)
			} else {
				previous = append(previous, it)
			}
		}

		if len(active) > 0 {
			out.Active = append(out.Active, Group{PetID: petID, PetName: name, Pet: pet, Applications: active})
		}
		if len(previous) > 0 {
			out.Previous = append(out.Previous, Group{PetID: petID, PetName: name, Pet: pet, Applications: previous})
		}
	}

	sort.SliceStable(out.Active, func(i, j int) bool {
		return len(out.Active[i].Applications) > len(out.Active[j].Applications)
	})
	sort.SliceStable(out.Previous, func(i, j int) bool {
		return lastTouched(out.Previous[i]).After(lastTouched(out.Previous[j]))
	})

	return out
}

func annotate(a Application, petsByID map[string]pets.Pet, applicants map[string]users.User) Annotated {
	var u *users.User
	if v, ok := applicants[a.ApplicantID]; ok {
		u = &v
	}

	out := Annotated{
		Application: a,
		DisplayName: ApplicantName(u, a),
	}
	if u == nil || u.Preferences == nil {
		return out
	}

	out.HasPreferences = true
	if p, ok := petsByID[a.PetID]; ok {
		out.MatchPercent = match.ToPercent(match.Score(p, u.Preferences))
	}
	return out
}

func lastTouched(g Group) time.Time {
	var latest time.Time
	for _, a := range g.Applications {
		if a.CreatedAt.After(latest) {
			latest = a.CreatedAt
		}
	}
	if g.Pet != nil && g.Pet.UpdatedAt.After(latest) {
		latest = g.Pet.UpdatedAt
	}
	return latest
}
