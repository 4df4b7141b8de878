package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/domain/match"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
	"pet-adoption-marketplace/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

var ErrNotFound = errors.New("not found")

type PetSource interface {
	Catalog(ctx context.Context) ([]pets.Pet, error)
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type ApplicationSource interface {
	ListMine(ctx context.Context, viewer users.User) ([]applications.Application, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, uid string) (users.User, error)
}

type Service struct {
	pets  PetSource
	apps  ApplicationSource
	users UserDirectory
	log   logger.Logger

	limit int
}

func NewService(petSrc PetSource, appSrc ApplicationSource, userDir UserDirectory, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		pets:  petSrc,
		apps:  appSrc,
		users: userDir,
		log:   log,
		limit: DefaultLimit,
	}
}

// WithLimit cambia cuántas recomendaciones se devuelven (<= 0 deja el default).
func (s *Service) WithLimit(n int) *Service {
	if n > 0 {
		s.limit = n
	}
	return s
}

// ForViewer son las recomendaciones del dashboard. Solo adoptantes; se
// excluyen las mascotas a las que ya aplicó.
func (s *Service) ForViewer(ctx context.Context, viewer users.User) ([]Annotated, error) {
	switch viewer.Role {
	case users.RoleAdopter:
	case users.RoleShelter, users.RoleAdmin:
		return []Annotated{}, nil
	default:
		return []Annotated{}, nil
	}

	all, err := s.pets.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	mine, err := s.apps.ListMine(ctx, viewer)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]struct{}, len(mine))
	for _, a := range mine {
		excluded[strings.TrimSpace(a.PetID)] = struct{}{}
	}

	return Recommend(all, viewer.Preferences, excluded, s.limit), nil
}

// Listing es una entrada del catálogo con el nombre del refugio resuelto.
type Listing struct {
	Annotated
	ShelterName string
}

// Browse es el catálogo público filtrado. viewer puede ser el zero value
// (anónimo): sin preferencias no hay puntaje.
func (s *Service) Browse(ctx context.Context, viewer users.User, f Filter) ([]Listing, error) {
	all, err := s.pets.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	items := Browse(all, viewer, f)
	names, err := s.shelterNames(ctx, items)
	if err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(items))
	for _, a := range items {
		out = append(out, Listing{Annotated: a, ShelterName: names[strings.TrimSpace(a.Pet.ShelterID)]})
	}
	return out, nil
}

// Explanation es el detalle del match de un listado para el viewer.
type Explanation struct {
	Pet    *pets.Pet
	Result match.Result
	Text   string
}

// Describe explica el puntaje; si el listado no existe devuelve el texto de
// "no disponible" junto con ErrNotFound.
func (s *Service) Describe(ctx context.Context, viewer users.User, petID string) (Explanation, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return Explanation{Text: match.Describe(nil, viewer.Preferences)}, ErrNotFound
	}
	return Explanation{
		Pet:    &p,
		Result: match.Evaluate(p, viewer.Preferences),
		Text:   match.Describe(&p, viewer.Preferences),
	}, nil
}

// shelterNames resuelve en paralelo el nombre de cada refugio referenciado.
// Un refugio sin perfil queda con la etiqueta genérica.
func (s *Service) shelterNames(ctx context.Context, items []Annotated) (map[string]string, error) {
	var mu sync.Mutex
	names := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	seen := make(map[string]struct{})
	for _, a := range items {
		id := strings.TrimSpace(a.Pet.ShelterID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			label := users.RoleShelter.Label()
			if u, err := s.users.GetByID(gctx, id); err == nil {
				label = u.ShelterLabel()
			}
			mu.Lock()
			names[id] = label
			mu.Unlock()
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}
