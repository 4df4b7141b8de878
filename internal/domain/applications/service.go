package applications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/threads"
	"pet-adoption-marketplace/internal/domain/users"
	"pet-adoption-marketplace/internal/live"
	"pet-adoption-marketplace/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")
)

// hydrateConcurrency acota las lecturas paralelas de pets/usuarios del tablero.
const hydrateConcurrency = 8

type PetDirectory interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	SetStatus(ctx context.Context, actor users.User, id string, status pets.Status) (pets.Pet, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, uid string) (users.User, error)
}

type Service struct {
	repo     Repository
	pets     PetDirectory
	users    UserDirectory
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, petDir PetDirectory, userDir UserDirectory, notifier Notifier, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		pets:     petDir,
		users:    userDir,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Submit crea la solicitud del adoptante. Una por (mascota, adoptante) y solo
// sobre listados activos. También asegura el thread con el refugio.
func (s *Service) Submit(ctx context.Context, actor users.User, petID, message string) (Application, error) {
	if actor.Role != users.RoleAdopter {
		return Application{}, ErrForbidden
	}
	petID = strings.TrimSpace(petID)
	if petID == "" || strings.TrimSpace(actor.UID) == "" {
		return Application{}, ErrInvalidInput
	}

	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return Application{}, ErrNotFound
	}
	if !pet.IsActive() {
		return Application{}, ErrBadState
	}

	shelterName := "Shelter"
	if u, err := s.users.GetByID(ctx, pet.ShelterID); err == nil {
		shelterName = u.ShelterLabel()
	}

	now := s.now()
	a := Application{
		ID:             uuid.NewString(),
		PetID:          pet.ID,
		PetName:        pet.Name,
		ShelterID:      pet.ShelterID,
		ShelterName:    shelterName,
		ApplicantID:    actor.UID,
		ApplicantName:  actor.AdopterLabel(),
		ApplicantEmail: actor.Email,
		Message:        strings.TrimSpace(message),
		Status:         StatusSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Application{}, err
	}

	p := s.patchFor(a)
	p.Opening = openingText
	p.OpenedBy = actor.UID
	s.notify(Notification{Patch: p})

	return a, nil
}

// Approve: submitted -> approved y la mascota pasa a adopted.
func (s *Service) Approve(ctx context.Context, actor users.User, id string) (Application, error) {
	return s.transition(ctx, actor, id, StatusApproved, pets.StatusAdopted, func(a Application) Notification {
		p := s.patchFor(a)
		p.AdoptionClosed = boolPtr(true)
		return Notification{Patch: p, Text: approvedText(a)}
	})
}

func (s *Service) Reject(ctx context.Context, actor users.User, id string) (Application, error) {
	return s.transition(ctx, actor, id, StatusRejected, "", func(a Application) Notification {
		return Notification{Patch: s.patchFor(a), Text: rejectedText(a)}
	})
}

// Revoke: approved -> submitted y la mascota vuelve a active.
func (s *Service) Revoke(ctx context.Context, actor users.User, id string) (Application, error) {
	cur, err := s.load(ctx, actor, id)
	if err != nil {
		return Application{}, err
	}
	if cur.Status.Normalize() != StatusApproved {
		return Application{}, Transition(cur.Status, StatusSubmitted)
	}
	return s.transition(ctx, actor, id, StatusSubmitted, pets.StatusActive, func(a Application) Notification {
		p := s.patchFor(a)
		p.AdoptionClosed = boolPtr(false)
		return Notification{Patch: p, Text: revokedText(a)}
	})
}

// Reopen: rejected -> submitted.
func (s *Service) Reopen(ctx context.Context, actor users.User, id string) (Application, error) {
	cur, err := s.load(ctx, actor, id)
	if err != nil {
		return Application{}, err
	}
	if cur.Status.Normalize() != StatusRejected {
		return Application{}, Transition(cur.Status, StatusSubmitted)
	}
	return s.transition(ctx, actor, id, StatusSubmitted, "", func(a Application) Notification {
		return Notification{Patch: s.patchFor(a), Text: reopenedText(a)}
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (Application, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Application{}, ErrNotFound
	}
	return a, nil
}

// ListMine: solicitudes del adoptante, createdAt desc.
func (s *Service) ListMine(ctx context.Context, viewer users.User) ([]Application, error) {
	uid := strings.TrimSpace(viewer.UID)
	if uid == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByApplicant(ctx, uid)
}

type AdopterStats struct {
	Submitted int `json:"submitted"`
	Approved  int `json:"approved"`
	Closed    int `json:"closed"`
}

// StatsOf cuenta por estado; rejected cuenta como cerrada.
func StatsOf(apps []Application) AdopterStats {
	var st AdopterStats
	for _, a := range apps {
		switch a.Status.Normalize() {
		case StatusSubmitted:
			st.Submitted++
		case StatusApproved:
			st.Approved++
		case StatusRejected:
			st.Closed++
		}
	}
	return st
}

// BoardQuery: admin ve todas, refugio solo las de sus mascotas.
func BoardQuery(viewer users.User) (live.Query, error) {
	base := live.Query{Collection: Collection}

	switch viewer.Role {
	case users.RoleAdmin:
		return base.Ordered(FieldCreatedAt, true), nil
	case users.RoleShelter:
		return base.Where(FieldShelterID, viewer.UID).Ordered(FieldCreatedAt, true), nil
	case users.RoleAdopter:
		return live.Query{}, ErrForbidden
	default:
		return live.Query{}, ErrForbidden
	}
}

// Board arma el tablero del refugio: solicitudes en vivo (con fallback),
// hidratadas con mascota y postulante, agrupadas por mascota.
func (s *Service) Board(ctx context.Context, viewer users.User) (Grouped, error) {
	q, err := BoardQuery(viewer)
	if err != nil {
		return Grouped{}, err
	}

	merger := NewMerger()
	apps, err := live.Collect(ctx, merger, live.Start[Application](s.repo, q, merger, live.Config{Logger: s.log}))
	if err != nil {
		return Grouped{}, err
	}

	petsByID, applicants, err := s.hydrate(ctx, apps)
	if err != nil {
		return Grouped{}, err
	}
	return GroupByPet(apps, petsByID, applicants), nil
}

func NewMerger() *live.Merger[Application] {
	return live.NewMerger(
		func(a Application) string { return a.ID },
		live.ByTimeDesc(func(a Application) time.Time { return a.CreatedAt }),
	)
}

// hydrate trae en paralelo las mascotas y postulantes referenciados.
// Los que no se encuentran quedan fuera de los mapas (el agrupador tolera eso).
func (s *Service) hydrate(ctx context.Context, apps []Application) (map[string]pets.Pet, map[string]users.User, error) {
	var (
		mu         sync.Mutex
		petsByID   = make(map[string]pets.Pet)
		applicants = make(map[string]users.User)
	)

	petIDs := uniq(apps, func(a Application) string { return a.PetID })
	userIDs := uniq(apps, func(a Application) string { return a.ApplicantID })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)

	for _, id := range petIDs {
		g.Go(func() error {
			p, err := s.pets.GetByID(gctx, id)
			if err != nil {
				s.log.Debug("pet not found for application", map[string]any{"pet_id": id})
				return nil
			}
			mu.Lock()
			petsByID[id] = p
			mu.Unlock()
			return nil
		})
	}
	for _, id := range userIDs {
		g.Go(func() error {
			u, err := s.users.GetByID(gctx, id)
			if err != nil {
				return nil
			}
			mu.Lock()
			applicants[id] = u
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return petsByID, applicants, nil
}

func (s *Service) load(ctx context.Context, actor users.User, id string) (Application, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !canManage(actor, a) {
		return Application{}, ErrForbidden
	}
	return a, nil
}

// transition valida la máquina de estados, cambia la mascota si corresponde
// (petStatus vacío = no tocar) y persiste. El aviso sale después y no afecta
// el resultado.
func (s *Service) transition(ctx context.Context, actor users.User, id string, to Status, petStatus pets.Status, note func(Application) Notification) (Application, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return Application{}, err
	}
	if err := Transition(a.Status, to); err != nil {
		return Application{}, err
	}

	var prevPet pets.Status
	if petStatus != "" {
		p, err := s.pets.GetByID(ctx, a.PetID)
		if err != nil {
			return Application{}, ErrNotFound
		}
		prevPet = p.Status.Normalize()
		if _, err := s.pets.SetStatus(ctx, actor, a.PetID, petStatus); err != nil {
			return Application{}, err
		}
	}

	from := a.Status.Normalize()
	a.Status = to
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a, from); err != nil {
		if petStatus != "" && prevPet != petStatus {
			if _, rerr := s.pets.SetStatus(ctx, actor, a.PetID, prevPet); rerr != nil {
				s.log.Error("pet status rollback failed", map[string]any{"pet_id": a.PetID, "err": rerr})
			}
		}
		return Application{}, err
	}

	s.log.Info("application status changed", map[string]any{
		"application_id": a.ID,
		"from":           string(from),
		"to":             string(to),
		"actor":          actor.UID,
	})
	s.notify(note(a))
	return a, nil
}

func (s *Service) notify(n Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(n)
}

func (s *Service) patchFor(a Application) threads.Patch {
	adopterName := strings.TrimSpace(a.ApplicantName)
	if adopterName == "" {
		adopterName = strings.TrimSpace(a.ApplicantEmail)
	}
	if adopterName == "" {
		adopterName = "Adopter"
	}
	return threads.Patch{
		Key:         threads.Key{PetID: a.PetID, AdopterID: a.ApplicantID, ShelterID: a.ShelterID},
		PetName:     a.PetName,
		AdopterName: adopterName,
		ShelterName: a.ShelterName,
	}
}

func canManage(u users.User, a Application) bool {
	switch u.Role {
	case users.RoleAdmin:
		return true
	case users.RoleShelter:
		return strings.TrimSpace(u.UID) != "" && u.UID == a.ShelterID
	case users.RoleAdopter:
		return false
	default:
		return false
	}
}

func uniq(apps []Application, key func(Application) string) []string {
	seen := make(map[string]struct{}, len(apps))
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		k := strings.TrimSpace(key(a))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
