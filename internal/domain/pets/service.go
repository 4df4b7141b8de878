package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/users"
	"pet-adoption-marketplace/internal/live"
	"pet-adoption-marketplace/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

const (
	DefaultAdopterFeedLimit = 50
	DefaultStaffFeedLimit   = 25
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time

	adopterLimit int
	staffLimit   int
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:         repo,
		log:          log,
		now:          time.Now,
		adopterLimit: DefaultAdopterFeedLimit,
		staffLimit:   DefaultStaffFeedLimit,
	}
}

// WithFeedLimits ajusta los límites del feed de dashboard (<= 0 deja el default).
func (s *Service) WithFeedLimits(adopter, staff int) *Service {
	if adopter > 0 {
		s.adopterLimit = adopter
	}
	if staff > 0 {
		s.staffLimit = staff
	}
	return s
}

type Input struct {
	ShelterID   string // solo admin puede publicar a nombre de otro refugio
	Name        string
	AnimalType  string
	Breed       string
	Size        string
	Temperament string
	AgeRange    string
	Gender      string
	Color       string
	Description string
	Photos      []string
	Status      Status
}

func (s *Service) Create(ctx context.Context, actor users.User, in Input) (Pet, error) {
	if !actor.Role.CanManageListings() {
		return Pet{}, ErrForbidden
	}

	shelterID := actor.UID
	if actor.Role == users.RoleAdmin && strings.TrimSpace(in.ShelterID) != "" {
		shelterID = strings.TrimSpace(in.ShelterID)
	}
	if strings.TrimSpace(shelterID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.AnimalType) == "" {
		return Pet{}, ErrInvalidInput
	}

	status := in.Status.Normalize()
	if !status.Valid() {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		ShelterID:   shelterID,
		Name:        strings.TrimSpace(in.Name),
		AnimalType:  strings.TrimSpace(in.AnimalType),
		Breed:       strings.TrimSpace(in.Breed),
		Size:        strings.TrimSpace(in.Size),
		Temperament: strings.TrimSpace(in.Temperament),
		AgeRange:    strings.TrimSpace(in.AgeRange),
		Gender:      strings.TrimSpace(in.Gender),
		Color:       strings.TrimSpace(in.Color),
		Description: strings.TrimSpace(in.Description),
		Photos:      cleanPhotos(in.Photos),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Name        *string
	AnimalType  *string
	Breed       *string
	Size        *string
	Temperament *string
	AgeRange    *string
	Gender      *string
	Color       *string
	Description *string
	Photos      []string
}

func (s *Service) Update(ctx context.Context, actor users.User, id string, in UpdateInput) (Pet, error) {
	p, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = v
	}
	if in.AnimalType != nil {
		v := strings.TrimSpace(*in.AnimalType)
		if v == "" {
			return Pet{}, ErrInvalidInput
		}
		p.AnimalType = v
	}
	setTrimmed(&p.Breed, in.Breed)
	setTrimmed(&p.Size, in.Size)
	setTrimmed(&p.Temperament, in.Temperament)
	setTrimmed(&p.AgeRange, in.AgeRange)
	setTrimmed(&p.Gender, in.Gender)
	setTrimmed(&p.Color, in.Color)
	setTrimmed(&p.Description, in.Description)
	if in.Photos != nil {
		p.Photos = cleanPhotos(in.Photos)
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// SetStatus cambia active/inactive/adopted. Idempotente: mismo status no reescribe.
func (s *Service) SetStatus(ctx context.Context, actor users.User, id string, status Status) (Pet, error) {
	status = status.Normalize()
	if !status.Valid() {
		return Pet{}, ErrInvalidInput
	}

	p, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return Pet{}, err
	}
	if p.Status.Normalize() == status {
		return p, nil
	}

	p.Status = status
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}

	s.log.Info("pet status changed", map[string]any{"pet_id": p.ID, "status": string(status), "actor": actor.UID})
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByShelter(ctx context.Context, shelterID string) ([]Pet, error) {
	return s.repo.ListByShelter(ctx, shelterID)
}

// FeedQuery arma la query del feed de dashboard según rol:
// shelter ve sus listados, admin y adopter ven el catálogo global.
func (s *Service) FeedQuery(viewer users.User) live.Query {
	q := live.Query{Collection: Collection}

	switch viewer.Role {
	case users.RoleShelter:
		q = q.Where(FieldShelterID, viewer.UID)
		q.Limit = s.staffLimit
	case users.RoleAdmin:
		q.Limit = s.staffLimit
	case users.RoleAdopter:
		q.Limit = s.adopterLimit
	default:
		q.Limit = s.adopterLimit
	}

	return q.Ordered(FieldCreatedAt, true)
}

// Feed devuelve una lectura consistente del feed de dashboard (createdAt desc,
// con fallback sin orden si el store no puede ordenar).
func (s *Service) Feed(ctx context.Context, viewer users.User) ([]Pet, error) {
	merger := NewMerger()
	f := live.Start[Pet](s.repo, s.FeedQuery(viewer), merger, live.Config{Logger: s.log})
	return live.Collect(ctx, merger, f)
}

// Catalog es el listado público (browse): los más nuevos primero, sin
// importar el rol. Los no activos se filtran más arriba.
func (s *Service) Catalog(ctx context.Context) ([]Pet, error) {
	q := live.Query{Collection: Collection, Limit: s.adopterLimit}.Ordered(FieldCreatedAt, true)

	merger := NewMerger()
	f := live.Start[Pet](s.repo, q, merger, live.Config{Name: Collection + ":catalog", Logger: s.log})
	return live.Collect(ctx, merger, f)
}

// NewMerger: vista de pets por id, createdAt desc.
func NewMerger() *live.Merger[Pet] {
	return live.NewMerger(
		func(p Pet) string { return p.ID },
		live.ByTimeDesc(func(p Pet) time.Time { return p.CreatedAt }),
	)
}

func (s *Service) loadManaged(ctx context.Context, actor users.User, id string) (Pet, error) {
	if !actor.Role.CanManageListings() {
		return Pet{}, ErrForbidden
	}
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}
	if actor.Role != users.RoleAdmin && p.ShelterID != actor.UID {
		return Pet{}, ErrForbidden
	}
	return p, nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func cleanPhotos(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
