package threads

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

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Open crea o mezcla el thread del triple (pet, adopter, shelter).
// Solo un participante (o admin) puede abrirlo.
func (s *Service) Open(ctx context.Context, actor users.User, p Patch) (Thread, error) {
	if err := p.Key.Validate(); err != nil {
		return Thread{}, err
	}
	if !canAccess(actor, p.Key) {
		return Thread{}, ErrForbidden
	}

	p.OpenedBy = actor.UID
	return s.repo.Merge(ctx, p)
}

// Ensure es el merge-write de sistema (sin chequeo de actor): lo usan las
// notificaciones de solicitudes.
func (s *Service) Ensure(ctx context.Context, p Patch) (Thread, error) {
	if err := p.Key.Validate(); err != nil {
		return Thread{}, err
	}
	if strings.TrimSpace(p.OpenedBy) == "" {
		p.OpenedBy = SystemSenderID
	}
	return s.repo.Merge(ctx, p)
}

// Get devuelve el thread si el viewer participa (o es admin).
func (s *Service) Get(ctx context.Context, viewer users.User, id string) (Thread, error) {
	t, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Thread{}, ErrNotFound
	}
	if !canAccess(viewer, t.Key()) {
		return Thread{}, ErrForbidden
	}
	return t, nil
}

// PostMessage agrega un mensaje. Si el thread todavía no existe pero el id
// es válido y el actor participa, lo abre primero (deep-link a un chat nuevo).
func (s *Service) PostMessage(ctx context.Context, actor users.User, threadID, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrInvalidInput
	}
	threadID = strings.TrimSpace(threadID)

	t, err := s.repo.GetByID(ctx, threadID)
	if err != nil {
		key, perr := ParseID(threadID)
		if perr != nil {
			return Message{}, ErrNotFound
		}
		if t, err = s.Open(ctx, actor, Patch{Key: key, Opening: text}); err != nil {
			return Message{}, err
		}
	}
	if !canAccess(actor, t.Key()) {
		return Message{}, ErrForbidden
	}

	return s.append(ctx, t.ID, actor.UID, text)
}

// PostSystemMessage asegura el thread (merge) y agrega un mensaje de sistema.
// Lo usan las transiciones de solicitudes; quien llama lo trata como best-effort.
func (s *Service) PostSystemMessage(ctx context.Context, p Patch, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrInvalidInput
	}
	if err := p.Key.Validate(); err != nil {
		return Message{}, err
	}

	p.OpenedBy = SystemSenderID
	p.Opening = text
	t, err := s.repo.Merge(ctx, p)
	if err != nil {
		return Message{}, err
	}
	return s.append(ctx, t.ID, SystemSenderID, text)
}

// ListMessages en orden cronológico ascendente.
func (s *Service) ListMessages(ctx context.Context, viewer users.User, threadID string) ([]Message, error) {
	if _, err := s.Get(ctx, viewer, threadID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, strings.TrimSpace(threadID))
}

// InboxQueries: el inbox de un usuario es la unión de los threads donde es
// adoptante y donde es refugio (un usuario puede ser ambos). Admin ve todos.
func InboxQueries(viewer users.User) []live.Query {
	base := live.Query{Collection: Collection}

	switch viewer.Role {
	case users.RoleAdmin:
		return []live.Query{base.Ordered(FieldLastMessageAt, true)}
	case users.RoleAdopter, users.RoleShelter:
		return []live.Query{
			base.Where(FieldAdopterID, viewer.UID).Ordered(FieldLastMessageAt, true),
			base.Where(FieldShelterID, viewer.UID).Ordered(FieldLastMessageAt, true),
		}
	default:
		return nil
	}
}

// Inbox devuelve una lectura consistente del inbox (lastMessageAt desc).
func (s *Service) Inbox(ctx context.Context, viewer users.User) ([]Thread, error) {
	if strings.TrimSpace(viewer.UID) == "" {
		return nil, ErrInvalidInput
	}

	merger := NewMerger()
	qs := InboxQueries(viewer)
	feeds := make([]*live.Feed[Thread], 0, len(qs))
	for _, q := range qs {
		feeds = append(feeds, live.Start[Thread](s.repo, q, merger, live.Config{
			Name:   feedName(q),
			Logger: s.log,
		}))
	}
	return live.Collect(ctx, merger, feeds...)
}

// WatchInbox mantiene abiertas las suscripciones del inbox. onChange avisa
// que cambió la vista (o que una feed falló); view lee la vista combinada.
func (s *Service) WatchInbox(viewer users.User, onChange func(live.Status)) (view func() []Thread, stop func()) {
	merger := NewMerger()
	qs := InboxQueries(viewer)
	feeds := make([]*live.Feed[Thread], 0, len(qs))
	for _, q := range qs {
		feeds = append(feeds, live.Start[Thread](s.repo, q, merger, live.Config{
			Name:     feedName(q),
			Logger:   s.log,
			OnChange: onChange,
		}))
	}
	return merger.View, func() {
		for _, f := range feeds {
			f.Close()
		}
	}
}

func NewMerger() *live.Merger[Thread] {
	return live.NewMerger(
		func(t Thread) string { return t.ID },
		live.ByTimeDesc(func(t Thread) time.Time { return t.LastMessageAt }),
	)
}

func (s *Service) append(ctx context.Context, threadID, senderID, text string) (Message, error) {
	m := Message{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if _, err := s.repo.AppendMessage(ctx, m); err != nil {
		return Message{}, err
	}
	return m, nil
}

func canAccess(u users.User, k Key) bool {
	switch u.Role {
	case users.RoleAdmin:
		return true
	case users.RoleAdopter, users.RoleShelter:
		uid := strings.TrimSpace(u.UID)
		return uid != "" && (uid == strings.TrimSpace(k.AdopterID) || uid == strings.TrimSpace(k.ShelterID))
	default:
		return false
	}
}

// feedName etiqueta métricas por lado del inbox, nunca por usuario.
func feedName(q live.Query) string {
	if len(q.Filters) == 0 {
		return Collection
	}
	return Collection + ":" + q.Filters[0].Field
}
