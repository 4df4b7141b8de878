package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/domain/threads"
	"pet-adoption-marketplace/internal/live"
)

// ThreadIndexes: un índice por lado del inbox.
var ThreadIndexes = []string{
	live.Query{Collection: threads.Collection}.Where(threads.FieldAdopterID, "").Ordered(threads.FieldLastMessageAt, true).IndexKey(),
	live.Query{Collection: threads.Collection}.Where(threads.FieldShelterID, "").Ordered(threads.FieldLastMessageAt, true).IndexKey(),
}

type ThreadRepo struct {
	*Collection[threads.Thread]

	now func() time.Time

	msgMu    sync.RWMutex
	messages map[string][]threads.Message
}

func NewThreadRepo(indexes ...string) *ThreadRepo {
	return &ThreadRepo{
		Collection: NewCollection(threads.Collection, Schema[threads.Thread]{
			Key: func(t threads.Thread) string { return t.ID },
			Fields: map[string]func(threads.Thread) string{
				threads.FieldAdopterID: func(t threads.Thread) string { return t.AdopterID },
				threads.FieldShelterID: func(t threads.Thread) string { return t.ShelterID },
			},
			Times: map[string]func(threads.Thread) time.Time{
				threads.FieldLastMessageAt: func(t threads.Thread) time.Time { return t.LastMessageAt },
			},
		}, indexes...),
		now:      time.Now,
		messages: make(map[string][]threads.Message),
	}
}

func (r *ThreadRepo) Merge(ctx context.Context, p threads.Patch) (threads.Thread, error) {
	id := threads.IDFor(p.Key)
	return r.Update(id, func(cur threads.Thread, exists bool) (threads.Thread, error) {
		return threads.Apply(cur, exists, p, r.now()), nil
	})
}

func (r *ThreadRepo) GetByID(ctx context.Context, id string) (threads.Thread, error) {
	t, ok := r.Get(strings.TrimSpace(id))
	if !ok {
		return threads.Thread{}, ErrNotFound
	}
	return t, nil
}

func (r *ThreadRepo) AppendMessage(ctx context.Context, m threads.Message) (threads.Thread, error) {
	t, err := r.Update(m.ThreadID, func(cur threads.Thread, exists bool) (threads.Thread, error) {
		if !exists {
			return threads.Thread{}, ErrNotFound
		}
		return threads.WithMessage(cur, m), nil
	})
	if err != nil {
		return threads.Thread{}, err
	}

	r.msgMu.Lock()
	r.messages[m.ThreadID] = append(r.messages[m.ThreadID], m)
	r.msgMu.Unlock()

	return t, nil
}

func (r *ThreadRepo) ListMessages(ctx context.Context, threadID string) ([]threads.Message, error) {
	r.msgMu.RLock()
	out := append([]threads.Message(nil), r.messages[threadID]...)
	r.msgMu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
