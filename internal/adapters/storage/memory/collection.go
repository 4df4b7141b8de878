package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/live"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Schema describe cómo leer un documento: id, campos filtrables (igualdad) y
// campos de tiempo ordenables.
type Schema[T any] struct {
	Key    func(T) string
	Fields map[string]func(T) string
	Times  map[string]func(T) time.Time
}

// Collection es un document store en memoria con suscripciones en vivo.
// Simula índices compuestos: una query ordenada con filtros necesita su
// índice registrado (ver live.Query.IndexKey); sin índice la suscripción
// recibe live.ErrIndexRequired por onError. Las queries ordenadas sin
// filtros y las no ordenadas no necesitan índice.
type Collection[T any] struct {
	name   string
	schema Schema[T]

	mu      sync.RWMutex
	docs    map[string]T
	indexes map[string]struct{}
	subs    map[int]*subscription[T]
	nextSub int
	fault   func(live.Query) error
}

func NewCollection[T any](name string, schema Schema[T], indexes ...string) *Collection[T] {
	c := &Collection[T]{
		name:    name,
		schema:  schema,
		docs:    make(map[string]T),
		indexes: make(map[string]struct{}),
		subs:    make(map[int]*subscription[T]),
	}
	for _, ix := range indexes {
		c.indexes[ix] = struct{}{}
	}
	return c
}

func (c *Collection[T]) Name() string { return c.name }

// EnsureIndex registra un índice compuesto ("coleccion:campo+campo+orden").
func (c *Collection[T]) EnsureIndex(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexes[key] = struct{}{}
}

// InjectFault hace fallar las suscripciones cuya query devuelva error.
// Solo para dev/tests (simular permisos o caídas del store).
func (c *Collection[T]) InjectFault(fn func(live.Query) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fault = fn
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.docs[id]
	return d, ok
}

// Insert falla con ErrConflict si el id ya existe.
func (c *Collection[T]) Insert(doc T) error {
	id := c.schema.Key(doc)
	if strings.TrimSpace(id) == "" {
		return errors.New(c.name + ": id required")
	}

	c.mu.Lock()
	if _, exists := c.docs[id]; exists {
		c.mu.Unlock()
		return ErrConflict
	}
	c.docs[id] = doc
	c.mu.Unlock()

	c.broadcast()
	return nil
}

// Put escribe el documento entero (crea o reemplaza).
func (c *Collection[T]) Put(doc T) error {
	id := c.schema.Key(doc)
	if strings.TrimSpace(id) == "" {
		return errors.New(c.name + ": id required")
	}

	c.mu.Lock()
	c.docs[id] = doc
	c.mu.Unlock()

	c.broadcast()
	return nil
}

// Update hace read-modify-write atómico. fn recibe el documento actual y si
// existía; si devuelve error no se escribe nada.
func (c *Collection[T]) Update(id string, fn func(cur T, exists bool) (T, error)) (T, error) {
	c.mu.Lock()
	cur, exists := c.docs[id]
	next, err := fn(cur, exists)
	if err != nil {
		c.mu.Unlock()
		var zero T
		return zero, err
	}
	if c.schema.Key(next) != id {
		c.mu.Unlock()
		var zero T
		return zero, errors.New(c.name + ": id mismatch on update")
	}
	c.docs[id] = next
	c.mu.Unlock()

	c.broadcast()
	return next, nil
}

// Query evalúa q una sola vez (sin chequeo de índices: lecturas de backend).
func (c *Collection[T]) Query(q live.Query) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evaluate(q)
}

// Subscribe implementa live.Source. Cada suscripción entrega en su propia
// goroutine; los snapshots pendientes se colapsan en el último estado.
func (c *Collection[T]) Subscribe(q live.Query, onSnapshot func([]T), onError func(error)) (live.Unsubscribe, error) {
	c.mu.Lock()
	if c.fault != nil {
		if err := c.fault(q); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}

	var failure error
	if q.OrderBy != nil && len(q.Filters) > 0 {
		if _, ok := c.indexes[q.IndexKey()]; !ok {
			failure = live.ErrIndexRequired
		}
	}

	s := &subscription[T]{
		query:      q,
		onSnapshot: onSnapshot,
		onError:    onError,
		failure:    failure,
		dirty:      make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	id := c.nextSub
	c.nextSub++
	if failure == nil {
		c.subs[id] = s
	}
	c.mu.Unlock()

	s.notify()
	go s.run(c)

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
		s.stop()
	}, nil
}

// Subscribers devuelve cuántas suscripciones vivas hay.
func (c *Collection[T]) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

func (c *Collection[T]) broadcast() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.subs {
		s.notify()
	}
}

// evaluate asume c.mu tomado (lectura).
func (c *Collection[T]) evaluate(q live.Query) []T {
	out := make([]T, 0)
	for _, d := range c.docs {
		if c.matches(d, q.Filters) {
			out = append(out, d)
		}
	}

	key := c.schema.Key
	if q.OrderBy != nil {
		ts := c.schema.Times[q.OrderBy.Field]
		desc := q.OrderBy.Desc
		sort.SliceStable(out, func(i, j int) bool {
			var a, b time.Time
			if ts != nil {
				a, b = ts(out[i]), ts(out[j])
			}
			if !a.Equal(b) {
				if desc {
					return a.After(b)
				}
				return a.Before(b)
			}
			return key(out[i]) < key(out[j])
		})
	} else {
		// orden natural del store: por id
		sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (c *Collection[T]) matches(d T, filters []live.Filter) bool {
	for _, f := range filters {
		get, ok := c.schema.Fields[f.Field]
		if !ok || get(d) != f.Value {
			return false
		}
	}
	return true
}

type subscription[T any] struct {
	query      live.Query
	onSnapshot func([]T)
	onError    func(error)
	failure    error

	dirty    chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (s *subscription[T]) notify() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *subscription[T]) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *subscription[T]) run(c *Collection[T]) {
	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
		}

		// stop puede haber llegado mientras esperábamos
		select {
		case <-s.done:
			return
		default:
		}

		if s.failure != nil {
			s.onError(s.failure)
			return
		}

		c.mu.RLock()
		snap := c.evaluate(s.query)
		c.mu.RUnlock()

		s.onSnapshot(snap)
	}
}
