package live

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status es lo que ve el consumidor de una Feed. Err solo se setea en
// StateFailed y envuelve ErrLoadFailed.
type Status struct {
	State    State
	Fallback bool
	Err      error
}

type Config struct {
	// Name para logs/métricas; default la colección de la query.
	Name   string
	Logger logger.Logger
	// OnChange se llama después de cada snapshot aplicado y ante la falla
	// terminal. La vista se lee del Merger (atómica).
	OnChange func(Status)
}

type stage int

const (
	stagePrimary stage = iota
	stageFallback
	stageFailed
)

// Feed es una suscripción lógica con failover: primero la query ordenada;
// si no se puede establecer o falla después, se libera y se suscribe la
// misma query sin orden. Solo si la fallback también falla el estado pasa a
// StateFailed.
type Feed[T any] struct {
	name     string
	src      Source[T]
	query    Query
	merger   *Merger[T]
	log      logger.Logger
	onChange func(Status)

	mu     sync.Mutex
	stage  stage
	status Status
	closed bool
	unsubs [2]Unsubscribe

	ready     chan struct{}
	readyOnce sync.Once
}

// Start crea la Feed y suscribe la query primaria.
func Start[T any](src Source[T], q Query, merger *Merger[T], cfg Config) *Feed[T] {
	name := cfg.Name
	if name == "" {
		name = q.Collection
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	f := &Feed[T]{
		name:     name,
		src:      src,
		query:    q,
		merger:   merger,
		log:      log.With(map[string]any{"feed": name}),
		onChange: cfg.OnChange,
		ready:    make(chan struct{}),
	}
	f.subscribe(stagePrimary, q)
	return f
}

// Ready se cierra con el primer snapshot, la falla terminal o Close.
func (f *Feed[T]) Ready() <-chan struct{} { return f.ready }

func (f *Feed[T]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Close libera primaria y fallback. Idempotente.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	unsubs := f.unsubs
	f.unsubs = [2]Unsubscribe{}
	f.mu.Unlock()

	for _, u := range unsubs {
		if u != nil {
			u()
		}
	}
	f.markReady()
}

// subscribe no toma el lock mientras llama al store: el store puede
// entregar snapshots o errores de forma sincrónica dentro de Subscribe.
func (f *Feed[T]) subscribe(st stage, q Query) {
	unsub, err := f.src.Subscribe(q,
		func(docs []T) { f.handleSnapshot(st, docs) },
		func(err error) { f.handleError(st, err) },
	)
	if err != nil {
		f.handleError(st, err)
		return
	}

	f.mu.Lock()
	if f.closed || f.stage != st {
		// cerrada o ya falló (error sincrónico) mientras se suscribía
		f.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		return
	}
	f.unsubs[st] = unsub
	f.mu.Unlock()
}

func (f *Feed[T]) handleSnapshot(st stage, docs []T) {
	f.mu.Lock()
	if f.closed || f.stage != st {
		f.mu.Unlock()
		return
	}
	f.merger.Merge(docs)
	f.status = Status{State: StateReady, Fallback: st == stageFallback}
	status := f.status
	f.mu.Unlock()

	f.markReady()
	f.notify(status)
}

func (f *Feed[T]) handleError(st stage, err error) {
	f.mu.Lock()
	if f.closed || f.stage != st {
		f.mu.Unlock()
		return
	}
	unsub := f.unsubs[st]
	f.unsubs[st] = nil

	if st == stagePrimary {
		f.stage = stageFallback
		f.status.Fallback = true
		f.mu.Unlock()

		if unsub != nil {
			unsub()
		}
		f.log.Warn("primary subscription failed, using fallback", map[string]any{"err": err})
		metrics.FeedFailovers.WithLabelValues(f.name).Inc()

		f.subscribe(stageFallback, f.query.Unordered())
		return
	}

	f.stage = stageFailed
	f.status = Status{
		State:    StateFailed,
		Fallback: true,
		Err:      fmt.Errorf("%w: %s: %v", ErrLoadFailed, f.name, err),
	}
	status := f.status
	f.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	f.log.Error("fallback subscription failed", map[string]any{"err": err})
	metrics.FeedFailures.WithLabelValues(f.name).Inc()

	f.markReady()
	f.notify(status)
}

func (f *Feed[T]) notify(st Status) {
	if f.onChange != nil {
		f.onChange(st)
	}
}

func (f *Feed[T]) markReady() {
	f.readyOnce.Do(func() { close(f.ready) })
}

// Collect espera a que cada feed esté lista (o haya fallado), las cierra y
// devuelve la vista combinada. err != nil si alguna feed terminó en
// StateFailed (errores unidos) o si ctx se canceló antes.
func Collect[T any](ctx context.Context, merger *Merger[T], feeds ...*Feed[T]) ([]T, error) {
	defer func() {
		for _, f := range feeds {
			f.Close()
		}
	}()

	for _, f := range feeds {
		select {
		case <-f.Ready():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var errs []error
	for _, f := range feeds {
		if st := f.Status(); st.State == StateFailed {
			errs = append(errs, st.Err)
		}
	}
	return merger.View(), errors.Join(errs...)
}
