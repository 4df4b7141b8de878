package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/live"
	"pet-adoption-marketplace/internal/platform/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// ChangesChannel es el canal de NOTIFY que usan los triggers de schema.sql.
const ChangesChannel = "live_changes"

type scanner interface {
	Scan(dest ...any) error
}

// table describe cómo leer una colección: columnas del SELECT, campos de
// query permitidos y el scan de una fila.
type table[T any] struct {
	name    string
	columns string
	fields  map[string]string
	scan    func(scanner) (T, error)
}

// build traduce una live.Query a SQL. Un campo desconocido es error
// (sincrónico en Subscribe, lo que dispara la fallback de la Feed).
func (t table[T]) build(q live.Query) (string, []any, error) {
	if q.Collection != "" && q.Collection != t.name {
		return "", nil, fmt.Errorf("query for %q on table %q", q.Collection, t.name)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(t.columns)
	sb.WriteString(" FROM ")
	sb.WriteString(t.name)

	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		col, ok := t.fields[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q on %s", f.Field, t.name)
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, f.Value)
		sb.WriteString(col + " = $" + strconv.Itoa(len(args)))
	}

	if q.OrderBy != nil {
		col, ok := t.fields[q.OrderBy.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown order field %q on %s", q.OrderBy.Field, t.name)
		}
		dir := "ASC"
		if q.OrderBy.Desc {
			dir = "DESC"
		}
		sb.WriteString(" ORDER BY " + col + " " + dir + ", id")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	return sb.String(), args, nil
}

func (t table[T]) list(ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t table[T]) get(ctx context.Context, db *sql.DB, id string) (T, error) {
	v, err := t.scan(db.QueryRowContext(ctx, "SELECT "+t.columns+" FROM "+t.name+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return v, ErrNotFound
	}
	return v, err
}

// liveSource implementa live.Source[T] sobre una tabla: snapshot inicial y
// re-query completa cada vez que llega un NOTIFY de la colección.
type liveSource[T any] struct {
	db       *sql.DB
	tbl      table[T]
	listener *Listener
}

func (s liveSource[T]) Subscribe(q live.Query, onSnapshot func([]T), onError func(error)) (live.Unsubscribe, error) {
	query, args, err := s.tbl.build(q)
	if err != nil {
		return nil, err
	}

	var (
		signal <-chan struct{} // nil: sin listener solo hay snapshot inicial
		stopW  = func() {}
	)
	if s.listener != nil {
		signal, stopW = s.listener.watch(s.tbl.name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer stopW()
		for {
			items, err := s.tbl.list(ctx, s.db, query, args...)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				onError(err)
				return
			}
			onSnapshot(items)

			select {
			case <-ctx.Done():
				return
			case <-signal:
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

// Listener mantiene una conexión con LISTEN y despierta a las suscripciones
// de la colección notificada. Los avisos se coalescen: a una suscripción
// ocupada le queda a lo sumo uno pendiente.
type Listener struct {
	db  *sql.DB
	log logger.Logger

	mu       sync.Mutex
	watchers map[string]map[chan struct{}]struct{}
}

func NewListener(db *sql.DB, log logger.Logger) *Listener {
	if log == nil {
		log = logger.Nop()
	}
	return &Listener{
		db:       db,
		log:      log.With(map[string]any{"component": "pg_listener"}),
		watchers: make(map[string]map[chan struct{}]struct{}),
	}
}

func (l *Listener) watch(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	l.mu.Lock()
	if l.watchers[collection] == nil {
		l.watchers[collection] = make(map[chan struct{}]struct{})
	}
	l.watchers[collection][ch] = struct{}{}
	l.mu.Unlock()

	return ch, func() {
		l.mu.Lock()
		delete(l.watchers[collection], ch)
		l.mu.Unlock()
	}
}

// Watchers cuenta las suscripciones vivas (tests y diagnóstico).
func (l *Listener) Watchers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ws := range l.watchers {
		n += len(ws)
	}
	return n
}

// Notify despierta a las suscripciones de una colección ("" = todas).
func (l *Listener) Notify(collection string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, ws := range l.watchers {
		if collection != "" && name != collection {
			continue
		}
		for ch := range ws {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Run escucha hasta que ctx se cancela, reconectando con backoff exponencial.
func (l *Listener) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second

	for {
		err := l.listen(ctx, b.Reset)
		if ctx.Err() != nil {
			return
		}
		wait := b.NextBackOff()
		l.log.Warn("listen connection lost", map[string]any{"err": err, "retry_in": wait.String()})

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (l *Listener) listen(ctx context.Context, connected func()) error {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver conn %T", driverConn)
		}
		pc := sc.Conn()
		if _, err := pc.Exec(ctx, "LISTEN "+ChangesChannel); err != nil {
			return err
		}
		connected()
		l.log.Info("listening for changes", map[string]any{"channel": ChangesChannel})

		// mientras no había conexión se pueden haber perdido avisos
		l.Notify("")

		for {
			n, err := pc.WaitForNotification(ctx)
			if err != nil {
				// la conexión sigue con LISTEN activo: no vuelve al pool
				return fmt.Errorf("%w: %v", driver.ErrBadConn, err)
			}
			l.Notify(n.Payload)
		}
	})
}
