// Package live mantiene vistas locales consistentes sobre suscripciones en
// vivo contra el document store.
//
// Piezas:
//   - Merge / Merger: combinan snapshots de varias suscripciones en una vista
//     deduplicada y ordenada (last-writer-wins por id).
//   - Feed: suscripción lógica con failover de query ordenada a no ordenada.
//   - Collect: helper de una sola lectura para handlers HTTP.
package live

import (
	"errors"
	"strings"
)

var (
	// ErrIndexRequired lo devuelve un store cuando una query ordenada no tiene índice.
	ErrIndexRequired = errors.New("failed-precondition: query requires an index")
	// ErrLoadFailed se expone al consumidor solo si la fallback también falló.
	ErrLoadFailed = errors.New("failed to load")
)

type Filter struct {
	Field string
	Value string
}

type Order struct {
	Field string
	Desc  bool
}

// Query describe una suscripción: igualdades + orden opcional + límite.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *Order
	Limit      int
}

// Where agrega un filtro de igualdad (copia, no muta q).
func (q Query) Where(field, value string) Query {
	out := q
	out.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return out
}

// Ordered devuelve q ordenada por field.
func (q Query) Ordered(field string, desc bool) Query {
	out := q
	out.OrderBy = &Order{Field: field, Desc: desc}
	return out
}

// Unordered es la misma query sin orden: la variante que no necesita índice.
func (q Query) Unordered() Query {
	out := q
	out.OrderBy = nil
	return out
}

// IndexKey identifica el índice compuesto que necesita una query ordenada
// con filtros, p.ej. "threads:adopterId+lastMessageAt".
func (q Query) IndexKey() string {
	if q.OrderBy == nil {
		return ""
	}
	names := make([]string, 0, len(q.Filters)+1)
	for _, f := range q.Filters {
		names = append(names, f.Field)
	}
	names = append(names, q.OrderBy.Field)
	return q.Collection + ":" + strings.Join(names, "+")
}

// Unsubscribe libera la suscripción. Debe ser idempotente y no bloquear:
// puede llamarse desde dentro de un callback de la misma suscripción.
type Unsubscribe func()

// Source es el contrato de suscripción en vivo del document store.
// onSnapshot recibe el resultado completo de la query; onError termina la
// suscripción (no llegan más callbacks después).
type Source[T any] interface {
	Subscribe(q Query, onSnapshot func([]T), onError func(error)) (Unsubscribe, error)
}
