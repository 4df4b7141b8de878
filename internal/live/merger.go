package live

import (
	"sort"
	"sync"
	"time"
)

// Merge reemplaza en existing cada documento cuyo id viene en incoming
// (documento entero, sin merge de campos), conserva el resto y devuelve una
// vista nueva ordenada con less. No muta existing.
//
// El sort es estable sobre el orden previo, así re-entregar el mismo
// snapshot no duplica ni reordena empates.
func Merge[T any](existing, incoming []T, key func(T) string, less func(a, b T) bool) []T {
	out := make([]T, 0, len(existing)+len(incoming))
	pos := make(map[string]int, len(existing)+len(incoming))

	for _, doc := range existing {
		id := key(doc)
		if i, ok := pos[id]; ok {
			out[i] = doc
			continue
		}
		pos[id] = len(out)
		out = append(out, doc)
	}
	for _, doc := range incoming {
		id := key(doc)
		if i, ok := pos[id]; ok {
			out[i] = doc
			continue
		}
		pos[id] = len(out)
		out = append(out, doc)
	}

	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// ByTimeDesc ordena por timestamp descendente; sin timestamp cuenta como epoch 0.
func ByTimeDesc[T any](ts func(T) time.Time) func(a, b T) bool {
	return func(a, b T) bool {
		return epoch(ts(a)).After(epoch(ts(b)))
	}
}

func epoch(t time.Time) time.Time {
	if t.IsZero() {
		return time.Unix(0, 0)
	}
	return t
}

// Merger es la vista compartida por una o más Feeds sobre la misma colección
// lógica. Aplicar un snapshot es atómico respecto de View.
type Merger[T any] struct {
	mu   sync.RWMutex
	key  func(T) string
	less func(a, b T) bool
	view []T
}

func NewMerger[T any](key func(T) string, less func(a, b T) bool) *Merger[T] {
	return &Merger[T]{key: key, less: less}
}

// Merge aplica un batch y devuelve una copia de la vista resultante.
func (m *Merger[T]) Merge(batch []T) []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.view = Merge(m.view, batch, m.key, m.less)
	return append([]T(nil), m.view...)
}

// View devuelve una copia de la vista actual.
func (m *Merger[T]) View() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]T(nil), m.view...)
}

func (m *Merger[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.view)
}
