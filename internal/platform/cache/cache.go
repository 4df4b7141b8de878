// Package cache define el almacenamiento clave/valor con TTL que usan los
// adapters para no repetir llamadas externas.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store guarda bytes por clave. Get devuelve ok=false si no existe o venció.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type entry struct {
	val     []byte
	expires time.Time // cero = no vence
}

// Memory es un Store en proceso. Las entradas vencidas se limpian al leerlas.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: map[string]entry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		return nil, false
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, true
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	e := entry{val: append([]byte(nil), val...)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[key] = e
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Len cuenta entradas, vencidas incluidas.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
