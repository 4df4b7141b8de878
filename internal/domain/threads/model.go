package threads

import (
	"strings"
	"time"
)

// SystemSenderID marca los mensajes automáticos (cambios de estado de la solicitud).
const SystemSenderID = "system"

// OpeningMessage es el lastMessage de un thread recién abierto.
const OpeningMessage = "Conversation started"

// Thread es la conversación entre un adoptante y un refugio sobre una mascota.
// ID = IDFor(Key()).
type Thread struct {
	ID string

	PetID       string
	PetName     string
	AdopterID   string
	AdopterName string
	ShelterID   string
	ShelterName string

	LastMessage   string
	LastMessageAt time.Time
	LastSenderID  string

	AdoptionClosed     bool
	AdoptionClosedAt   *time.Time
	AdoptionReopenedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Thread) Key() Key {
	return Key{PetID: t.PetID, AdopterID: t.AdopterID, ShelterID: t.ShelterID}
}

// HasParticipant: adoptante o refugio del thread.
func (t Thread) HasParticipant(uid string) bool {
	uid = strings.TrimSpace(uid)
	return uid != "" && (uid == t.AdopterID || uid == t.ShelterID)
}

type Message struct {
	ID        string
	ThreadID  string
	SenderID  string
	Text      string
	CreatedAt time.Time
}

func (m Message) IsSystem() bool { return m.SenderID == SystemSenderID }

// Patch es un merge-write sobre un thread: crea si no existe, y si existe solo
// pisa los campos no vacíos. Nunca borra nada.
type Patch struct {
	Key

	PetName     string
	AdopterName string
	ShelterName string

	// Opening/OpenedBy inicializan lastMessage solo cuando el thread es nuevo.
	Opening  string
	OpenedBy string

	// nil = no tocar; true = adopción cerrada; false = reabierta.
	AdoptionClosed *bool
}

// Apply mezcla p sobre cur. exists=false crea el thread.
func Apply(cur Thread, exists bool, p Patch, now time.Time) Thread {
	if !exists {
		opening := strings.TrimSpace(p.Opening)
		if opening == "" {
			opening = OpeningMessage
		}
		cur = Thread{
			ID:            IDFor(p.Key),
			PetID:         strings.TrimSpace(p.PetID),
			AdopterID:     strings.TrimSpace(p.AdopterID),
			ShelterID:     strings.TrimSpace(p.ShelterID),
			LastMessage:   opening,
			LastMessageAt: now,
			LastSenderID:  strings.TrimSpace(p.OpenedBy),
			CreatedAt:     now,
		}
	}

	if v := strings.TrimSpace(p.PetName); v != "" {
		cur.PetName = v
	}
	if v := strings.TrimSpace(p.AdopterName); v != "" {
		cur.AdopterName = v
	}
	if v := strings.TrimSpace(p.ShelterName); v != "" {
		cur.ShelterName = v
	}

	if p.AdoptionClosed != nil {
		at := now
		cur.AdoptionClosed = *p.AdoptionClosed
		if *p.AdoptionClosed {
			cur.AdoptionClosedAt = &at
		} else {
			cur.AdoptionReopenedAt = &at
		}
	}

	cur.UpdatedAt = now
	return cur
}

// WithMessage actualiza los campos last* con m.
func WithMessage(t Thread, m Message) Thread {
	t.LastMessage = m.Text
	t.LastMessageAt = m.CreatedAt
	t.LastSenderID = m.SenderID
	t.UpdatedAt = m.CreatedAt
	return t
}
