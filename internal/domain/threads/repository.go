package threads

import (
	"context"

	"pet-adoption-marketplace/internal/live"
)

const (
	Collection         = "threads"
	FieldAdopterID     = "adopterId"
	FieldShelterID     = "shelterId"
	FieldLastMessageAt = "lastMessageAt"
)

type Repository interface {
	// Merge aplica el patch de forma atómica (ver Apply).
	Merge(ctx context.Context, p Patch) (Thread, error)
	GetByID(ctx context.Context, id string) (Thread, error)

	// AppendMessage guarda el mensaje y actualiza last* del thread.
	// El thread tiene que existir.
	AppendMessage(ctx context.Context, m Message) (Thread, error)
	// ListMessages en orden createdAt asc.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)

	live.Source[Thread]
}
