package pets

import (
	"context"

	"pet-adoption-marketplace/internal/live"
)

// Nombres de colección/campos para las queries en vivo.
const (
	Collection     = "pets"
	FieldShelterID = "shelterId"
	FieldStatus    = "status"
	FieldCreatedAt = "createdAt"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByShelter(ctx context.Context, shelterID string) ([]Pet, error)

	live.Source[Pet]
}
