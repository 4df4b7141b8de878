package applications

import (
	"context"
	"errors"

	"pet-adoption-marketplace/internal/live"
)

const (
	Collection       = "applications"
	FieldApplicantID = "applicantId"
	FieldShelterID   = "shelterId"
	FieldPetID       = "petId"
	FieldCreatedAt   = "createdAt"
)

// ErrDuplicate: ya existe una solicitud del mismo adoptante para la mascota.
var ErrDuplicate = errors.New("application already exists")

type Repository interface {
	// Create devuelve ErrDuplicate si ya hay una para (petId, applicantId).
	Create(ctx context.Context, a Application) error
	// Update escribe a solo si el status guardado (normalizado) sigue siendo
	// from; si otro cambio ganó antes devuelve ErrBadTransition.
	Update(ctx context.Context, a Application, from Status) error
	GetByID(ctx context.Context, id string) (Application, error)
	// ListByApplicant en orden createdAt desc.
	ListByApplicant(ctx context.Context, applicantID string) ([]Application, error)

	live.Source[Application]
}
