package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/live"
)

// PetIndexes son los índices compuestos que existen en un deploy normal.
var PetIndexes = []string{
	live.Query{Collection: pets.Collection}.Where(pets.FieldShelterID, "").Ordered(pets.FieldCreatedAt, true).IndexKey(),
}

type PetRepo struct {
	*Collection[pets.Pet]
}

func NewPetRepo(indexes ...string) *PetRepo {
	return &PetRepo{Collection: NewCollection(pets.Collection, Schema[pets.Pet]{
		Key: func(p pets.Pet) string { return p.ID },
		Fields: map[string]func(pets.Pet) string{
			pets.FieldShelterID: func(p pets.Pet) string { return p.ShelterID },
			pets.FieldStatus:    func(p pets.Pet) string { return string(p.Status.Normalize()) },
		},
		Times: map[string]func(pets.Pet) time.Time{
			pets.FieldCreatedAt: func(p pets.Pet) time.Time { return p.CreatedAt },
		},
	}, indexes...)}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if err := r.Insert(p); err != nil {
		if errors.Is(err, ErrConflict) {
			return errors.New("pet already exists")
		}
		return err
	}
	return nil
}

func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	_, err := r.Collection.Update(p.ID, func(_ pets.Pet, exists bool) (pets.Pet, error) {
		if !exists {
			return pets.Pet{}, ErrNotFound
		}
		return p, nil
	})
	return err
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	p, ok := r.Get(id)
	if !ok {
		return pets.Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *PetRepo) ListByShelter(ctx context.Context, shelterID string) ([]pets.Pet, error) {
	out := r.Query(live.Query{Collection: pets.Collection}.Where(pets.FieldShelterID, shelterID))

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
