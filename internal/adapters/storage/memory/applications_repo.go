package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/live"
)

var ApplicationIndexes = []string{
	live.Query{Collection: applications.Collection}.Where(applications.FieldApplicantID, "").Ordered(applications.FieldCreatedAt, true).IndexKey(),
	live.Query{Collection: applications.Collection}.Where(applications.FieldShelterID, "").Ordered(applications.FieldCreatedAt, true).IndexKey(),
}

type ApplicationRepo struct {
	*Collection[applications.Application]

	// serializa el chequeo de unicidad (petId, applicantId) con el insert
	createMu sync.Mutex
}

func NewApplicationRepo(indexes ...string) *ApplicationRepo {
	return &ApplicationRepo{Collection: NewCollection(applications.Collection, Schema[applications.Application]{
		Key: func(a applications.Application) string { return a.ID },
		Fields: map[string]func(applications.Application) string{
			applications.FieldApplicantID: func(a applications.Application) string { return a.ApplicantID },
			applications.FieldShelterID:   func(a applications.Application) string { return a.ShelterID },
			applications.FieldPetID:       func(a applications.Application) string { return a.PetID },
		},
		Times: map[string]func(applications.Application) time.Time{
			applications.FieldCreatedAt: func(a applications.Application) time.Time { return a.CreatedAt },
		},
	}, indexes...)}
}

func (r *ApplicationRepo) Create(ctx context.Context, a applications.Application) error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("application id required")
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	q := live.Query{Collection: applications.Collection}.
		Where(applications.FieldPetID, a.PetID).
		Where(applications.FieldApplicantID, a.ApplicantID)
	if len(r.Query(q)) > 0 {
		return applications.ErrDuplicate
	}

	if err := r.Insert(a); err != nil {
		if errors.Is(err, ErrConflict) {
			return applications.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ApplicationRepo) Update(ctx context.Context, a applications.Application, from applications.Status) error {
	_, err := r.Collection.Update(a.ID, func(cur applications.Application, exists bool) (applications.Application, error) {
		if !exists {
			return applications.Application{}, ErrNotFound
		}
		if got := cur.Status.Normalize(); got != from.Normalize() {
			return applications.Application{}, fmt.Errorf("%w: %s changed to %s", applications.ErrBadTransition, from, got)
		}
		return a, nil
	})
	return err
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	a, ok := r.Get(id)
	if !ok {
		return applications.Application{}, ErrNotFound
	}
	return a, nil
}

func (r *ApplicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]applications.Application, error) {
	q := live.Query{Collection: applications.Collection}.
		Where(applications.FieldApplicantID, applicantID).
		Ordered(applications.FieldCreatedAt, true)
	return r.Query(q), nil
}
