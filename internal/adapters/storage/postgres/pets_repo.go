package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/live"
)

var petsTable = table[pets.Pet]{
	name: pets.Collection,
	columns: `id, shelter_id, name, animal_type, species, breed, size, temperament,
		age_range, age, gender, color, description, photos, status, created_at, updated_at`,
	fields: map[string]string{
		pets.FieldShelterID: "shelter_id",
		pets.FieldStatus:    "status",
		pets.FieldCreatedAt: "created_at",
	},
	scan: scanPet,
}

type PetsRepo struct {
	db *sql.DB
	liveSource[pets.Pet]
}

// NewPetsRepo: listener nil => las suscripciones solo entregan el snapshot inicial.
func NewPetsRepo(db *sql.DB, listener *Listener) *PetsRepo {
	return &PetsRepo{db: db, liveSource: liveSource[pets.Pet]{db: db, tbl: petsTable, listener: listener}}
}

var _ live.Source[pets.Pet] = (*PetsRepo)(nil)

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	photos, err := json.Marshal(nonNil(p.Photos))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, shelter_id, name, animal_type, species, breed, size, temperament,
			age_range, age, gender, color, description, photos, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		p.ID, p.ShelterID, p.Name, p.AnimalType, p.Species, p.Breed, p.Size, p.Temperament,
		p.AgeRange, p.Age, p.Gender, p.Color, p.Description, string(photos),
		string(p.Status.Normalize()), p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return errors.New("pet already exists")
	}
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	photos, err := json.Marshal(nonNil(p.Photos))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2, animal_type = $3, species = $4, breed = $5, size = $6,
			temperament = $7, age_range = $8, age = $9, gender = $10, color = $11,
			description = $12, photos = $13, status = $14, updated_at = $15
		WHERE id = $1
	`,
		p.ID, p.Name, p.AnimalType, p.Species, p.Breed, p.Size,
		p.Temperament, p.AgeRange, p.Age, p.Gender, p.Color,
		p.Description, string(photos), string(p.Status.Normalize()), p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}
	return petsTable.get(ctx, r.db, id)
}

func (r *PetsRepo) ListByShelter(ctx context.Context, shelterID string) ([]pets.Pet, error) {
	shelterID = strings.TrimSpace(shelterID)
	if shelterID == "" {
		return nil, nil
	}
	return petsTable.list(ctx, r.db,
		"SELECT "+petsTable.columns+" FROM pets WHERE shelter_id = $1 ORDER BY created_at ASC", shelterID)
}

func scanPet(s scanner) (pets.Pet, error) {
	var (
		p      pets.Pet
		photos []byte
		status string
	)
	if err := s.Scan(
		&p.ID, &p.ShelterID, &p.Name, &p.AnimalType, &p.Species, &p.Breed, &p.Size, &p.Temperament,
		&p.AgeRange, &p.Age, &p.Gender, &p.Color, &p.Description, &photos, &status,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Status = pets.Status(status)
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &p.Photos); err != nil {
			return pets.Pet{}, err
		}
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
