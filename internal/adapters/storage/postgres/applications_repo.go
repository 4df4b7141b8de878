package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-adoption-marketplace/internal/domain/applications"
)

var applicationsTable = table[applications.Application]{
	name: applications.Collection,
	columns: `id, pet_id, pet_name, shelter_id, shelter_name, applicant_id, applicant_name,
		applicant_email, message, status, created_at, updated_at`,
	fields: map[string]string{
		applications.FieldApplicantID: "applicant_id",
		applications.FieldShelterID:   "shelter_id",
		applications.FieldPetID:       "pet_id",
		applications.FieldCreatedAt:   "created_at",
	},
	scan: scanApplication,
}

type ApplicationsRepo struct {
	db *sql.DB
	liveSource[applications.Application]
}

func NewApplicationsRepo(db *sql.DB, listener *Listener) *ApplicationsRepo {
	return &ApplicationsRepo{
		db:         db,
		liveSource: liveSource[applications.Application]{db: db, tbl: applicationsTable, listener: listener},
	}
}

// Create: la unicidad (pet_id, applicant_id) la garantiza la tabla.
func (r *ApplicationsRepo) Create(ctx context.Context, a applications.Application) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, pet_id, pet_name, shelter_id, shelter_name, applicant_id, applicant_name,
			applicant_email, message, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		a.ID, a.PetID, a.PetName, a.ShelterID, a.ShelterName, a.ApplicantID, a.ApplicantName,
		a.ApplicantEmail, a.Message, string(a.Status.Normalize()), a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return applications.ErrDuplicate
	}
	return err
}

// Update es compare-and-set sobre el status normalizado ('' y 'closed' son
// valores viejos).
func (r *ApplicationsRepo) Update(ctx context.Context, a applications.Application, from applications.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, message = $3, pet_name = $4, shelter_name = $5, applicant_name = $6, updated_at = $7
		WHERE id = $1
		  AND CASE status WHEN '' THEN 'submitted' WHEN 'closed' THEN 'rejected' ELSE status END = $8
	`,
		a.ID, string(a.Status.Normalize()), a.Message, a.PetName, a.ShelterName, a.ApplicantName, a.UpdatedAt,
		string(from.Normalize()),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s is no longer %s", applications.ErrBadTransition, a.ID, from)
}

func (r *ApplicationsRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return applications.Application{}, ErrNotFound
	}
	return applicationsTable.get(ctx, r.db, id)
}

func (r *ApplicationsRepo) ListByApplicant(ctx context.Context, applicantID string) ([]applications.Application, error) {
	return applicationsTable.list(ctx, r.db,
		"SELECT "+applicationsTable.columns+" FROM applications WHERE applicant_id = $1 ORDER BY created_at DESC, id",
		strings.TrimSpace(applicantID))
}

func scanApplication(s scanner) (applications.Application, error) {
	var a applications.Application
	var status string
	if err := s.Scan(
		&a.ID, &a.PetID, &a.PetName, &a.ShelterID, &a.ShelterName, &a.ApplicantID, &a.ApplicantName,
		&a.ApplicantEmail, &a.Message, &status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return applications.Application{}, err
	}
	a.Status = applications.Status(status)
	return a, nil
}
