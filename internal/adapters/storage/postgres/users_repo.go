package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-adoption-marketplace/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Upsert(ctx context.Context, u users.User) error {
	if strings.TrimSpace(u.UID) == "" {
		return errors.New("user id required")
	}
	prefs, err := toJSON(u.Preferences)
	if err != nil {
		return err
	}
	adopter, err := toJSON(u.AdopterProfile)
	if err != nil {
		return err
	}
	shelter, err := toJSON(u.ShelterProfile)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (
			uid, email, display_name, role, preferences, adopter_profile, shelter_profile, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (uid) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			role = EXCLUDED.role,
			preferences = EXCLUDED.preferences,
			adopter_profile = EXCLUDED.adopter_profile,
			shelter_profile = EXCLUDED.shelter_profile,
			updated_at = EXCLUDED.updated_at
	`,
		u.UID, u.Email, u.DisplayName, string(u.Role), prefs, adopter, shelter, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, uid string) (users.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return users.User{}, ErrNotFound
	}

	var u users.User
	var role string
	var prefs, adopter, shelter []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT uid, email, display_name, role, preferences, adopter_profile, shelter_profile, created_at, updated_at
		FROM users
		WHERE uid = $1
	`, uid).Scan(&u.UID, &u.Email, &u.DisplayName, &role, &prefs, &adopter, &shelter, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, ErrNotFound
		}
		return users.User{}, err
	}

	u.Role = users.ParseRole(role)
	if u.Preferences, err = fromJSON[users.Preferences](prefs); err != nil {
		return users.User{}, err
	}
	if u.AdopterProfile, err = fromJSON[users.AdopterProfile](adopter); err != nil {
		return users.User{}, err
	}
	if u.ShelterProfile, err = fromJSON[users.ShelterProfile](shelter); err != nil {
		return users.User{}, err
	}
	return u, nil
}
