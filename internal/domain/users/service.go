package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: cambio de rol que el usuario no puede hacerse a sí mismo.
	ErrForbidden = errors.New("forbidden")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Hydrate devuelve el perfil del usuario autenticado.
// Si todavía no tiene documento, arma uno transitorio desde los claims
// (rol del token o adopter por defecto); no se persiste.
func (s *Service) Hydrate(ctx context.Context, claims auth.Claims) (User, error) {
	uid := strings.TrimSpace(claims.UserID)
	if uid == "" {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByID(ctx, uid)
	if err == nil {
		if u.Email == "" {
			u.Email = strings.TrimSpace(claims.Email)
		}
		return u, nil
	}

	return User{
		UID:   uid,
		Email: strings.TrimSpace(claims.Email),
		Role:  ParseRole(claims.Role),
	}, nil
}

// Current hidrata al usuario de los claims del request.
func (s *Service) Current(ctx context.Context) (User, error) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return User{}, ErrUnauthorized
	}
	return s.Hydrate(ctx, claims)
}

func (s *Service) GetByID(ctx context.Context, uid string) (User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return User{}, ErrInvalidInput
	}
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

type ProfileInput struct {
	Email          string
	DisplayName    string
	Role           string
	AdopterProfile *AdopterProfile
	ShelterProfile *ShelterProfile
}

// SaveProfile crea o actualiza (merge) el perfil del usuario.
// Las preferencias no se tocan aquí: solo cambian vía SavePreferences.
func (s *Service) SaveProfile(ctx context.Context, uid string, in ProfileInput) (User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return User{}, ErrInvalidInput
	}

	now := s.now()
	u, err := s.repo.GetByID(ctx, uid)
	stored := err == nil
	if !stored {
		u = User{UID: uid, Role: RoleAdopter, CreatedAt: now}
	}

	if v := strings.TrimSpace(in.Email); v != "" {
		u.Email = v
	}
	if v := strings.TrimSpace(in.DisplayName); v != "" {
		u.DisplayName = v
	}
	if strings.TrimSpace(in.Role) != "" {
		r := Role(strings.ToLower(strings.TrimSpace(in.Role)))
		if !r.Valid() {
			return User{}, ErrInvalidInput
		}
		if err := checkRoleChange(u, stored, r); err != nil {
			return User{}, err
		}
		u.Role = r
	}
	if in.AdopterProfile != nil {
		u.AdopterProfile = in.AdopterProfile
	}
	if in.ShelterProfile != nil {
		u.ShelterProfile = in.ShelterProfile
	}
	u.UpdatedAt = now

	if err := s.repo.Upsert(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// checkRoleChange: por autoservicio solo se elige adopter o shelter, y una
// sola vez. Con el rol ya guardado solo un admin puede cambiarlo.
func checkRoleChange(cur User, stored bool, to Role) error {
	if stored && cur.Role == RoleAdmin {
		return nil
	}
	if to == RoleAdmin {
		return ErrForbidden
	}
	if stored && cur.Role != "" && cur.Role != to {
		return ErrForbidden
	}
	return nil
}

// SavePreferences reemplaza el set completo de preferencias (envío del quiz).
func (s *Service) SavePreferences(ctx context.Context, uid string, prefs Preferences) (User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return User{}, ErrInvalidInput
	}

	now := s.now()
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		u = User{UID: uid, Role: RoleAdopter, CreatedAt: now}
	}

	p := prefs
	u.Preferences = &p
	u.UpdatedAt = now

	if err := s.repo.Upsert(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}
