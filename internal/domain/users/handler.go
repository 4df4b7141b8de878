package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me", meHandler(svc))
	r.Put("/me", saveProfileHandler(svc))
	r.Put("/me/preferences", savePreferencesHandler(svc))
}

type profileRequest struct {
	Email          string          `json:"email"`
	DisplayName    string          `json:"displayName"`
	Role           string          `json:"role"`
	AdopterProfile *AdopterProfile `json:"adopterProfile,omitempty"`
	ShelterProfile *ShelterProfile `json:"shelterProfile,omitempty"`
}

type userResponse struct {
	UID            string          `json:"uid"`
	Email          string          `json:"email,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`
	Role           Role            `json:"role"`
	Preferences    *Preferences    `json:"preferences,omitempty"`
	AdopterProfile *AdopterProfile `json:"adopterProfile,omitempty"`
	ShelterProfile *ShelterProfile `json:"shelterProfile,omitempty"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
}

// meHandler godoc
// @Summary      Usuario actual
// @Description  Perfil hidratado; si todavía no hay perfil guardado se arma desde el token.
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {string}  string
// @Router       /me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// saveProfileHandler godoc
// @Summary      Guardar perfil
// @Description  Crea o mezcla el perfil (rol, nombre, perfil de adoptante o refugio).
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      profileRequest  true  "Perfil"
// @Success      200   {object}  userResponse
// @Failure      400   {string}  string
// @Failure      401   {string}  string
// @Failure      403   {string}  string
// @Router       /me [put]
func saveProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, err := svc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.SaveProfile(r.Context(), cur.UID, ProfileInput{
			Email:          req.Email,
			DisplayName:    req.DisplayName,
			Role:           req.Role,
			AdopterProfile: req.AdopterProfile,
			ShelterProfile: req.ShelterProfile,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// savePreferencesHandler godoc
// @Summary      Guardar respuestas del quiz
// @Description  Reemplaza el set completo de preferencias.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      Preferences  true  "Preferencias"
// @Success      200   {object}  userResponse
// @Router       /me/preferences [put]
func savePreferencesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, err := svc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var prefs Preferences
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.SavePreferences(r.Context(), cur.UID, prefs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	out := userResponse{
		UID:            u.UID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Role:           u.Role,
		Preferences:    u.Preferences,
		AdopterProfile: u.AdopterProfile,
		ShelterProfile: u.ShelterProfile,
	}
	// perfil transitorio: sin timestamps
	if !u.CreatedAt.IsZero() {
		t := u.CreatedAt
		out.CreatedAt = &t
	}
	if !u.UpdatedAt.IsZero() {
		t := u.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
