package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/users"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registra CRUD de listados y el feed del dashboard.
// GET /pets (browse con match) lo registra el módulo recommend.
func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Post("/pets", createPetHandler(svc, usersSvc))
	r.Get("/pets/{petID}", getPetHandler(svc))
	r.Patch("/pets/{petID}", updatePetHandler(svc, usersSvc))
	r.Post("/pets/{petID}/status", setStatusHandler(svc, usersSvc))

	// Listados del refugio autenticado
	r.Get("/me/listings", myListingsHandler(svc, usersSvc))

	// Feed de dashboard (rol-aware)
	r.Get("/me/feed/pets", feedHandler(svc, usersSvc))
}

type petRequest struct {
	ShelterID   string   `json:"shelterId"`
	Name        string   `json:"name"`
	AnimalType  string   `json:"animalType"`
	Breed       string   `json:"breed"`
	Size        string   `json:"size"`
	Temperament string   `json:"temperament"`
	AgeRange    string   `json:"ageRange"`
	Gender      string   `json:"gender"`
	Color       string   `json:"color"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	Status      string   `json:"status"`
}

type updatePetRequest struct {
	Name        *string  `json:"name"`
	AnimalType  *string  `json:"animalType"`
	Breed       *string  `json:"breed"`
	Size        *string  `json:"size"`
	Temperament *string  `json:"temperament"`
	AgeRange    *string  `json:"ageRange"`
	Gender      *string  `json:"gender"`
	Color       *string  `json:"color"`
	Description *string  `json:"description"`
	Photos      []string `json:"photos"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// PetResponse es la forma pública de un listado (también la usan recommend y applications).
type PetResponse struct {
	ID          string    `json:"id"`
	ShelterID   string    `json:"shelterId"`
	Name        string    `json:"name"`
	AnimalType  string    `json:"animalType"`
	Breed       string    `json:"breed,omitempty"`
	Size        string    `json:"size,omitempty"`
	Temperament string    `json:"temperament,omitempty"`
	AgeRange    string    `json:"ageRange,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	Photos      []string  `json:"photos"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// createPetHandler godoc
// @Summary      Publicar mascota
// @Description  Crea un listado. Solo refugios (o admin a nombre de un refugio).
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        body  body      petRequest  true  "Listado"
// @Success      201   {object}  PetResponse
// @Failure      400   {string}  string
// @Failure      401   {string}  string
// @Failure      403   {string}  string
// @Router       /pets [post]
func createPetHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req petRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), viewer, Input{
			ShelterID:   req.ShelterID,
			Name:        req.Name,
			AnimalType:  req.AnimalType,
			Breed:       req.Breed,
			Size:        req.Size,
			Temperament: req.Temperament,
			AgeRange:    req.AgeRange,
			Gender:      req.Gender,
			Color:       req.Color,
			Description: req.Description,
			Photos:      req.Photos,
			Status:      Status(req.Status),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToResponse(p))
	}
}

// getPetHandler godoc
// @Summary      Ver mascota
// @Tags         pets
// @Produce      json
// @Param        petID  path      string  true  "Pet ID"
// @Success      200    {object}  PetResponse
// @Failure      404    {string}  string
// @Router       /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	// Detalle público: cualquiera puede ver un listado (incluso adoptado)
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(p))
	}
}

// updatePetHandler godoc
// @Summary      Editar mascota
// @Description  PATCH real: campos ausentes no se tocan. Refugio dueño o admin.
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        petID  path      string            true  "Pet ID"
// @Param        body   body      updatePetRequest  true  "Campos a cambiar"
// @Success      200    {object}  PetResponse
// @Router       /pets/{petID} [patch]
func updatePetHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Update(r.Context(), viewer, chi.URLParam(r, "petID"), UpdateInput{
			Name:        req.Name,
			AnimalType:  req.AnimalType,
			Breed:       req.Breed,
			Size:        req.Size,
			Temperament: req.Temperament,
			AgeRange:    req.AgeRange,
			Gender:      req.Gender,
			Color:       req.Color,
			Description: req.Description,
			Photos:      req.Photos,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ToResponse(p))
	}
}

// setStatusHandler godoc
// @Summary      Cambiar estado del listado
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        petID  path      string         true  "Pet ID"
// @Param        body   body      statusRequest  true  "active | inactive | adopted"
// @Success      200    {object}  PetResponse
// @Router       /pets/{petID}/status [post]
func setStatusHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Status) == "" {
			http.Error(w, "status required", http.StatusBadRequest)
			return
		}

		p, err := svc.SetStatus(r.Context(), viewer, chi.URLParam(r, "petID"), Status(req.Status))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ToResponse(p))
	}
}

// myListingsHandler godoc
// @Summary      Mis listados
// @Tags         pets
// @Produce      json
// @Success      200  {array}  PetResponse
// @Router       /me/listings [get]
func myListingsHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !viewer.Role.CanManageListings() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByShelter(r.Context(), viewer.UID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ToResponses(items))
	}
}

// feedHandler godoc
// @Summary      Feed de mascotas del dashboard
// @Description  Refugio: sus listados. Admin/adopter: catálogo global. createdAt desc.
// @Tags         pets
// @Produce      json
// @Success      200  {array}   PetResponse
// @Failure      503  {object}  map[string]string
// @Router       /me/feed/pets [get]
func feedHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Feed(r.Context(), viewer)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "failed to load pets"})
			return
		}
		writeJSON(w, http.StatusOK, ToResponses(items))
	}
}

func ToResponse(p Pet) PetResponse {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	return PetResponse{
		ID:          p.ID,
		ShelterID:   p.ShelterID,
		Name:        p.Name,
		AnimalType:  p.Type(),
		Breed:       p.Breed,
		Size:        p.Size,
		Temperament: p.Temperament,
		AgeRange:    p.AgeValue(),
		Gender:      p.Gender,
		Color:       p.Color,
		Description: p.Description,
		Photos:      photos,
		Status:      p.Status.Normalize(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToResponses(items []Pet) []PetResponse {
	out := make([]PetResponse, 0, len(items))
	for _, p := range items {
		out = append(out, ToResponse(p))
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
