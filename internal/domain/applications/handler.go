package applications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
	"pet-adoption-marketplace/internal/live"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Post("/applications", submitHandler(svc, usersSvc))
	r.Get("/me/applications", myApplicationsHandler(svc, usersSvc))

	// Tablero del refugio (admin: todas)
	r.Get("/shelter/applications", boardHandler(svc, usersSvc))

	r.Post("/applications/{applicationID}/approve", transitionHandler(svc.Approve, usersSvc))
	r.Post("/applications/{applicationID}/reject", transitionHandler(svc.Reject, usersSvc))
	r.Post("/applications/{applicationID}/revoke", transitionHandler(svc.Revoke, usersSvc))
	r.Post("/applications/{applicationID}/reopen", transitionHandler(svc.Reopen, usersSvc))
}

type submitRequest struct {
	PetID   string `json:"petId"`
	Message string `json:"message"`
}

type applicationResponse struct {
	ID             string    `json:"id"`
	PetID          string    `json:"petId"`
	PetName        string    `json:"petName,omitempty"`
	ShelterID      string    `json:"shelterId"`
	ShelterName    string    `json:"shelterName,omitempty"`
	ApplicantID    string    `json:"applicantId"`
	ApplicantName  string    `json:"applicantName,omitempty"`
	ApplicantEmail string    `json:"applicantEmail,omitempty"`
	Message        string    `json:"message,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type myApplicationsResponse struct {
	Applications []applicationResponse `json:"applications"`
	Stats        AdopterStats          `json:"stats"`
}

type annotatedResponse struct {
	applicationResponse
	DisplayName    string `json:"displayName"`
	MatchPercent   int    `json:"matchPercent"`
	HasPreferences bool   `json:"hasPreferences"`
}

type groupResponse struct {
	PetID        string              `json:"petId"`
	PetName      string              `json:"petName"`
	Pet          *pets.PetResponse   `json:"pet,omitempty"`
	Applications []annotatedResponse `json:"applications"`
}

type boardResponse struct {
	Active   []groupResponse `json:"active"`
	Previous []groupResponse `json:"previous"`
}

// submitHandler godoc
// @Summary      Enviar solicitud de adopción
// @Description  Solo adoptantes, una por mascota, y solo sobre listados activos.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        body  body      submitRequest  true  "Solicitud"
// @Success      201   {object}  applicationResponse
// @Failure      400   {string}  string
// @Failure      403   {string}  string
// @Failure      409   {string}  string
// @Router       /applications [post]
func submitHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Submit(r.Context(), viewer, req.PetID, req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(a))
	}
}

// myApplicationsHandler godoc
// @Summary      Mis solicitudes
// @Tags         applications
// @Produce      json
// @Success      200  {object}  myApplicationsResponse
// @Router       /me/applications [get]
func myApplicationsHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListMine(r.Context(), viewer)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, myApplicationsResponse{
			Applications: toResponses(items),
			Stats:        StatsOf(items),
		})
	}
}

// boardHandler godoc
// @Summary      Tablero de solicitudes
// @Description  Agrupadas por mascota, activas y anteriores, con el match de cada postulante.
// @Tags         applications
// @Produce      json
// @Success      200  {object}  boardResponse
// @Failure      403  {string}  string
// @Failure      503  {object}  map[string]string
// @Router       /shelter/applications [get]
func boardHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Board(r.Context(), viewer)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBoardResponse(g))
	}
}

// transitionHandler godoc
// @Summary      Cambiar estado de una solicitud
// @Description  approve | reject | revoke | reopen. Refugio dueño o admin.
// @Tags         applications
// @Produce      json
// @Param        applicationID  path      string  true  "Application ID"
// @Success      200            {object}  applicationResponse
// @Failure      403            {string}  string
// @Failure      409            {string}  string
// @Router       /applications/{applicationID}/approve [post]
// @Router       /applications/{applicationID}/reject [post]
// @Router       /applications/{applicationID}/revoke [post]
// @Router       /applications/{applicationID}/reopen [post]
func transitionHandler(op func(context.Context, users.User, string) (Application, error), usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := op(r.Context(), viewer, chi.URLParam(r, "applicationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func toResponse(a Application) applicationResponse {
	return applicationResponse{
		ID:             a.ID,
		PetID:          a.PetID,
		PetName:        a.PetName,
		ShelterID:      a.ShelterID,
		ShelterName:    a.ShelterName,
		ApplicantID:    a.ApplicantID,
		ApplicantName:  a.ApplicantName,
		ApplicantEmail: a.ApplicantEmail,
		Message:        a.Message,
		Status:         a.Status.Normalize(),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toResponses(items []Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toResponse(a))
	}
	return out
}

func toGroupResponses(groups []Group) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		gr := groupResponse{
			PetID:        g.PetID,
			PetName:      g.PetName,
			Applications: make([]annotatedResponse, 0, len(g.Applications)),
		}
		if g.Pet != nil {
			p := pets.ToResponse(*g.Pet)
			gr.Pet = &p
		}
		for _, a := range g.Applications {
			gr.Applications = append(gr.Applications, annotatedResponse{
				applicationResponse: toResponse(a.Application),
				DisplayName:         a.DisplayName,
				MatchPercent:        a.MatchPercent,
				HasPreferences:      a.HasPreferences,
			})
		}
		out = append(out, gr)
	}
	return out
}

func toBoardResponse(g Grouped) boardResponse {
	return boardResponse{
		Active:   toGroupResponses(g.Active),
		Previous: toGroupResponses(g.Previous),
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden), errors.Is(err, pets.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, pets.ErrNotFound):
		http.Error(w, "application not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicate):
		http.Error(w, "application already submitted", http.StatusConflict)
	case errors.Is(err, ErrBadState):
		http.Error(w, "pet is not accepting applications", http.StatusConflict)
	case errors.Is(err, ErrBadTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, live.ErrLoadFailed):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "failed to load applications"})
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
