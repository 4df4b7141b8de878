package recommend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pet-adoption-marketplace/internal/domain/match"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
	"pet-adoption-marketplace/internal/live"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registra el catálogo (GET /pets), la explicación del match y
// las recomendaciones del dashboard.
func RegisterRoutes(r chi.Router, svc *Service, usersSvc *users.Service) {
	r.Get("/pets", browseHandler(svc, usersSvc))
	r.Get("/pets/{petID}/match", describeHandler(svc, usersSvc))
	r.Get("/me/recommendations", recommendationsHandler(svc, usersSvc))
}

type listingResponse struct {
	pets.PetResponse
	ShelterName  string `json:"shelterName,omitempty"`
	MatchPercent *int   `json:"matchPercent,omitempty"`
}

type recommendationResponse struct {
	pets.PetResponse
	MatchScore   *float64 `json:"matchScore,omitempty"`
	MatchPercent *int     `json:"matchPercent,omitempty"`
}

type explanationResponse struct {
	Pet         *pets.PetResponse  `json:"pet,omitempty"`
	Percent     int                `json:"percent"`
	RawScore    float64            `json:"rawScore"`
	MaxScore    float64            `json:"maxScore"`
	Breakdown   []match.FieldScore `json:"breakdown"`
	Explanation string             `json:"explanation"`
}

// browseHandler godoc
// @Summary      Catálogo de mascotas
// @Description  Listados activos con filtros. Con sesión de adoptante incluye el match.
// @Tags         pets
// @Produce      json
// @Param        type         query     string  false  "Tipo de animal"
// @Param        breed        query     string  false  "Raza"
// @Param        color        query     string  false  "Color"
// @Param        gender       query     string  false  "Género"
// @Param        size         query     string  false  "Tamaño"
// @Param        q            query     string  false  "Búsqueda libre (nombre, raza, tipo, color)"
// @Param        onlyMatches  query     bool    false  "Solo matches >= 50% (adoptantes)"
// @Param        sort         query     string  false  "match | new"
// @Success      200          {array}   listingResponse
// @Failure      503          {object}  map[string]string
// @Router       /pets [get]
func browseHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Público: sin sesión se navega sin puntaje
		viewer, _ := usersSvc.Current(r.Context())

		q := r.URL.Query()
		onlyMatches, _ := strconv.ParseBool(q.Get("onlyMatches"))
		f := Filter{
			Type:        q.Get("type"),
			Breed:       q.Get("breed"),
			Color:       q.Get("color"),
			Gender:      q.Get("gender"),
			Size:        q.Get("size"),
			Search:      q.Get("q"),
			OnlyMatches: onlyMatches,
			Sort:        ParseSort(q.Get("sort")),
		}

		items, err := svc.Browse(r.Context(), viewer, f)
		if err != nil {
			writeError(w, err, "failed to load pets")
			return
		}

		out := make([]listingResponse, 0, len(items))
		for _, it := range items {
			lr := listingResponse{PetResponse: pets.ToResponse(it.Pet), ShelterName: it.ShelterName}
			if it.Scored {
				pct := it.Percent
				lr.MatchPercent = &pct
			}
			out = append(out, lr)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// describeHandler godoc
// @Summary      Explicación del match
// @Tags         pets
// @Produce      json
// @Param        petID  path      string  true  "Pet ID"
// @Success      200    {object}  explanationResponse
// @Failure      404    {object}  explanationResponse
// @Router       /pets/{petID}/match [get]
func describeHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ex, err := svc.Describe(r.Context(), viewer, chi.URLParam(r, "petID"))

		resp := explanationResponse{
			Percent:     ex.Result.Percent,
			RawScore:    ex.Result.Raw,
			MaxScore:    match.MaxScore,
			Breakdown:   ex.Result.Breakdown,
			Explanation: ex.Text,
		}
		if resp.Breakdown == nil {
			resp.Breakdown = []match.FieldScore{}
		}
		if ex.Pet != nil {
			p := pets.ToResponse(*ex.Pet)
			resp.Pet = &p
		}

		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, resp)
			return
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// recommendationsHandler godoc
// @Summary      Recomendaciones del adoptante
// @Description  Hasta 8 listados activos, sin los ya solicitados. Sin quiz: sin puntaje.
// @Tags         recommendations
// @Produce      json
// @Success      200  {array}   recommendationResponse
// @Failure      503  {object}  map[string]string
// @Router       /me/recommendations [get]
func recommendationsHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ForViewer(r.Context(), viewer)
		if err != nil {
			writeError(w, err, "failed to load recommendations")
			return
		}

		out := make([]recommendationResponse, 0, len(items))
		for _, it := range items {
			rr := recommendationResponse{PetResponse: pets.ToResponse(it.Pet)}
			if it.Scored {
				raw, pct := it.Raw, it.Percent
				rr.MatchScore = &raw
				rr.MatchPercent = &pct
			}
			out = append(out, rr)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, err error, loadMsg string) {
	switch {
	case errors.Is(err, live.ErrLoadFailed):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": loadMsg})
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
