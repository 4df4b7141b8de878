package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/types", typesHandler(svc))
		r.Get("/types/{animalType}/breeds", breedsHandler(svc))
		r.Get("/colors", staticHandler(svc.Colors))
		r.Get("/ages", staticHandler(svc.Ages))
		r.Get("/genders", staticHandler(svc.Genders))
		r.Get("/sizes", staticHandler(svc.Sizes))
		r.Get("/environments", staticHandler(svc.Environments))
		r.Get("/attributes", staticHandler(svc.Attributes))
	})
}

// typesHandler godoc
// @Summary      Tipos de animal
// @Description  Desde el proveedor de metadata (cacheado); lista fija si no responde.
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  string
// @Router       /catalog/types [get]
func typesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Types(r.Context()))
	}
}

// breedsHandler godoc
// @Summary      Razas de un tipo
// @Tags         catalog
// @Produce      json
// @Param        animalType  path     string  true  "Tipo (Dog, Cat, ...)"
// @Success      200         {array}  string
// @Router       /catalog/types/{animalType}/breeds [get]
func breedsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Breeds(r.Context(), chi.URLParam(r, "animalType")))
	}
}

func staticHandler(list func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, list())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
