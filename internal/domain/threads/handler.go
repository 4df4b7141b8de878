package threads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
	"pet-adoption-marketplace/internal/live"

	"github.com/gin-contrib/sse"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service, usersSvc *users.Service) {
	r.Post("/threads", openThreadHandler(svc, petsSvc, usersSvc))
	r.Get("/threads/{threadID}", getThreadHandler(svc, usersSvc))
	r.Get("/threads/{threadID}/messages", listMessagesHandler(svc, usersSvc))
	r.Post("/threads/{threadID}/messages", postMessageHandler(svc, usersSvc))

	// Inbox del usuario (adopter + shelter side; admin todos)
	r.Get("/me/threads", inboxHandler(svc, usersSvc))
	r.Get("/me/threads/stream", streamInboxHandler(svc, usersSvc))
}

type openThreadRequest struct {
	PetID string `json:"petId"`
	// AdopterID es obligatorio si abre el refugio; si abre el adoptante se usa su uid.
	AdopterID string `json:"adopterId"`
}

type postMessageRequest struct {
	Text string `json:"text"`
}

type threadResponse struct {
	ID                 string     `json:"id"`
	PetID              string     `json:"petId"`
	PetName            string     `json:"petName,omitempty"`
	AdopterID          string     `json:"adopterId"`
	AdopterName        string     `json:"adopterName,omitempty"`
	ShelterID          string     `json:"shelterId"`
	ShelterName        string     `json:"shelterName,omitempty"`
	LastMessage        string     `json:"lastMessage"`
	LastMessageAt      time.Time  `json:"lastMessageAt"`
	LastSenderID       string     `json:"lastSenderId"`
	AdoptionClosed     bool       `json:"adoptionClosed"`
	AdoptionClosedAt   *time.Time `json:"adoptionClosedAt,omitempty"`
	AdoptionReopenedAt *time.Time `json:"adoptionReopenedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"createdAt"`
}

// openThreadHandler godoc
// @Summary      Abrir conversación
// @Description  Crea (o mezcla) el thread determinístico pet/adopter/shelter.
// @Tags         threads
// @Accept       json
// @Produce      json
// @Param        body  body      openThreadRequest  true  "Pet y adoptante"
// @Success      200   {object}  threadResponse
// @Failure      400   {string}  string
// @Failure      403   {string}  string
// @Failure      404   {string}  string
// @Router       /threads [post]
func openThreadHandler(svc *Service, petsSvc *pets.Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req openThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		pet, err := petsSvc.GetByID(r.Context(), req.PetID)
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}

		adopterID := strings.TrimSpace(req.AdopterID)
		if adopterID == "" {
			adopterID = viewer.UID
		}

		p := Patch{
			Key:     Key{PetID: pet.ID, AdopterID: adopterID, ShelterID: pet.ShelterID},
			PetName: pet.Name,
		}
		// nombres best-effort: si no hay perfil el thread igual se abre
		if u, err := usersSvc.GetByID(r.Context(), adopterID); err == nil {
			p.AdopterName = u.AdopterLabel()
		}
		if u, err := usersSvc.GetByID(r.Context(), pet.ShelterID); err == nil {
			p.ShelterName = u.ShelterLabel()
		}

		t, err := svc.Open(r.Context(), viewer, p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toThreadResponse(t))
	}
}

// getThreadHandler godoc
// @Summary      Ver conversación
// @Tags         threads
// @Produce      json
// @Param        threadID  path      string  true  "Thread ID"
// @Success      200       {object}  threadResponse
// @Router       /threads/{threadID} [get]
func getThreadHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		t, err := svc.Get(r.Context(), viewer, chi.URLParam(r, "threadID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toThreadResponse(t))
	}
}

// listMessagesHandler godoc
// @Summary      Mensajes de una conversación
// @Description  Orden cronológico ascendente.
// @Tags         threads
// @Produce      json
// @Param        threadID  path     string  true  "Thread ID"
// @Success      200       {array}  messageResponse
// @Router       /threads/{threadID}/messages [get]
func listMessagesHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListMessages(r.Context(), viewer, chi.URLParam(r, "threadID"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]messageResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMessageResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// postMessageHandler godoc
// @Summary      Enviar mensaje
// @Tags         threads
// @Accept       json
// @Produce      json
// @Param        threadID  path      string              true  "Thread ID"
// @Param        body      body      postMessageRequest  true  "Texto"
// @Success      201       {object}  messageResponse
// @Router       /threads/{threadID}/messages [post]
func postMessageHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req postMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.PostMessage(r.Context(), viewer, chi.URLParam(r, "threadID"), req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMessageResponse(m))
	}
}

// inboxHandler godoc
// @Summary      Mis conversaciones
// @Description  Unión de threads como adoptante y como refugio, lastMessageAt desc.
// @Tags         threads
// @Produce      json
// @Success      200  {array}   threadResponse
// @Failure      503  {object}  map[string]string
// @Router       /me/threads [get]
func inboxHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Inbox(r.Context(), viewer)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "failed to load conversations"})
			return
		}
		writeJSON(w, http.StatusOK, toThreadResponses(items))
	}
}

// streamInboxHandler godoc
// @Summary      Inbox en vivo (SSE)
// @Description  Evento "threads" con la vista completa en cada cambio; "error" si la carga falla.
// @Tags         threads
// @Produce      text/event-stream
// @Router       /me/threads/stream [get]
func streamInboxHandler(svc *Service, usersSvc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := usersSvc.Current(r.Context())
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", sse.ContentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		_ = rc.Flush()

		// los callbacks solo marcan "hay cambios"; la vista se lee al escribir
		var (
			mu     sync.Mutex
			failed error
		)
		changed := make(chan struct{}, 1)
		view, stop := svc.WatchInbox(viewer, func(st live.Status) {
			if st.State == live.StateFailed {
				mu.Lock()
				failed = st.Err
				mu.Unlock()
			}
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		defer stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-changed:
			}

			mu.Lock()
			ferr := failed
			mu.Unlock()
			if ferr != nil {
				_ = sse.Encode(w, sse.Event{Event: "error", Data: map[string]string{"error": "failed to load conversations"}})
				_ = rc.Flush()
				return
			}

			if err := sse.Encode(w, sse.Event{Event: "threads", Data: toThreadResponses(view())}); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func toThreadResponse(t Thread) threadResponse {
	return threadResponse{
		ID:                 t.ID,
		PetID:              t.PetID,
		PetName:            t.PetName,
		AdopterID:          t.AdopterID,
		AdopterName:        t.AdopterName,
		ShelterID:          t.ShelterID,
		ShelterName:        t.ShelterName,
		LastMessage:        t.LastMessage,
		LastMessageAt:      t.LastMessageAt,
		LastSenderID:       t.LastSenderID,
		AdoptionClosed:     t.AdoptionClosed,
		AdoptionClosedAt:   t.AdoptionClosedAt,
		AdoptionReopenedAt: t.AdoptionReopenedAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func toThreadResponses(items []Thread) []threadResponse {
	out := make([]threadResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toThreadResponse(t))
	}
	return out
}

func toMessageResponse(m Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		System:    m.IsSystem(),
		CreatedAt: m.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrAmbiguousID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "thread not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
