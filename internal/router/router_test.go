package router_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pet-adoption-marketplace/internal/config"
	"pet-adoption-marketplace/internal/router"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	h, shutdown := router.NewRouter(router.Options{Config: config.Config{SwaggerEnabled: true}})
	ts := httptest.NewServer(h)
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	})
	return ts
}

func TestHTTP_EndToEnd_AdoptionFlow(t *testing.T) {
	ts := newServer(t)

	shelterID := "shelter-1"
	adopterID := "adopter-1"

	// 1) Perfiles
	{
		st, body := doReq(t, ts.URL, "PUT", "/me", shelterID, map[string]any{
			"role":           "shelter",
			"shelterProfile": map[string]any{"companyName": "Happy Tails"},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 save shelter profile, got %d body=%s", st, string(body))
		}
		st, body = doReq(t, ts.URL, "PUT", "/me/preferences", adopterID, map[string]any{
			"animalType": "Dog",
			"size":       "small",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 save preferences, got %d body=%s", st, string(body))
		}
	}

	// 2) El refugio publica dos mascotas
	rexID := createPet(t, ts.URL, shelterID, map[string]any{"name": "Rex", "animalType": "Dog", "size": "small"})
	createPet(t, ts.URL, shelterID, map[string]any{"name": "Mia", "animalType": "Cat", "size": "large"})

	// 3) El adoptante no puede publicar
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets", adopterID, map[string]any{"name": "Nope"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 create pet by adopter, got %d", st)
		}
	}

	// 4) Recomendaciones: Rex primero
	{
		st, body := doReq(t, ts.URL, "GET", "/me/recommendations", adopterID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 recommendations, got %d body=%s", st, string(body))
		}
		var recs []struct {
			ID           string `json:"id"`
			MatchPercent *int   `json:"matchPercent"`
		}
		_ = json.Unmarshal(body, &recs)
		if len(recs) != 2 || recs[0].ID != rexID || recs[0].MatchPercent == nil || *recs[0].MatchPercent != 100 {
			t.Fatalf("unexpected recommendations: %s", string(body))
		}
	}

	// 5) Browse con onlyMatches
	{
		st, body := doReq(t, ts.URL, "GET", "/pets?onlyMatches=true", adopterID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 browse, got %d body=%s", st, string(body))
		}
		var items []struct {
			ID          string `json:"id"`
			ShelterName string `json:"shelterName"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != rexID || items[0].ShelterName != "Happy Tails" {
			t.Fatalf("unexpected browse result: %s", string(body))
		}
	}

	// 6) Solicitud (y duplicada)
	var appID string
	{
		st, body := doReq(t, ts.URL, "POST", "/applications", adopterID, map[string]any{"petId": rexID, "message": "hola"})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 submit, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		appID = resp.ID

		st, _ = doReq(t, ts.URL, "POST", "/applications", adopterID, map[string]any{"petId": rexID})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate submit, got %d", st)
		}
	}

	// 7) Tablero del refugio
	{
		st, body := doReq(t, ts.URL, "GET", "/shelter/applications", shelterID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 board, got %d body=%s", st, string(body))
		}
		var board struct {
			Active []struct {
				PetID        string `json:"petId"`
				Applications []struct {
					MatchPercent int `json:"matchPercent"`
				} `json:"applications"`
			} `json:"active"`
		}
		_ = json.Unmarshal(body, &board)
		if len(board.Active) != 1 || board.Active[0].PetID != rexID || board.Active[0].Applications[0].MatchPercent != 100 {
			t.Fatalf("unexpected board: %s", string(body))
		}

		st, _ = doReq(t, ts.URL, "GET", "/shelter/applications", adopterID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 board for adopter, got %d", st)
		}
	}

	// 8) Solo el refugio aprueba
	{
		st, _ := doReq(t, ts.URL, "POST", "/applications/"+appID+"/approve", adopterID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approve by adopter, got %d", st)
		}
		st, body := doReq(t, ts.URL, "POST", "/applications/"+appID+"/approve", shelterID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "POST", "/applications/"+appID+"/approve", shelterID, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 approve twice, got %d", st)
		}
	}

	// 9) La mascota quedó adoptada
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+rexID, adopterID, nil)
		var p struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &p)
		if st != http.StatusOK || p.Status != "adopted" {
			t.Fatalf("expected adopted pet, got %d body=%s", st, string(body))
		}
	}

	// 10) El aviso al thread es asíncrono
	{
		deadline := time.Now().Add(3 * time.Second)
		for {
			st, body := doReq(t, ts.URL, "GET", "/me/threads", adopterID, nil)
			var threads []struct {
				AdoptionClosed bool `json:"adoptionClosed"`
			}
			_ = json.Unmarshal(body, &threads)
			if st == http.StatusOK && len(threads) == 1 && threads[0].AdoptionClosed {
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("thread not closed in time: %d body=%s", st, string(body))
			}
			time.Sleep(20 * time.Millisecond)
		}
	}

	// 11) Estadísticas del adoptante
	{
		st, body := doReq(t, ts.URL, "GET", "/me/applications", adopterID, nil)
		var resp struct {
			Stats struct {
				Submitted int `json:"submitted"`
				Approved  int `json:"approved"`
			} `json:"stats"`
		}
		_ = json.Unmarshal(body, &resp)
		if st != http.StatusOK || resp.Stats.Submitted != 0 || resp.Stats.Approved != 1 {
			t.Fatalf("unexpected stats: %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_PublicEndpoints(t *testing.T) {
	ts := newServer(t)

	for _, path := range []string{"/health", "/metrics", "/catalog/types", "/catalog/sizes", "/swagger/doc.json"} {
		st, body := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d body=%s", path, st, string(body))
		}
	}

	st, _ := doReq(t, ts.URL, "GET", "/me", "", nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", st)
	}
}

func TestHTTP_SelfServiceCannotBecomeAdmin(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "PUT", "/me", "mallory", map[string]any{"role": "admin"})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 self-assigning admin, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "PUT", "/me", "mallory", map[string]any{"role": "shelter"})
	if st != http.StatusOK {
		t.Fatalf("expected 200 choosing shelter, got %d body=%s", st, string(body))
	}
	st, body = doReq(t, ts.URL, "PUT", "/me", "mallory", map[string]any{"role": "adopter"})
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 switching stored role, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/me", "mallory", nil)
	if st != http.StatusOK || !strings.Contains(string(body), `"role":"shelter"`) {
		t.Fatalf("expected role shelter, got %d body=%s", st, string(body))
	}
}

func TestHTTP_InboxStream(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "PUT", "/me", "shelter-1", map[string]any{
		"role":           "shelter",
		"shelterProfile": map[string]any{"companyName": "Happy Tails"},
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 save shelter profile, got %d body=%s", st, string(body))
	}

	petID := createPet(t, ts.URL, "shelter-1", map[string]any{"name": "Rex", "animalType": "Dog"})
	threadID := petID + "_adopter-1_shelter-1"
	st, body = doReq(t, ts.URL, "POST", "/threads/"+threadID+"/messages", "adopter-1", map[string]any{"text": "hola"})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 post message, got %d body=%s", st, string(body))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/me/threads/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Debug-User-ID", "adopter-1")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	// primer evento: la vista completa del inbox
	sc := bufio.NewScanner(resp.Body)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
		if event != "" && data != "" {
			break
		}
	}
	if event != "threads" || !strings.Contains(data, threadID) || !strings.Contains(data, "hola") {
		t.Fatalf("unexpected first event %q data=%s", event, data)
	}
}

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}
