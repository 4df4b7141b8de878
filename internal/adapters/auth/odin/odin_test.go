package odin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tokens/verify" || r.Header.Get("X-Api-Key") != "k" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch body.Token {
		case "good":
			_ = json.NewEncoder(w).Encode(map[string]string{"user_id": " u1 ", "email": "ana@x.io", "role": "Shelter"})
		case "down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
}

func TestVerifier(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "k"})
	require.NoError(t, err)
	v := NewVerifier(c, nil)
	ctx := context.Background()

	claims, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "shelter", claims.Role)

	_, err = v.Verify(ctx, "bad")
	assert.ErrorIs(t, err, ErrOdinUnauthorized)

	_, err = v.Verify(ctx, "down")
	assert.ErrorIs(t, err, ErrOdinUpstream)

	_, err = v.Verify(ctx, "  ")
	assert.ErrorIs(t, err, ErrTokenEmpty)
}

func TestClient_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.False(t, c.IsConfigured())

	_, err = c.VerifyToken(context.Background(), "x")
	assert.ErrorIs(t, err, ErrOdinNotConfigured)
}
