package users

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pet-adoption-marketplace/internal/middleware"
	"pet-adoption-marketplace/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

type testRepo struct {
	mu    sync.Mutex
	items map[string]User
}

func newTestRepo(seed ...User) *testRepo {
	r := &testRepo{items: map[string]User{}}
	for _, u := range seed {
		r.items[u.UID] = u
	}
	return r
}

func (r *testRepo) Upsert(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[u.UID] = u
	return nil
}

func (r *testRepo) GetByID(_ context.Context, uid string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[uid]
	if !ok {
		return User{}, errMissing
	}
	return u, nil
}

func newTestService(seed ...User) *Service {
	s := NewService(newTestRepo(seed...))
	s.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestHydrate(t *testing.T) {
	s := newTestService(User{UID: "s1", Role: RoleShelter, DisplayName: "Happy Tails"})
	ctx := context.Background()

	u, err := s.Hydrate(ctx, auth.Claims{UserID: "s1", Email: "s1@x.io", Role: "admin"})
	require.NoError(t, err)
	// el perfil guardado manda sobre el rol del token
	assert.Equal(t, RoleShelter, u.Role)
	assert.Equal(t, "s1@x.io", u.Email)

	u, err = s.Hydrate(ctx, auth.Claims{UserID: "new"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdopter, u.Role)
	assert.True(t, u.CreatedAt.IsZero())

	_, err = s.Hydrate(ctx, auth.Claims{UserID: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCurrent_NoClaims(t *testing.T) {
	s := newTestService()
	_, err := s.Current(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	ctx := middleware.WithClaims(context.Background(), auth.Claims{UserID: "u1", Role: "shelter"})
	u, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, RoleShelter, u.Role)
}

func TestSaveProfile_Merges(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	u, err := s.SaveProfile(ctx, "u1", ProfileInput{Email: "a@x.io", Role: "Shelter"})
	require.NoError(t, err)
	assert.Equal(t, RoleShelter, u.Role)

	u, err = s.SaveProfile(ctx, "u1", ProfileInput{ShelterProfile: &ShelterProfile{CompanyName: "Paws"}})
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", u.Email)
	assert.Equal(t, "Paws", u.ShelterLabel())

	_, err = s.SaveProfile(ctx, "u1", ProfileInput{Role: "superuser"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveProfile_RoleRules(t *testing.T) {
	s := newTestService(
		User{UID: "a1", Role: RoleAdopter, AdopterProfile: &AdopterProfile{Name: "Ana"}},
		User{UID: "root", Role: RoleAdmin},
	)
	ctx := context.Background()

	// nadie se da admin a sí mismo
	_, err := s.SaveProfile(ctx, "mallory", ProfileInput{Role: "admin"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.SaveProfile(ctx, "a1", ProfileInput{Role: "ADMIN"})
	assert.ErrorIs(t, err, ErrForbidden)

	// el rol guardado no se cambia por autoservicio
	_, err = s.SaveProfile(ctx, "a1", ProfileInput{Role: "shelter"})
	assert.ErrorIs(t, err, ErrForbidden)
	u, err := s.SaveProfile(ctx, "a1", ProfileInput{Role: "adopter", DisplayName: "Ana P"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdopter, u.Role)

	stored, err := s.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, RoleAdopter, stored.Role)

	// primera elección
	u, err = s.SaveProfile(ctx, "s9", ProfileInput{Role: "shelter"})
	require.NoError(t, err)
	assert.Equal(t, RoleShelter, u.Role)

	u, err = s.SaveProfile(ctx, "root", ProfileInput{Role: "shelter"})
	require.NoError(t, err)
	assert.Equal(t, RoleShelter, u.Role)
}

func TestSavePreferences_ReplacesSet(t *testing.T) {
	s := newTestService(User{UID: "u1", Role: RoleAdopter, Preferences: &Preferences{Breed: StrPtr("Beagle")}})
	ctx := context.Background()

	u, err := s.SavePreferences(ctx, "u1", Preferences{Size: StrPtr("small")})
	require.NoError(t, err)
	require.NotNil(t, u.Preferences)
	assert.Nil(t, u.Preferences.Breed)
	assert.Equal(t, "small", *u.Preferences.Size)
	assert.False(t, u.Preferences.IsEmpty())
}

func TestPreferences_EmptyVsBlank(t *testing.T) {
	var nilPrefs *Preferences
	assert.True(t, nilPrefs.IsEmpty())
	assert.True(t, (&Preferences{}).IsEmpty())

	blank := &Preferences{Breed: StrPtr("  ")}
	assert.False(t, blank.IsEmpty())
	assert.False(t, blank.HasValues())

	legacy := &Preferences{Age: StrPtr("Young")}
	assert.Equal(t, "Young", legacy.AgePreference())
	legacy.AgeRange = StrPtr("adult")
	assert.Equal(t, "adult", legacy.AgePreference())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Adopter", User{}.AdopterLabel())
	assert.Equal(t, "Shelter", User{}.ShelterLabel())
	assert.Equal(t, "ana@x.io", User{Email: "ana@x.io"}.AdopterLabel())
	assert.Equal(t, "Ana", User{Email: "ana@x.io", AdopterProfile: &AdopterProfile{Name: "Ana"}}.AdopterLabel())
	assert.Equal(t, RoleAdopter, ParseRole("whatever"))
	assert.Equal(t, "(Unknown User)", Role("x").Label())
}

func TestHandlers(t *testing.T) {
	s := newTestService()
	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	RegisterRoutes(r, s)

	do := func(method, path, body string, uid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if uid != "" {
			req.Header.Set(middleware.DebugUserHeader, uid)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/me", "", "").Code)

	rec := do(http.MethodPut, "/me", `{"role":"shelter","shelterProfile":{"companyName":"Paws"}}`, "s1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"shelter"`)

	rec = do(http.MethodPut, "/me", `{"role":"king"}`, "s1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPut, "/me", `{"role":"admin"}`, "mallory")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(http.MethodPut, "/me", `{"role":"adopter"}`, "s1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(http.MethodPut, "/me/preferences", `{"animalType":"Dog","breed":""}`, "u2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"breed":""`)

	rec = do(http.MethodGet, "/me", "", "u2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"animalType":"Dog"`)
}
