package recommend

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-marketplace/internal/domain/applications"
	"pet-adoption-marketplace/internal/domain/match"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
)

var s = users.StrPtr

func fullPrefs() *users.Preferences {
	return &users.Preferences{
		AnimalType:  s("Dog"),
		Size:        s("Medium"),
		Temperament: s("Calm"),
		AgeRange:    s("Adult"),
		Breed:       s("Lab"),
		Gender:      s("Male"),
		Color:       s("Black"),
	}
}

func petIDs(items []Annotated) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.Pet.ID)
	}
	return out
}

func TestRecommend_NoPreferencesKeepsInputOrder(t *testing.T) {
	all := make([]pets.Pet, 0, 10)
	for i := range 10 {
		all = append(all, pets.Pet{ID: fmt.Sprintf("p%d", i), AnimalType: "Cat", Status: pets.StatusActive})
	}

	got := Recommend(all, nil, nil, DefaultLimit)
	assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}, petIDs(got))
	for _, a := range got {
		assert.False(t, a.Scored)
		assert.Zero(t, a.Percent)
	}

	// objeto sin claves cuenta como ausente
	got = Recommend(all, &users.Preferences{}, nil, 3)
	assert.Equal(t, []string{"p0", "p1", "p2"}, petIDs(got))
}

func TestRecommend_FloorAndOrder(t *testing.T) {
	prefs := fullPrefs()
	all := []pets.Pet{
		// breed + gender = 15 -> 10%
		{ID: "low", AnimalType: "Cat", Size: "Giant", Temperament: "Shy", AgeRange: "Old", Breed: "Lab", Gender: "Male", Color: "White"},
		// temperament + breed + gender + color = 45 -> 31%
		{ID: "mid", AnimalType: "Cat", Size: "Giant", Temperament: "Calm", AgeRange: "Old", Breed: "Lab", Gender: "Male", Color: "Black"},
		// type + size + breed = 85 -> 59%
		{ID: "good", AnimalType: "Dog", Size: "Medium", Temperament: "Shy", AgeRange: "Old", Breed: "Lab", Gender: "Female", Color: "White"},
		// todo salvo breed y gender = 130 -> 90%
		{ID: "best", AnimalType: "Dog", Size: "Medium", Temperament: "Calm", AgeRange: "Adult", Breed: "Poodle", Gender: "Female", Color: "Black"},
	}

	want := map[string]int{"low": 10, "mid": 31, "good": 59, "best": 90}
	for _, p := range all {
		require.Equal(t, want[p.ID], match.ToPercent(match.Score(p, prefs)), p.ID)
	}

	got := Recommend(all, prefs, nil, DefaultLimit)
	assert.Equal(t, []string{"best", "good", "mid"}, petIDs(got))
	assert.Equal(t, []int{90, 59, 31}, []int{got[0].Percent, got[1].Percent, got[2].Percent})
	assert.True(t, got[0].Scored)
}

func TestRecommend_SkipsInactiveAndExcluded(t *testing.T) {
	all := []pets.Pet{
		{ID: "a", Status: pets.StatusActive},
		{ID: "b", Status: ""},
		{ID: "c", Status: pets.StatusAdopted},
		{ID: "d", Status: pets.StatusInactive},
		{ID: "e", Status: pets.StatusActive},
	}
	got := Recommend(all, nil, map[string]struct{}{"e": {}}, 0)
	assert.Equal(t, []string{"a", "b"}, petIDs(got))
	assert.Len(t, all, 5, "no muta la entrada")
}

func TestRecommend_TiesKeepInputOrder(t *testing.T) {
	prefs := &users.Preferences{AnimalType: s("Dog")}
	all := []pets.Pet{
		{ID: "x", AnimalType: "dog"},
		{ID: "y", AnimalType: "Cat"},
		{ID: "z", AnimalType: " DOG "},
	}
	got := Recommend(all, prefs, nil, DefaultLimit)
	assert.Equal(t, []string{"x", "z", "y"}, petIDs(got))
}

func TestBrowse_FiltersAndSort(t *testing.T) {
	all := []pets.Pet{
		{ID: "old", Name: "Rex", AnimalType: "Dog", Breed: "Lab", Color: "Black", CreatedAt: time.Unix(100, 0)},
		{ID: "new", Name: "Mia", Species: "Cat", Color: "White", CreatedAt: time.Unix(300, 0)},
		{ID: "mid", Name: "Bo", AnimalType: "Dog", Breed: "Poodle", CreatedAt: time.Unix(200, 0)},
		{ID: "gone", Name: "Max", AnimalType: "Dog", Status: pets.StatusAdopted, CreatedAt: time.Unix(400, 0)},
	}
	anon := users.User{}

	got := Browse(all, anon, Filter{Sort: SortNew})
	assert.Equal(t, []string{"new", "mid", "old"}, petIDs(got))

	got = Browse(all, anon, Filter{Type: "dog"})
	assert.ElementsMatch(t, []string{"old", "mid"}, petIDs(got))

	got = Browse(all, anon, Filter{Type: "cat"})
	assert.Equal(t, []string{"new"}, petIDs(got), "species como alias de tipo")

	got = Browse(all, anon, Filter{Search: "poo"})
	assert.Equal(t, []string{"mid"}, petIDs(got))

	got = Browse(all, anon, Filter{Search: "black"})
	assert.Equal(t, []string{"old"}, petIDs(got))
}

func TestBrowse_OnlyMatchesAppliesToAdopters(t *testing.T) {
	all := []pets.Pet{
		{ID: "dog", AnimalType: "Dog", Size: "Medium", Temperament: "Calm", AgeRange: "Adult", Breed: "Lab", Gender: "Male", Color: "Black"},
		{ID: "cat", AnimalType: "Cat"},
		{ID: "bird", AnimalType: "Bird", Size: "Tiny", Temperament: "Loud", AgeRange: "Old", Breed: "Parrot", Gender: "Female", Color: "Green"},
	}
	prefs := fullPrefs()

	adopter := users.User{Role: users.RoleAdopter, Preferences: prefs}
	got := Browse(all, adopter, Filter{OnlyMatches: true})
	assert.Equal(t, []string{"dog"}, petIDs(got))
	assert.Equal(t, 100, got[0].Percent)

	shelter := users.User{Role: users.RoleShelter, Preferences: prefs}
	got = Browse(all, shelter, Filter{OnlyMatches: true})
	assert.Len(t, got, 3)
	assert.Equal(t, "bird", got[2].Pet.ID, "orden por match desc")
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortNew, ParseSort(" NEW "))
	assert.Equal(t, SortMatch, ParseSort(""))
	assert.Equal(t, SortMatch, ParseSort("whatever"))
}

// ---- service ----

type testPets struct {
	items []pets.Pet
}

func (p testPets) Catalog(ctx context.Context) ([]pets.Pet, error) { return p.items, nil }

func (p testPets) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	for _, x := range p.items {
		if x.ID == id {
			return x, nil
		}
	}
	return pets.Pet{}, pets.ErrNotFound
}

type testApps map[string][]applications.Application

func (a testApps) ListMine(ctx context.Context, viewer users.User) ([]applications.Application, error) {
	return a[viewer.UID], nil
}

type testUsers map[string]users.User

func (u testUsers) GetByID(ctx context.Context, uid string) (users.User, error) {
	v, ok := u[uid]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return v, nil
}

func newTestService() *Service {
	catalog := testPets{items: []pets.Pet{
		{ID: "p1", ShelterID: "s1", AnimalType: "Dog"},
		{ID: "p2", ShelterID: "s1", AnimalType: "Dog"},
		{ID: "p3", ShelterID: "s2", AnimalType: "Cat"},
	}}
	apps := testApps{"u1": {{PetID: "p2", ApplicantID: "u1"}}}
	dir := testUsers{"s1": {UID: "s1", ShelterProfile: &users.ShelterProfile{CompanyName: "Happy Tails"}}}
	return NewService(catalog, apps, dir, nil)
}

func TestService_ForViewerExcludesApplied(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	adopter := users.User{UID: "u1", Role: users.RoleAdopter, Preferences: &users.Preferences{AnimalType: s("Dog")}}
	got, err := svc.ForViewer(ctx, adopter)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, petIDs(got))

	got, err = svc.ForViewer(ctx, users.User{UID: "s1", Role: users.RoleShelter})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_BrowseResolvesShelterNames(t *testing.T) {
	svc := newTestService()

	got, err := svc.Browse(context.Background(), users.User{}, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	names := map[string]string{}
	for _, l := range got {
		names[l.Pet.ID] = l.ShelterName
	}
	assert.Equal(t, "Happy Tails", names["p1"])
	assert.Equal(t, "Shelter", names["p3"])
}

func TestService_Describe(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	viewer := users.User{Preferences: &users.Preferences{AnimalType: s("Dog")}}

	ex, err := svc.Describe(ctx, viewer, "p1")
	require.NoError(t, err)
	require.NotNil(t, ex.Pet)
	assert.Equal(t, 100, ex.Result.Percent)
	assert.Contains(t, ex.Text, "Match score: 145 pts (100%) of 145")

	ex, err = svc.Describe(ctx, viewer, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, match.MsgListingUnavailable, ex.Text)

	ex, err = svc.Describe(ctx, users.User{}, "p1")
	require.NoError(t, err)
	assert.Equal(t, match.MsgNoPreferences, ex.Text)
}
