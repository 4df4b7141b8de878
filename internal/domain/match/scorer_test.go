package match

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/users"
)

var s = users.StrPtr

func fullPet() pets.Pet {
	return pets.Pet{
		ID:          "pet-1",
		AnimalType:  "Dog",
		Size:        "Large",
		Temperament: "Calm",
		AgeRange:    "Adult",
		Breed:       "Mixed",
		Gender:      "Male",
		Color:       "Black",
		Status:      pets.StatusActive,
	}
}

func fieldPoints(t *testing.T, res Result, label string) float64 {
	t.Helper()
	for _, fs := range res.Breakdown {
		if fs.Label == label {
			return fs.Points
		}
	}
	t.Fatalf("field %q not in breakdown", label)
	return 0
}

func TestScore_NilOrKeylessPreferences_IsZero(t *testing.T) {
	assert.Equal(t, 0.0, Score(fullPet(), nil))
	assert.Equal(t, 0.0, Score(fullPet(), &users.Preferences{}))
	assert.Equal(t, 0, ToPercent(Score(fullPet(), &users.Preferences{})))
}

func TestScore_AllKeysPresentButBlank_IsFullScore(t *testing.T) {
	prefs := &users.Preferences{
		AnimalType:  s(""),
		Breed:       s(""),
		Size:        s(""),
		Temperament: s(""),
		AgeRange:    s(""),
		Gender:      s(""),
		Color:       s(""),
	}

	// Incluso con un listado sin atributos: "sin preferencia" siempre suma.
	for _, p := range []pets.Pet{fullPet(), {}} {
		got := Score(p, prefs)
		assert.Equal(t, MaxScore, got)
		assert.Equal(t, 100, ToPercent(got))
	}
}

func TestScore_EndToEndScenario(t *testing.T) {
	prefs := &users.Preferences{
		AnimalType:  s("Dog"),
		Size:        s("Large"),
		Temperament: s("Calm"),
		AgeRange:    s("Adult"),
	}

	got := Score(fullPet(), prefs)
	assert.Equal(t, 145.0, got)
	assert.Equal(t, 100, ToPercent(got))
}

func TestEvaluate_Breakdown(t *testing.T) {
	prefs := &users.Preferences{
		AnimalType: s(" dog "),
		Size:       s("Medium"),
		Breed:      s("Lab"),
		Color:      s("black"),
	}

	want := Result{
		Raw:     122.5,
		Percent: 84,
		Breakdown: []FieldScore{
			{Label: "Type", Weight: 50, Points: 50, Outcome: OutcomeExact, Pref: "dog", PetVal: "Dog"},
			{Label: "Size", Weight: 25, Points: 12.5, Outcome: OutcomeClose, Pref: "Medium", PetVal: "Large"},
			{Label: "Temperament", Weight: 25, Points: 25, Outcome: OutcomeNoPreference, PetVal: "Calm"},
			{Label: "Age", Weight: 25, Points: 25, Outcome: OutcomeNoPreference, PetVal: "Adult"},
			{Label: "Breed", Weight: 10, Points: 0, Outcome: OutcomeMismatch, Pref: "Lab", PetVal: "Mixed"},
			{Label: "Gender", Weight: 5, Points: 5, Outcome: OutcomeNoPreference, PetVal: "Male"},
			{Label: "Color", Weight: 5, Points: 5, Outcome: OutcomeExact, Pref: "black", PetVal: "Black"},
		},
	}

	if diff := cmp.Diff(want, Evaluate(fullPet(), prefs)); diff != "" {
		t.Fatalf("Evaluate mismatch (-want +got):\n%s", diff)
	}
}

func TestScore_TypeExactMatch_IgnoresCaseAndWhitespace(t *testing.T) {
	for _, petType := range []string{"Dog", "dog", " dog ", "DOG"} {
		p := pets.Pet{AnimalType: petType}
		res := Evaluate(p, &users.Preferences{AnimalType: s("Dog")})
		assert.Equal(t, 50.0, fieldPoints(t, res, "Type"), "pet type %q", petType)
	}
}

func TestScore_TypeFallsBackToSpecies(t *testing.T) {
	res := Evaluate(pets.Pet{Species: "Cat"}, &users.Preferences{AnimalType: s("cat")})
	assert.Equal(t, 50.0, fieldPoints(t, res, "Type"))
}

func TestScore_SizeAdjacency(t *testing.T) {
	cases := []struct {
		pref, pet string
		want      float64
	}{
		{"Medium", "Large", 12.5},
		{"Medium", "Small", 12.5},
		{"Medium", "Extra Large", 0},
		{"Medium", "medium", 25},
		{"Large", "extra large", 12.5},
		{"Small", "Large", 0},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_vs_%s", tc.pref, tc.pet), func(t *testing.T) {
			res := Evaluate(pets.Pet{Size: tc.pet}, &users.Preferences{Size: s(tc.pref)})
			assert.Equal(t, tc.want, fieldPoints(t, res, "Size"))
		})
	}
}

func TestScore_AgeAdjacency_UsesLegacyAliases(t *testing.T) {
	res := Evaluate(pets.Pet{Age: "Young"}, &users.Preferences{Age: s("baby")})
	assert.Equal(t, 12.5, fieldPoints(t, res, "Age"))

	res = Evaluate(pets.Pet{AgeRange: "Senior"}, &users.Preferences{AgeRange: s("Baby")})
	assert.Equal(t, 0.0, fieldPoints(t, res, "Age"))
}

func TestScore_UnorderedFieldsNeverPartialMatch(t *testing.T) {
	res := Evaluate(pets.Pet{Temperament: "Playful", Color: "Black"}, &users.Preferences{
		Temperament: s("Calm"),
		Color:       s("Blackish"),
	})
	assert.Equal(t, 0.0, fieldPoints(t, res, "Temperament"))
	assert.Equal(t, 0.0, fieldPoints(t, res, "Color"))
}

func TestScore_MissingPetValue_GivesZero(t *testing.T) {
	res := Evaluate(pets.Pet{}, &users.Preferences{Breed: s("Beagle")})
	assert.Equal(t, 0.0, fieldPoints(t, res, "Breed"))
	assert.Equal(t, OutcomeMissing, res.Breakdown[4].Outcome)
	// el resto de campos sin preferencia suma completo
	assert.Equal(t, MaxScore-WeightBreed, res.Raw)
}

func TestScore_WhitespacePreferenceIsAValue(t *testing.T) {
	res := Evaluate(fullPet(), &users.Preferences{Breed: s("  "), AgeRange: s(" "), Age: s("Adult")})

	assert.Equal(t, 0.0, fieldPoints(t, res, "Breed"))
	assert.Equal(t, OutcomeMismatch, res.Breakdown[4].Outcome)
	// ageRange "  " gana sobre el alias age
	assert.Equal(t, 0.0, fieldPoints(t, res, "Age"))
	assert.Equal(t, MaxScore-WeightBreed-WeightAge, res.Raw)

	// contra un listado sin valor sigue siendo 0
	res = Evaluate(pets.Pet{}, &users.Preferences{Color: s("\t")})
	assert.Equal(t, 0.0, fieldPoints(t, res, "Color"))
	assert.Equal(t, OutcomeMissing, res.Breakdown[6].Outcome)
}

func TestToPercent(t *testing.T) {
	assert.Equal(t, 0, ToPercent(0))
	assert.Equal(t, 0, ToPercent(-10))
	assert.Equal(t, 100, ToPercent(145))
	assert.Equal(t, 100, ToPercent(1000))
	assert.Equal(t, 50, ToPercent(72.5))
	assert.Equal(t, 9, ToPercent(12.5)) // 8.62 -> 9

	for raw := 0.0; raw <= 300; raw += 2.5 {
		pct := ToPercent(raw)
		require.GreaterOrEqual(t, pct, 0)
		require.LessOrEqual(t, pct, 100)
	}
}

func TestDescribe_FixedMessages(t *testing.T) {
	p := fullPet()
	assert.Equal(t, MsgListingUnavailable, Describe(nil, &users.Preferences{AnimalType: s("Dog")}))
	assert.Equal(t, MsgNoPreferences, Describe(&p, nil))
	assert.Equal(t, MsgNoPreferences, Describe(&p, &users.Preferences{}))
}

func TestDescribe_HeaderMatchesScoreAndPercent(t *testing.T) {
	cases := []struct {
		name  string
		pet   pets.Pet
		prefs *users.Preferences
	}{
		{"full match", fullPet(), &users.Preferences{AnimalType: s("Dog"), Size: s("Large")}},
		{"half credit", pets.Pet{AnimalType: "Dog", Size: "Large", AgeRange: "Young"}, &users.Preferences{AnimalType: s("dog"), Size: s("Medium"), AgeRange: s("Adult")}},
		{"mismatch", pets.Pet{AnimalType: "Cat", Color: "White"}, &users.Preferences{AnimalType: s("Dog"), Color: s("Black"), Gender: s("Female")}},
		{"blank keys", pets.Pet{}, &users.Preferences{Breed: s(""), Gender: s("")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.pet
			raw := Score(p, tc.prefs)
			pct := ToPercent(raw)

			out := Describe(&p, tc.prefs)
			lines := strings.Split(out, "\n")
			require.Len(t, lines, 8)

			want := fmt.Sprintf("Match score: %s pts (%d%%) of 145", FormatPoints(raw), pct)
			assert.Equal(t, want, lines[0])
		})
	}
}

func TestDescribe_FieldLines(t *testing.T) {
	p := pets.Pet{AnimalType: "Dog", Size: "Large", Temperament: "Playful"}
	out := Describe(&p, &users.Preferences{
		AnimalType:  s("dog"),
		Size:        s("Medium"),
		Temperament: s("Calm"),
		Breed:       s("Beagle"),
	})
	lines := strings.Split(out, "\n")

	assert.Equal(t, "Match score: 97.5 pts (67%) of 145", lines[0])
	assert.Equal(t, "+50 Type: Matches (Dog)", lines[1])
	assert.Equal(t, "+12.5 Size: Close (Medium vs Large)", lines[2])
	assert.Equal(t, "+0 Temperament: Preferred Calm, pet is Playful", lines[3])
	assert.Equal(t, "+25 Age: No preference (counts as match)", lines[4])
	assert.Equal(t, "+0 Breed: Listing missing value", lines[5])
}
