package catalog

import "strings"

// MixedBreed es la respuesta de último recurso para un tipo desconocido.
const MixedBreed = "Mixed Breed"

var fallbackTypes = []string{
	"Dog",
	"Cat",
	"Rabbit",
	"Small & Furry",
	"Horse",
	"Bird",
	"Scales, Fins & Other",
	"Barnyard",
}

var fallbackBreeds = map[string][]string{
	"Dog":                  {"Siberian Husky", "Labrador Retriever", "German Shepherd", "Golden Retriever", "Beagle", MixedBreed},
	"Cat":                  {"Siamese", "Persian", "Maine Coon", "Ragdoll", "Sphynx", "Domestic Short Hair", "Domestic Long Hair"},
	"Rabbit":               {"Holland Lop", "Netherland Dwarf", "Lionhead", "Mini Rex", MixedBreed},
	"Small & Furry":        {"Hamster", "Guinea Pig", "Ferret", "Chinchilla", "Gerbil", "Rat", "Mouse"},
	"Horse":                {"Quarter Horse", "Thoroughbred", "Arabian", "Paint", "Appaloosa", MixedBreed},
	"Bird":                 {"Parakeet", "Cockatiel", "Canary", "Finch", "Parrot", MixedBreed},
	"Scales, Fins & Other": {"Goldfish", "Turtle", "Snake", "Lizard", MixedBreed},
	"Barnyard":             {"Chicken", "Goat", "Pig", "Sheep", "Duck", MixedBreed},
}

var (
	colors = []string{
		"Black", "White", "Brown", "Gray", "Golden", "Cream", "Red", "Blue", "Chocolate", "Silver",
		"Tan", "Brindle", "Merle", "Tricolor", "Bicolor", "Orange", "Yellow", "Sable", "Fawn", "Buff",
	}
	ages    = []string{"Baby", "Young", "Adult", "Senior"}
	genders = []string{"Male", "Female"}
	sizes   = []string{"Small", "Medium", "Large", "Extra Large"}

	environments = []string{
		"Good with other animals",
		"Good with children",
		"Animal must be leashed at all times",
		"Good with dogs",
		"Good with cats",
	}
	attributes = []string{"Spayed/Neutered", "House Trained", "Declawed", "Special Needs", "Shots Current"}
)

func breedsFallback(animalType string) []string {
	for k, v := range fallbackBreeds {
		if strings.EqualFold(k, strings.TrimSpace(animalType)) {
			return clone(v)
		}
	}
	return []string{MixedBreed}
}

func clone(in []string) []string {
	return append([]string(nil), in...)
}
