package threads

import (
	"errors"
	"fmt"
	"strings"
)

// Separator une los componentes del thread id: {petId}_{adopterId}_{shelterId}.
const Separator = "_"

var (
	ErrAmbiguousID = errors.New("ambiguous thread id")
)

// Key identifica la conversación entre una mascota, un adoptante y un refugio.
type Key struct {
	PetID     string
	AdopterID string
	ShelterID string
}

// IDFor deriva el id determinístico del thread. Nunca falla: componentes
// vacíos quedan como string vacío (no se omiten), así la forma siempre es
// de tres partes.
func IDFor(k Key) string {
	return strings.Join([]string{
		strings.TrimSpace(k.PetID),
		strings.TrimSpace(k.AdopterID),
		strings.TrimSpace(k.ShelterID),
	}, Separator)
}

// ParseID es la inversa de IDFor. Solo es confiable si ningún componente
// contiene el separador; Service.Open garantiza eso para todo thread guardado.
func ParseID(id string) (Key, error) {
	parts := strings.Split(id, Separator)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("%w: %q has %d parts", ErrAmbiguousID, id, len(parts))
	}
	return Key{PetID: parts[0], AdopterID: parts[1], ShelterID: parts[2]}, nil
}

// Validate exige los tres componentes y que ninguno contenga el separador.
func (k Key) Validate() error {
	comps := []struct{ name, v string }{
		{"petId", strings.TrimSpace(k.PetID)},
		{"adopterId", strings.TrimSpace(k.AdopterID)},
		{"shelterId", strings.TrimSpace(k.ShelterID)},
	}
	for _, c := range comps {
		name, v := c.name, c.v
		if v == "" {
			return fmt.Errorf("%w: %s required", ErrInvalidInput, name)
		}
		if strings.Contains(v, Separator) {
			return fmt.Errorf("%w: %s contains %q", ErrAmbiguousID, name, Separator)
		}
	}
	return nil
}
