package applications

import (
	"errors"
	"fmt"
)

var ErrBadTransition = errors.New("invalid status transition")

// transitions es la máquina de estados completa:
//
//	submitted -> approved | rejected
//	approved  -> submitted   (revocación; la mascota vuelve a active)
//	rejected  -> submitted   (reapertura)
var transitions = map[Status][]Status{
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusSubmitted},
	StatusRejected:  {StatusSubmitted},
}

// Transition valida from -> to. Cualquier otra combinación (incluido
// from == to) es ErrBadTransition.
func Transition(from, to Status) error {
	from, to = from.Normalize(), to.Normalize()
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
}
