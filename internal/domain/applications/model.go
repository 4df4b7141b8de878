package applications

import (
	"strings"
	"time"
)

// Status de una solicitud de adopción.
// @Enum submitted, approved, rejected
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Normalize: vacío (documentos viejos) cuenta como submitted y el viejo
// "closed" como rejected.
func (s Status) Normalize() Status {
	v := Status(strings.ToLower(strings.TrimSpace(string(s))))
	switch v {
	case "":
		return StatusSubmitted
	case "closed":
		return StatusRejected
	}
	return v
}

func (s Status) IsActive() bool { return s.Normalize() == StatusSubmitted }

// Application es la solicitud de un adoptante por una mascota.
// Nombre/email/petName se guardan desnormalizados al enviarla.
type Application struct {
	ID string

	PetID       string
	PetName     string
	ShelterID   string
	ShelterName string

	ApplicantID    string
	ApplicantName  string
	ApplicantEmail string

	Message string
	Status  Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
