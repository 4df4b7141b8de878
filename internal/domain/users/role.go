package users

import "strings"

// Role define los tres perfiles de la plataforma.
// @Enum adopter, shelter, admin
type Role string

const (
	RoleAdopter Role = "adopter"
	RoleShelter Role = "shelter"
	RoleAdmin   Role = "admin"
)

// ParseRole normaliza el rol. Desconocido o vacío => adopter (rol por defecto al registrarse).
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleShelter:
		return RoleShelter
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleAdopter
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdopter, RoleShelter, RoleAdmin:
		return true
	default:
		return false
	}
}

// Label es la etiqueta genérica que se usa cuando no hay nombre del usuario.
func (r Role) Label() string {
	switch r {
	case RoleAdopter:
		return "Adopter"
	case RoleShelter:
		return "Shelter"
	case RoleAdmin:
		return "Admin"
	default:
		return "(Unknown User)"
	}
}

// CanManageListings: shelters y admins publican/editan mascotas.
func (r Role) CanManageListings() bool {
	switch r {
	case RoleShelter, RoleAdmin:
		return true
	case RoleAdopter:
		return false
	default:
		return false
	}
}
