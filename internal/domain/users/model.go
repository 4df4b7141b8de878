package users

import (
	"strings"
	"time"
)

// Preferences es el resultado del quiz del adoptante.
// Cada atributo es opcional: nil = la clave no existe, "" = presente pero vacía.
// Esa diferencia importa para el scoring (ver match.Score).
type Preferences struct {
	AnimalType  *string `json:"animalType,omitempty"`
	Breed       *string `json:"breed,omitempty"`
	Size        *string `json:"size,omitempty"`
	Temperament *string `json:"temperament,omitempty"`
	AgeRange    *string `json:"ageRange,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Color       *string `json:"color,omitempty"`

	// Age es el nombre legacy de AgeRange (quizzes viejos).
	Age *string `json:"age,omitempty"`
}

// IsEmpty indica "el adoptante no respondió el quiz": ninguna clave presente.
// Un set con todas las claves en blanco NO es vacío.
func (p *Preferences) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, v := range p.fields() {
		if v != nil {
			return false
		}
	}
	return true
}

// HasValues indica si al menos un atributo tiene texto no vacío.
func (p *Preferences) HasValues() bool {
	if p == nil {
		return false
	}
	for _, v := range p.fields() {
		if v != nil && strings.TrimSpace(*v) != "" {
			return true
		}
	}
	return false
}

// AgePreference resuelve ageRange con fallback al alias legacy.
func (p *Preferences) AgePreference() string {
	if p == nil {
		return ""
	}
	if v := deref(p.AgeRange); v != "" {
		return v
	}
	return deref(p.Age)
}

func (p *Preferences) fields() []*string {
	return []*string{p.AnimalType, p.Breed, p.Size, p.Temperament, p.AgeRange, p.Gender, p.Color, p.Age}
}

type AdopterProfile struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	City  string `json:"city,omitempty"`
}

type ShelterProfile struct {
	CompanyName string `json:"companyName,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// User es el registro de perfil hidratado tras la autenticación.
type User struct {
	UID         string
	Email       string
	DisplayName string
	Role        Role

	Preferences *Preferences

	AdopterProfile *AdopterProfile
	ShelterProfile *ShelterProfile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShelterLabel es el nombre que se muestra para un refugio.
func (u User) ShelterLabel() string {
	if u.ShelterProfile != nil && strings.TrimSpace(u.ShelterProfile.CompanyName) != "" {
		return strings.TrimSpace(u.ShelterProfile.CompanyName)
	}
	if v := strings.TrimSpace(u.DisplayName); v != "" {
		return v
	}
	if v := strings.TrimSpace(u.Email); v != "" {
		return v
	}
	return "Shelter"
}

// AdopterLabel es el nombre que se muestra para un adoptante.
func (u User) AdopterLabel() string {
	if u.AdopterProfile != nil && strings.TrimSpace(u.AdopterProfile.Name) != "" {
		return strings.TrimSpace(u.AdopterProfile.Name)
	}
	if v := strings.TrimSpace(u.DisplayName); v != "" {
		return v
	}
	if v := strings.TrimSpace(u.Email); v != "" {
		return v
	}
	return "Adopter"
}

// StrPtr ayuda a construir Preferences en tests y handlers.
func StrPtr(s string) *string { return &s }

// deref no recorta: solo "" cuenta como vacío, "  " es un valor.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
