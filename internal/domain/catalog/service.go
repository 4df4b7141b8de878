// Package catalog expone el vocabulario de tipos, razas y atributos que usan
// los formularios de publicación y el quiz.
package catalog

import (
	"context"
	"errors"
	"strings"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/platform/metrics"
)

// Provider es la fuente externa de tipos y razas.
type Provider interface {
	Types(ctx context.Context) ([]string, error)
	Breeds(ctx context.Context, animalType string) ([]string, error)
}

var errNoProvider = errors.New("no metadata provider")

type Service struct {
	provider Provider
	log      logger.Logger
}

// NewService acepta provider nil: se sirve solo el vocabulario estático.
func NewService(provider Provider, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{provider: provider, log: log}
}

// Types nunca falla: ante cualquier error del provider cae a la lista fija.
func (s *Service) Types(ctx context.Context) []string {
	if s.provider == nil {
		return clone(fallbackTypes)
	}
	out, err := s.provider.Types(ctx)
	if err != nil {
		s.fallback("types", err, nil)
		return clone(fallbackTypes)
	}
	return out
}

// Breeds de un tipo. Tipo vacío => lista vacía.
func (s *Service) Breeds(ctx context.Context, animalType string) []string {
	animalType = strings.TrimSpace(animalType)
	if animalType == "" {
		return []string{}
	}
	if s.provider == nil {
		return breedsFallback(animalType)
	}
	out, err := s.provider.Breeds(ctx, animalType)
	if err != nil {
		s.fallback("breeds", err, map[string]any{"animal_type": animalType})
		return breedsFallback(animalType)
	}
	if out == nil {
		return []string{}
	}
	return out
}

func (s *Service) Colors() []string       { return clone(colors) }
func (s *Service) Ages() []string         { return clone(ages) }
func (s *Service) Genders() []string      { return clone(genders) }
func (s *Service) Sizes() []string        { return clone(sizes) }
func (s *Service) Environments() []string { return clone(environments) }
func (s *Service) Attributes() []string   { return clone(attributes) }

func (s *Service) fallback(what string, err error, fields map[string]any) {
	metrics.MetadataCache.WithLabelValues("fallback").Inc()
	if errors.Is(err, context.Canceled) {
		return
	}
	f := map[string]any{"what": what, "err": err}
	for k, v := range fields {
		f[k] = v
	}
	s.log.Warn("metadata lookup failed, using static list", f)
}
