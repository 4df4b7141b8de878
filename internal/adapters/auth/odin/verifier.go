package odin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier sobre Odin.
type Verifier struct {
	client *Client
	log    logger.Logger
}

func NewVerifier(client *Client, log logger.Logger) *Verifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Verifier{client: client, log: log}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrOdinNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		// upstream caído se loguea; token inválido es ruido normal
		if errors.Is(err, ErrOdinUpstream) {
			v.log.Warn("odin verify failed", map[string]any{"err": err})
		}
		return auth.Claims{}, fmt.Errorf("odin verify failed: %w", err)
	}
	return claims, nil
}
