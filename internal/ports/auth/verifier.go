package auth

import "context"

// AuthVerifier valida un bearer token y devuelve los claims del usuario.
// nil en el router significa modo dev (headers X-Debug-*).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc adapta una función a AuthVerifier.
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}
