package auth

// Claims representa la información extraída del token.
// Role viene del proveedor de identidad si lo informa; el perfil guardado manda.
type Claims struct {
	UserID string
	Email  string
	Role   string
}
