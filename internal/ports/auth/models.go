package auth

// RoleAdmin es el rol con bypass de ownership (aprobar, editar animales ajenos, etc).
const RoleAdmin = "ADMIN"

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
