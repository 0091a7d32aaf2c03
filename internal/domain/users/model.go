package users

import "time"

// Role define el rol del usuario en la plataforma.
// @Enum ADOPTER, ADMIN
type Role string

const (
	RoleAdopter Role = "ADOPTER"
	RoleAdmin   Role = "ADMIN"
)

// Status define el estado de la cuenta.
// @Enum ACTIVE, INACTIVE, SUSPENDED
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// User es la cuenta. Nunca se borra físicamente.
type User struct {
	ID           string
	Email        string
	PasswordHash string

	FirstName string
	LastName  string
	Phone     string

	Role     Role
	Status   Status
	Verified bool

	Address          string
	IdentityDocument string // opcional (DNI)

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) IsActive() bool {
	return u.Status == StatusActive
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
