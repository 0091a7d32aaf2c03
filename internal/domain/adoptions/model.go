package adoptions

import "time"

// Type distingue adopción de visita.
// @Enum ADOPTION, VISIT
type Type string

const (
	TypeAdoption Type = "ADOPTION"
	TypeVisit    Type = "VISIT"
)

func (t Type) Valid() bool {
	return t == TypeAdoption || t == TypeVisit
}

// Status de la solicitud. PENDING es el único estado inicial;
// APPROVED y REJECTED son terminales.
// @Enum PENDING, APPROVED, REJECTED
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request es una solicitud de adopción o visita.
type Request struct {
	ID       string
	AnimalID string

	// Dueño del animal al momento de crear la solicitud (no cambia).
	OwnerUserID   string
	AdopterUserID string

	Type      Type
	Status    Status
	VisitDate *time.Time // solo VISIT
	Notes     string

	DecidedBy string
	DecidedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decision es lo que el repo aplica de forma atómica sobre una solicitud PENDING.
// Si AdoptAnimalID no está vacío, el animal pasa a ADOPTED en la misma operación
// y solo si seguía AVAILABLE.
type Decision struct {
	RequestID     string
	Status        Status
	Notes         string // valor completo, ya con el append
	DecidedBy     string
	DecidedAt     time.Time
	AdoptAnimalID string
}

// Party es la info de contacto que se muestra de adoptante y dueño.
type Party struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// View es una solicitud enriquecida para mostrar.
type View struct {
	Request
	AnimalName string
	Adopter    Party
	Owner      Party
}
