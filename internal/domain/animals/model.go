package animals

import "time"

// Type define las especies publicables.
// @Enum DOG, CAT, BIRD, RABBIT, OTHER
type Type string

const (
	TypeDog    Type = "DOG"
	TypeCat    Type = "CAT"
	TypeBird   Type = "BIRD"
	TypeRabbit Type = "RABBIT"
	TypeOther  Type = "OTHER"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDog, TypeCat, TypeBird, TypeRabbit, TypeOther:
		return true
	}
	return false
}

// Gender define el sexo del animal.
// @Enum MALE, FEMALE, UNKNOWN
type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderUnknown Gender = "UNKNOWN"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnknown:
		return true
	}
	return false
}

// AdoptionStatus es el estado de la publicación.
// ADOPTED solo se alcanza al aprobar una solicitud de adopción.
// @Enum AVAILABLE, ADOPTED, UNAVAILABLE
type AdoptionStatus string

const (
	StatusAvailable   AdoptionStatus = "AVAILABLE"
	StatusAdopted     AdoptionStatus = "ADOPTED"
	StatusUnavailable AdoptionStatus = "UNAVAILABLE"
)

func (s AdoptionStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusAdopted, StatusUnavailable:
		return true
	}
	return false
}

// Animal es una publicación del catálogo.
type Animal struct {
	ID          string
	OwnerUserID string

	Name   string
	Type   Type
	Breed  string
	Gender Gender
	Age    int     // años
	Weight float64 // kg, 0 = no informado

	Color         string
	Description   string
	HealthDetails string
	IsVaccinated  bool
	IsNeutered    bool

	AdoptionStatus AdoptionStatus
	Images         []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Animal) IsAvailable() bool {
	return a.AdoptionStatus == StatusAvailable
}

// ListFilter filtra el listado público. Campos vacíos = sin filtro.
type ListFilter struct {
	Type   Type
	Gender Gender
	Status AdoptionStatus
	Query  string // busca en nombre y raza

	Limit  int
	Offset int
}
