package memory

import (
	"sync"

	"hairy-paws/internal/domain/adoptions"
	"hairy-paws/internal/domain/animals"
	"hairy-paws/internal/domain/users"
)

// Store es el backend in-memory (dev y tests). Un solo lock para las tres
// tablas: así la decisión de adopción y el cambio del animal son atómicos
// y borrar un animal arrastra sus solicitudes.
type Store struct {
	mu        sync.RWMutex
	users     map[string]users.User
	animals   map[string]animals.Animal
	adoptions map[string]adoptions.Request
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]users.User),
		animals:   make(map[string]animals.Animal),
		adoptions: make(map[string]adoptions.Request),
	}
}

func (s *Store) Users() users.Repository         { return &userRepo{s: s} }
func (s *Store) Animals() animals.Repository     { return &animalRepo{s: s} }
func (s *Store) Adoptions() adoptions.Repository { return &adoptionRepo{s: s} }
