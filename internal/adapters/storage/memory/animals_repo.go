package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"hairy-paws/internal/domain/animals"
)

type animalRepo struct {
	s *Store
}

func (r *animalRepo) Create(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.s.animals[a.ID]; exists {
		return errors.New("animal already exists")
	}
	r.s.animals[a.ID] = clone(a)
	return nil
}

func (r *animalRepo) Update(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, exists := r.s.animals[a.ID]
	if !exists {
		return animals.ErrNotFound
	}
	// No pisar un ADOPTED aplicado por una aprobación concurrente.
	if current.AdoptionStatus == animals.StatusAdopted {
		a.AdoptionStatus = animals.StatusAdopted
	}
	r.s.animals[a.ID] = clone(a)
	return nil
}

func (r *animalRepo) AppendImage(ctx context.Context, id, url string, at time.Time) (animals.Animal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, exists := r.s.animals[id]
	if !exists {
		return animals.Animal{}, animals.ErrNotFound
	}
	a = clone(a)
	a.Images = append(a.Images, url)
	a.UpdatedAt = at
	r.s.animals[id] = a
	return clone(a), nil
}

func (r *animalRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.animals[id]; !exists {
		return animals.ErrNotFound
	}
	delete(r.s.animals, id)
	for reqID, req := range r.s.adoptions {
		if req.AnimalID == id {
			delete(r.s.adoptions, reqID)
		}
	}
	return nil
}

func (r *animalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.animals[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return clone(a), nil
}

func (r *animalRepo) List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(f.Query)
	out := make([]animals.Animal, 0)
	for _, a := range r.s.animals {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Gender != "" && a.Gender != f.Gender {
			continue
		}
		if f.Status != "" && a.AdoptionStatus != f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) && !strings.Contains(strings.ToLower(a.Breed), q) {
			continue
		}
		out = append(out, clone(a))
	}
	sortNewestFirst(out)

	if f.Offset >= len(out) {
		return []animals.Animal{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *animalRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.s.animals {
		if a.OwnerUserID == ownerUserID {
			out = append(out, clone(a))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(items []animals.Animal) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// clone evita compartir el slice de imágenes con quien llama.
func clone(a animals.Animal) animals.Animal {
	a.Images = slices.Clone(a.Images)
	if a.Images == nil {
		a.Images = []string{}
	}
	return a
}
