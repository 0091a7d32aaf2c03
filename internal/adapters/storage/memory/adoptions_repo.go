package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"hairy-paws/internal/domain/adoptions"
	"hairy-paws/internal/domain/animals"
)

type adoptionRepo struct {
	s *Store
}

func (r *adoptionRepo) Create(ctx context.Context, req adoptions.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(req.ID) == "" {
		return errors.New("adoption request id required")
	}
	if _, exists := r.s.adoptions[req.ID]; exists {
		return errors.New("adoption request already exists")
	}
	for _, other := range r.s.adoptions {
		if other.Status == adoptions.StatusPending &&
			other.AnimalID == req.AnimalID &&
			other.AdopterUserID == req.AdopterUserID &&
			other.Type == req.Type {
			return adoptions.ErrDuplicatePending
		}
	}
	r.s.adoptions[req.ID] = req
	return nil
}

func (r *adoptionRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.adoptions[id]
	if !ok {
		return adoptions.Request{}, adoptions.ErrNotFound
	}
	return req, nil
}

func (r *adoptionRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]adoptions.Request, error) {
	return r.list(func(req adoptions.Request) bool { return req.OwnerUserID == ownerUserID }), nil
}

func (r *adoptionRepo) ListByAdopter(ctx context.Context, adopterUserID string) ([]adoptions.Request, error) {
	return r.list(func(req adoptions.Request) bool { return req.AdopterUserID == adopterUserID }), nil
}

func (r *adoptionRepo) list(match func(adoptions.Request) bool) []adoptions.Request {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]adoptions.Request, 0)
	for _, req := range r.s.adoptions {
		if match(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ApplyDecision es el compare-and-set: solicitud y animal cambian bajo el mismo lock.
func (r *adoptionRepo) ApplyDecision(ctx context.Context, d adoptions.Decision) (adoptions.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.adoptions[d.RequestID]
	if !ok {
		return adoptions.Request{}, adoptions.ErrNotFound
	}
	if req.Status != adoptions.StatusPending {
		return adoptions.Request{}, adoptions.ErrNotPending
	}

	if d.AdoptAnimalID != "" {
		a, ok := r.s.animals[d.AdoptAnimalID]
		if !ok || a.AdoptionStatus != animals.StatusAvailable {
			return adoptions.Request{}, adoptions.ErrAnimalUnavailable
		}
		a.AdoptionStatus = animals.StatusAdopted
		a.UpdatedAt = d.DecidedAt
		r.s.animals[a.ID] = a
	}

	decidedAt := d.DecidedAt
	req.Status = d.Status
	req.Notes = d.Notes
	req.DecidedBy = d.DecidedBy
	req.DecidedAt = &decidedAt
	req.UpdatedAt = decidedAt
	r.s.adoptions[req.ID] = req
	return req, nil
}
