package adoptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hairy-paws/internal/domain/users"
	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/metrics"
	"hairy-paws/internal/ports/auth"
	"hairy-paws/internal/ports/events"

	"github.com/google/uuid"
)

const maxNotesLen = 2000

// Nombres de eventos publicados (routing keys).
const (
	EventRequested = "adoption.requested"
	EventApproved  = "adoption.approved"
	EventRejected  = "adoption.rejected"
)

type Service struct {
	repo    Repository
	users   UserDirectory
	animals AnimalCatalog
	pub     events.Publisher
	log     logger.Logger
	now     func() time.Time
}

// NewService arma el motor. pub y log pueden ser nil.
func NewService(repo Repository, users UserDirectory, animals AnimalCatalog, pub events.Publisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		users:   users,
		animals: animals,
		pub:     pub,
		log:     log,
		now:     time.Now,
	}
}

type CreateInput struct {
	AnimalID  string
	Type      string
	VisitDate *time.Time
	Notes     string
}

// Create registra una solicitud PENDING.
func (s *Service) Create(ctx context.Context, actor auth.Claims, in CreateInput) (View, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return View{}, apperr.Unauthenticated("unauthorized")
	}

	now := s.now()
	fields := map[string]string{}
	animalID := strings.TrimSpace(in.AnimalID)
	if animalID == "" {
		fields["animalId"] = "animalId is required"
	}
	typ := Type(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		fields["type"] = "type must be one of ADOPTION, VISIT"
	}
	if typ == TypeVisit {
		switch {
		case in.VisitDate == nil:
			fields["visitDate"] = "visitDate is required for VISIT requests"
		case !in.VisitDate.After(now):
			fields["visitDate"] = "visitDate must be in the future"
		}
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > maxNotesLen {
		fields["notes"] = fmt.Sprintf("notes must be at most %d characters", maxNotesLen)
	}
	if len(fields) > 0 {
		return View{}, apperr.Validation(fields)
	}

	adopter, err := s.users.FindActive(ctx, actor.UserID)
	if err != nil {
		return View{}, err
	}
	animal, err := s.animals.FindByID(ctx, animalID)
	if err != nil {
		return View{}, err
	}
	if animal.OwnerUserID == adopter.ID {
		return View{}, apperr.Conflict("you cannot request your own animal")
	}
	if typ == TypeAdoption && !animal.IsAvailable() {
		return View{}, apperr.Conflict("animal is not available for adoption")
	}

	var visitDate *time.Time
	if typ == TypeVisit {
		v := in.VisitDate.UTC()
		visitDate = &v
	}

	req := Request{
		ID:            uuid.NewString(),
		AnimalID:      animal.ID,
		OwnerUserID:   animal.OwnerUserID,
		AdopterUserID: adopter.ID,
		Type:          typ,
		Status:        StatusPending,
		VisitDate:     visitDate,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, ErrDuplicatePending) {
			return View{}, apperr.Conflict("you already have a pending request of this type for this animal")
		}
		return View{}, apperr.Internal("adoptions.Create", err)
	}

	metrics.RecordAdoptionTransition(string(req.Type), string(req.Status))
	s.publish(ctx, EventRequested, req)

	owner, err := s.users.FindByID(ctx, animal.OwnerUserID)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return View{}, err
	}
	return View{
		Request:    req,
		AnimalName: animal.Name,
		Adopter:    toParty(adopter),
		Owner:      partyOrID(owner, animal.OwnerUserID),
	}, nil
}

// ListReceived lista las solicitudes sobre animales del actor.
func (s *Service) ListReceived(ctx context.Context, actor auth.Claims) ([]View, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, apperr.Unauthenticated("unauthorized")
	}
	items, err := s.repo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Internal("adoptions.ListReceived", err)
	}
	return s.enrichAll(ctx, items)
}

// ListSent lista las solicitudes hechas por el actor.
func (s *Service) ListSent(ctx context.Context, actor auth.Claims) ([]View, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, apperr.Unauthenticated("unauthorized")
	}
	items, err := s.repo.ListByAdopter(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Internal("adoptions.ListSent", err)
	}
	return s.enrichAll(ctx, items)
}

// Get: solo adoptante, dueño o ADMIN.
func (s *Service) Get(ctx context.Context, actor auth.Claims, id string) (View, error) {
	req, err := s.load(ctx, actor, id)
	if err != nil {
		return View{}, err
	}
	if actor.UserID != req.AdopterUserID && actor.UserID != req.OwnerUserID && !actor.IsAdmin() {
		return View{}, apperr.Forbidden("you are not part of this adoption request")
	}
	return s.enrich(ctx, req)
}

// Approve pasa PENDING -> APPROVED. En ADOPTION el animal queda ADOPTED en la misma operación.
func (s *Service) Approve(ctx context.Context, actor auth.Claims, id, notes string) (View, error) {
	return s.decide(ctx, actor, id, notes, StatusApproved)
}

// Reject pasa PENDING -> REJECTED. No toca el animal.
func (s *Service) Reject(ctx context.Context, actor auth.Claims, id, notes string) (View, error) {
	return s.decide(ctx, actor, id, notes, StatusRejected)
}

func (s *Service) decide(ctx context.Context, actor auth.Claims, id, notes string, to Status) (View, error) {
	req, err := s.load(ctx, actor, id)
	if err != nil {
		return View{}, err
	}
	if actor.UserID != req.OwnerUserID && !actor.IsAdmin() {
		return View{}, apperr.Forbidden("only the animal owner can decide on this request")
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLen {
		return View{}, apperr.ValidationField("notes", fmt.Sprintf("notes must be at most %d characters", maxNotesLen))
	}
	if req.Status.IsTerminal() {
		return View{}, apperr.Conflict("adoption request already decided")
	}

	d := Decision{
		RequestID: req.ID,
		Status:    to,
		Notes:     appendNotes(req.Notes, notes),
		DecidedBy: actor.UserID,
		DecidedAt: s.now(),
	}
	if to == StatusApproved && req.Type == TypeAdoption {
		d.AdoptAnimalID = req.AnimalID
	}

	updated, err := s.repo.ApplyDecision(ctx, d)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return View{}, apperr.NotFound("adoption request not found")
		case errors.Is(err, ErrNotPending):
			return View{}, apperr.Conflict("adoption request already decided")
		case errors.Is(err, ErrAnimalUnavailable):
			return View{}, apperr.Conflict("animal is no longer available for adoption")
		}
		return View{}, apperr.Internal("adoptions.decide", err)
	}

	metrics.RecordAdoptionTransition(string(updated.Type), string(updated.Status))
	name := EventApproved
	if to == StatusRejected {
		name = EventRejected
	}
	s.publish(ctx, name, updated)

	return s.enrich(ctx, updated)
}

func (s *Service) load(ctx context.Context, actor auth.Claims, id string) (Request, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Request{}, apperr.Unauthenticated("unauthorized")
	}
	req, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Request{}, apperr.NotFound("adoption request not found")
		}
		return Request{}, apperr.Internal("adoptions.load", err)
	}
	return req, nil
}

func (s *Service) enrich(ctx context.Context, req Request) (View, error) {
	views, err := s.enrichAll(ctx, []Request{req})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// enrichAll resuelve nombre del animal y contacto de ambas partes.
// Cachea por id: en un listado el dueño o el adoptante se repiten.
func (s *Service) enrichAll(ctx context.Context, items []Request) ([]View, error) {
	people := map[string]Party{}
	names := map[string]string{}

	party := func(id string) (Party, error) {
		if p, ok := people[id]; ok {
			return p, nil
		}
		u, err := s.users.FindByID(ctx, id)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return Party{}, err
		}
		p := partyOrID(u, id)
		people[id] = p
		return p, nil
	}

	out := make([]View, 0, len(items))
	for _, req := range items {
		adopter, err := party(req.AdopterUserID)
		if err != nil {
			return nil, err
		}
		owner, err := party(req.OwnerUserID)
		if err != nil {
			return nil, err
		}

		name, ok := names[req.AnimalID]
		if !ok {
			a, err := s.animals.FindByID(ctx, req.AnimalID)
			if err != nil && !apperr.Is(err, apperr.KindNotFound) {
				return nil, err
			}
			name = a.Name
			names[req.AnimalID] = name
		}

		out = append(out, View{Request: req, AnimalName: name, Adopter: adopter, Owner: owner})
	}
	return out, nil
}

// EventPayload es el cuerpo de los eventos adoption.*.
type EventPayload struct {
	RequestID  string    `json:"requestId"`
	AnimalID   string    `json:"animalId"`
	AdopterID  string    `json:"adopterId"`
	OwnerID    string    `json:"ownerId"`
	Type       Type      `json:"type"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// publish es best-effort: el cambio ya quedó aplicado.
func (s *Service) publish(ctx context.Context, name string, req Request) {
	if s.pub == nil {
		return
	}
	at := s.now()
	err := s.pub.Publish(ctx, events.Event{
		Name:       name,
		OccurredAt: at,
		Payload: EventPayload{
			RequestID:  req.ID,
			AnimalID:   req.AnimalID,
			AdopterID:  req.AdopterUserID,
			OwnerID:    req.OwnerUserID,
			Type:       req.Type,
			Status:     req.Status,
			OccurredAt: at,
		},
	})
	if err != nil {
		s.log.Warn("event publish failed", map[string]any{
			"event":      name,
			"request_id": req.ID,
			"err":        err,
		})
	}
}

func appendNotes(current, add string) string {
	switch {
	case add == "":
		return current
	case current == "":
		return add
	}
	return current + "\n" + add
}

func toParty(u users.User) Party {
	return Party{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func partyOrID(u users.User, id string) Party {
	if u.ID == "" {
		return Party{ID: id}
	}
	return toParty(u)
}
