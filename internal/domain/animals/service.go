package animals

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/ports/auth"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	MaxAge           = 40

	DefaultMaxImageBytes int64 = 5 << 20
)

var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Service struct {
	repo          Repository
	images        ImageStore
	maxImageBytes int64
	now           func() time.Time
}

// NewService arma el catálogo. images puede ser nil si no se aceptan uploads.
func NewService(repo Repository, images ImageStore) *Service {
	return &Service{
		repo:          repo,
		images:        images,
		maxImageBytes: DefaultMaxImageBytes,
		now:           time.Now,
	}
}

// WithMaxImageBytes cambia el límite de upload (<= 0 deja el default).
func (s *Service) WithMaxImageBytes(n int64) *Service {
	if n > 0 {
		s.maxImageBytes = n
	}
	return s
}

func (s *Service) MaxImageBytes() int64 { return s.maxImageBytes }

type CreateInput struct {
	Name           string
	Type           string
	Breed          string
	Gender         string
	Age            int
	Weight         float64
	Color          string
	Description    string
	HealthDetails  string
	IsVaccinated   bool
	IsNeutered     bool
	AdoptionStatus string // opcional, AVAILABLE por defecto
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Animal, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Animal{}, apperr.Unauthenticated("unauthorized")
	}

	fields := map[string]string{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fields["name"] = "name is required"
	}
	typ := Type(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		fields["type"] = "type must be one of DOG, CAT, BIRD, RABBIT, OTHER"
	}
	gender := Gender(strings.ToUpper(strings.TrimSpace(in.Gender)))
	if !gender.Valid() {
		fields["gender"] = "gender must be one of MALE, FEMALE, UNKNOWN"
	}
	validateAge(fields, in.Age)
	validateWeight(fields, in.Weight)

	status := StatusAvailable
	if v := strings.TrimSpace(in.AdoptionStatus); v != "" {
		status = AdoptionStatus(strings.ToUpper(v))
		if status != StatusAvailable && status != StatusUnavailable {
			fields["adoptionStatus"] = "adoptionStatus must be AVAILABLE or UNAVAILABLE"
		}
	}
	if len(fields) > 0 {
		return Animal{}, apperr.Validation(fields)
	}

	now := s.now()
	a := Animal{
		ID:             uuid.NewString(),
		OwnerUserID:    ownerUserID,
		Name:           name,
		Type:           typ,
		Breed:          strings.TrimSpace(in.Breed),
		Gender:         gender,
		Age:            in.Age,
		Weight:         in.Weight,
		Color:          strings.TrimSpace(in.Color),
		Description:    strings.TrimSpace(in.Description),
		HealthDetails:  strings.TrimSpace(in.HealthDetails),
		IsVaccinated:   in.IsVaccinated,
		IsNeutered:     in.IsNeutered,
		AdoptionStatus: status,
		Images:         []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, apperr.Internal("animals.Create", err)
	}
	return a, nil
}

// FindByID devuelve el animal o NotFound.
func (s *Service) FindByID(ctx context.Context, id string) (Animal, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Animal{}, apperr.NotFound("animal not found")
		}
		return Animal{}, apperr.Internal("animals.FindByID", err)
	}
	return a, nil
}

// List es el listado público (más recientes primero).
func (s *Service) List(ctx context.Context, f ListFilter) ([]Animal, error) {
	fields := map[string]string{}
	if f.Type != "" && !f.Type.Valid() {
		fields["type"] = "type must be one of DOG, CAT, BIRD, RABBIT, OTHER"
	}
	if f.Gender != "" && !f.Gender.Valid() {
		fields["gender"] = "gender must be one of MALE, FEMALE, UNKNOWN"
	}
	if f.Status != "" && !f.Status.Valid() {
		fields["status"] = "status must be one of AVAILABLE, ADOPTED, UNAVAILABLE"
	}
	if f.Limit < 0 || f.Limit > MaxListLimit {
		fields["limit"] = fmt.Sprintf("limit must be between 1 and %d", MaxListLimit)
	}
	if f.Offset < 0 {
		fields["offset"] = "offset must not be negative"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	f.Query = strings.TrimSpace(f.Query)

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("animals.List", err)
	}
	return items, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Animal, error) {
	items, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, apperr.Internal("animals.ListByOwner", err)
	}
	return items, nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name           *string
	Type           *string
	Breed          *string
	Gender         *string
	Age            *int
	Weight         *float64
	Color          *string
	Description    *string
	HealthDetails  *string
	IsVaccinated   *bool
	IsNeutered     *bool
	AdoptionStatus *string
}

// Update aplica permisos: owner o ADMIN.
// ADOPTED no se toca a mano (ni hacia ni desde).
func (s *Service) Update(ctx context.Context, actor auth.Claims, id string, in UpdateInput) (Animal, error) {
	a, err := s.authorize(ctx, actor, id)
	if err != nil {
		return Animal{}, err
	}

	fields := map[string]string{}
	if in.Name != nil {
		if v := strings.TrimSpace(*in.Name); v == "" {
			fields["name"] = "name cannot be empty"
		} else {
			a.Name = v
		}
	}
	if in.Type != nil {
		if t := Type(strings.ToUpper(strings.TrimSpace(*in.Type))); t.Valid() {
			a.Type = t
		} else {
			fields["type"] = "type must be one of DOG, CAT, BIRD, RABBIT, OTHER"
		}
	}
	if in.Gender != nil {
		if g := Gender(strings.ToUpper(strings.TrimSpace(*in.Gender))); g.Valid() {
			a.Gender = g
		} else {
			fields["gender"] = "gender must be one of MALE, FEMALE, UNKNOWN"
		}
	}
	if in.Age != nil {
		validateAge(fields, *in.Age)
		a.Age = *in.Age
	}
	if in.Weight != nil {
		validateWeight(fields, *in.Weight)
		a.Weight = *in.Weight
	}

	var nextStatus AdoptionStatus
	if in.AdoptionStatus != nil {
		nextStatus = AdoptionStatus(strings.ToUpper(strings.TrimSpace(*in.AdoptionStatus)))
		if !nextStatus.Valid() {
			fields["adoptionStatus"] = "adoptionStatus must be one of AVAILABLE, ADOPTED, UNAVAILABLE"
		}
	}
	if len(fields) > 0 {
		return Animal{}, apperr.Validation(fields)
	}

	if nextStatus != "" && nextStatus != a.AdoptionStatus {
		if nextStatus == StatusAdopted || a.AdoptionStatus == StatusAdopted {
			return Animal{}, apperr.Conflict("adoption status ADOPTED is only set by approving an adoption request")
		}
		a.AdoptionStatus = nextStatus
	}

	if in.Breed != nil {
		a.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Color != nil {
		a.Color = strings.TrimSpace(*in.Color)
	}
	if in.Description != nil {
		a.Description = strings.TrimSpace(*in.Description)
	}
	if in.HealthDetails != nil {
		a.HealthDetails = strings.TrimSpace(*in.HealthDetails)
	}
	if in.IsVaccinated != nil {
		a.IsVaccinated = *in.IsVaccinated
	}
	if in.IsNeutered != nil {
		a.IsNeutered = *in.IsNeutered
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Animal{}, apperr.NotFound("animal not found")
		}
		return Animal{}, apperr.Internal("animals.Update", err)
	}
	return a, nil
}

// Delete borra el animal (owner o ADMIN). Sus solicitudes se van con él.
func (s *Service) Delete(ctx context.Context, actor auth.Claims, id string) error {
	a, err := s.authorize(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("animal not found")
		}
		return apperr.Internal("animals.Delete", err)
	}
	return nil
}

type ImageUpload struct {
	Body io.Reader
	Size int64
}

// AddImage sube una imagen (jpeg/png/webp) y agrega su URL al animal.
// El content type se detecta del contenido, no del header del cliente.
func (s *Service) AddImage(ctx context.Context, actor auth.Claims, id string, up ImageUpload) (Animal, error) {
	if s.images == nil {
		return Animal{}, apperr.Internal("animals.AddImage", errors.New("image store not configured"))
	}

	a, err := s.authorize(ctx, actor, id)
	if err != nil {
		return Animal{}, err
	}

	if up.Body == nil || up.Size <= 0 {
		return Animal{}, apperr.ValidationField("image", "image file is required")
	}
	if up.Size > s.maxImageBytes {
		return Animal{}, apperr.ValidationField("image", fmt.Sprintf("image must be at most %d bytes", s.maxImageBytes))
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Animal{}, apperr.Internal("animals.AddImage: read", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageExt[contentType]
	if !ok {
		return Animal{}, apperr.ValidationField("image", "image must be jpeg, png or webp")
	}

	key := fmt.Sprintf("animals/%s/%s.%s", a.ID, uuid.NewString(), ext)
	body := io.MultiReader(bytes.NewReader(head), up.Body)

	url, err := s.images.Put(ctx, key, body, up.Size, contentType)
	if err != nil {
		return Animal{}, apperr.Internal("animals.AddImage: put", err)
	}

	updated, err := s.repo.AppendImage(ctx, a.ID, url, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Animal{}, apperr.NotFound("animal not found")
		}
		return Animal{}, apperr.Internal("animals.AddImage", err)
	}
	return updated, nil
}

func (s *Service) authorize(ctx context.Context, actor auth.Claims, id string) (Animal, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Animal{}, apperr.Unauthenticated("unauthorized")
	}
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if a.OwnerUserID != actor.UserID && !actor.IsAdmin() {
		return Animal{}, apperr.Forbidden("only the owner can modify this animal")
	}
	return a, nil
}

func validateAge(fields map[string]string, age int) {
	if age < 0 || age > MaxAge {
		fields["age"] = fmt.Sprintf("age must be between 0 and %d", MaxAge)
	}
}

func validateWeight(fields map[string]string, w float64) {
	if w < 0 {
		fields["weight"] = "weight must be positive"
	}
}
