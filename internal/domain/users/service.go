package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/metrics"
	"hairy-paws/internal/ports/auth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type Service struct {
	repo     Repository
	guard    LoginGuard
	log      logger.Logger
	now      func() time.Time
	hashCost int
}

// NewService arma el servicio. guard puede ser nil (sin lockout).
func NewService(repo Repository, guard LoginGuard) *Service {
	return &Service{
		repo:     repo,
		guard:    guard,
		log:      logger.Nop(),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

// WithLogger registra fallas best-effort (p.ej. limpiar el lockout).
func (s *Service) WithLogger(log logger.Logger) *Service {
	if log != nil {
		s.log = log
	}
	return s
}

type RegisterInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	Phone            string
	Address          string
	IdentityDocument string
}

func (in RegisterInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Email) == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		fields["email"] = "email must be a valid address"
	}
	if len(in.Password) < minPasswordLen {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLen)
	}
	if strings.TrimSpace(in.FirstName) == "" {
		fields["firstName"] = "firstName is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		fields["lastName"] = "lastName is required"
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// Register crea una cuenta ADOPTER activa. El email se normaliza a minúsculas.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := in.validate(); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return User{}, apperr.Internal("users.Register: hash", err)
	}

	now := s.now()
	u := User{
		ID:               uuid.NewString(),
		Email:            normalizeEmail(in.Email),
		PasswordHash:     string(hash),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Phone:            strings.TrimSpace(in.Phone),
		Role:             RoleAdopter,
		Status:           StatusActive,
		Verified:         false,
		Address:          strings.TrimSpace(in.Address),
		IdentityDocument: strings.TrimSpace(in.IdentityDocument),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, apperr.Conflict("email already registered")
		}
		return User{}, apperr.Internal("users.Register", err)
	}
	return u, nil
}

// EnsureAdmin crea la cuenta ADMIN si el email no existe; si existe, la promueve
// y reactiva sin tocar su password.
func (s *Service) EnsureAdmin(ctx context.Context, in RegisterInput) (User, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		in.FirstName = "Admin"
	}
	if strings.TrimSpace(in.LastName) == "" {
		in.LastName = "Admin"
	}

	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(in.Email))
	switch {
	case err == nil:
		if existing.Role == RoleAdmin && existing.IsActive() {
			return existing, nil
		}
		existing.Role = RoleAdmin
		existing.Status = StatusActive
		existing.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return User{}, apperr.Internal("users.EnsureAdmin", err)
		}
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return User{}, apperr.Internal("users.EnsureAdmin", err)
	}

	u, err := s.Register(ctx, in)
	if err != nil {
		return User{}, err
	}
	u.Role = RoleAdmin
	u.Verified = true
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, apperr.Internal("users.EnsureAdmin", err)
	}
	return u, nil
}

// Authenticate valida credenciales. Mismo error para email desconocido y password incorrecto.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, apperr.Validation(map[string]string{
			"email":    "email and password are required",
			"password": "email and password are required",
		})
	}

	if s.guard != nil {
		locked, err := s.guard.Locked(ctx, email)
		if err != nil {
			return User{}, apperr.Internal("users.Authenticate: guard", err)
		}
		if locked {
			metrics.RecordLogin("locked")
			return User{}, apperr.RateLimited("too many failed login attempts, try again later")
		}
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, apperr.Internal("users.Authenticate", err)
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		if s.guard != nil {
			if gerr := s.guard.RecordFailure(ctx, email); gerr != nil {
				return User{}, apperr.Internal("users.Authenticate: guard", gerr)
			}
		}
		metrics.RecordLogin("invalid_credentials")
		return User{}, apperr.Unauthenticated("invalid credentials")
	}

	if !u.IsActive() {
		metrics.RecordLogin("inactive")
		return User{}, apperr.Forbidden("account is not active")
	}

	if s.guard != nil {
		if err := s.guard.Reset(ctx, email); err != nil {
			s.log.Warn("login guard reset failed", map[string]any{"email": email, "err": err})
		}
	}
	metrics.RecordLogin("success")
	return u, nil
}

// FindByID devuelve el usuario o NotFound.
func (s *Service) FindByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, apperr.NotFound("user not found")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, apperr.Internal("users.FindByID", err)
	}
	return u, nil
}

// FindActive es FindByID exigiendo cuenta ACTIVE (Forbidden si no lo está).
func (s *Service) FindActive(ctx context.Context, id string) (User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !u.IsActive() {
		return User{}, apperr.Forbidden("account is not active")
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal("users.List", err)
	}
	return items, nil
}

type UpdateProfileInput struct {
	// Punteros para PATCH: nil = no tocar.
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (User, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	fields := map[string]string{}
	if in.FirstName != nil {
		if v := strings.TrimSpace(*in.FirstName); v == "" {
			fields["firstName"] = "firstName cannot be empty"
		} else {
			u.FirstName = v
		}
	}
	if in.LastName != nil {
		if v := strings.TrimSpace(*in.LastName); v == "" {
			fields["lastName"] = "lastName cannot be empty"
		} else {
			u.LastName = v
		}
	}
	if len(fields) > 0 {
		return User{}, apperr.Validation(fields)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, apperr.Internal("users.UpdateProfile", err)
	}
	return u, nil
}

// SetStatus es una acción de admin. Un admin no puede desactivarse a sí mismo.
func (s *Service) SetStatus(ctx context.Context, actor auth.Claims, userID string, status Status) (User, error) {
	if !actor.IsAdmin() {
		return User{}, apperr.Forbidden("admin role required")
	}
	if !status.Valid() {
		return User{}, apperr.ValidationField("status", "status must be one of ACTIVE, INACTIVE, SUSPENDED")
	}
	if actor.UserID == userID && status != StatusActive {
		return User{}, apperr.Conflict("admins cannot deactivate their own account")
	}

	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if u.Status == status {
		return u, nil
	}
	u.Status = status
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, apperr.Internal("users.SetStatus", err)
	}
	return u, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
