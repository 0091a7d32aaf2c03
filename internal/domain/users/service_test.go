package users

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(_ context.Context, u User) error {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Update(_ context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByEmail(_ context.Context, email string) (User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *testRepo) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

type testGuard struct {
	limit    int
	failures map[string]int
	resetErr error
}

func (g *testGuard) Locked(_ context.Context, key string) (bool, error) {
	return g.failures[key] >= g.limit, nil
}

func (g *testGuard) RecordFailure(_ context.Context, key string) error {
	g.failures[key]++
	return nil
}

func (g *testGuard) Reset(_ context.Context, key string) error {
	if g.resetErr != nil {
		return g.resetErr
	}
	delete(g.failures, key)
	return nil
}

func newTestService(guard LoginGuard) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, guard)
	svc.hashCost = bcrypt.MinCost
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func validRegister() RegisterInput {
	return RegisterInput{
		Email:     "  Ana@Example.com ",
		Password:  "s3cretpass",
		FirstName: "Ana",
		LastName:  "Quispe",
		Phone:     "999",
	}
}

func TestRegister_NormalizesAndDefaults(t *testing.T) {
	svc, _ := newTestService(nil)

	u, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, RoleAdopter, u.Role)
	assert.Equal(t, StatusActive, u.Status)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)
	assert.NotEmpty(t, u.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(nil)

	_, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegister())
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(nil)

	in := validRegister()
	in.Email = "not-an-email"
	in.Password = "short"

	_, err := svc.Register(context.Background(), in)
	require.Error(t, err)

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	assert.Contains(t, e.Fields, "email")
	assert.Contains(t, e.Fields, "password")
}

func TestAuthenticate(t *testing.T) {
	svc, repo := newTestService(nil)
	u, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), "ANA@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "ana@example.com", "wrong-pass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = svc.Authenticate(context.Background(), "ghost@example.com", "s3cretpass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	u.Status = StatusSuspended
	repo.byID[u.ID] = u
	_, err = svc.Authenticate(context.Background(), "ana@example.com", "s3cretpass")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestAuthenticate_LockoutAfterFailures(t *testing.T) {
	guard := &testGuard{limit: 2, failures: map[string]int{}}
	svc, _ := newTestService(guard)
	_, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.Authenticate(context.Background(), "ana@example.com", "nope-nope")
		require.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	}

	// Bloqueado incluso con la contraseña correcta.
	_, err = svc.Authenticate(context.Background(), "ana@example.com", "s3cretpass")
	assert.True(t, apperr.Is(err, apperr.KindRateLimited))
}

func TestAuthenticate_SuccessResetsGuard(t *testing.T) {
	guard := &testGuard{limit: 3, failures: map[string]int{}}
	svc, _ := newTestService(guard)
	_, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	_, _ = svc.Authenticate(context.Background(), "ana@example.com", "nope-nope")
	require.Equal(t, 1, guard.failures["ana@example.com"])

	_, err = svc.Authenticate(context.Background(), "ana@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Zero(t, guard.failures["ana@example.com"])
}

func TestFindActive(t *testing.T) {
	svc, repo := newTestService(nil)
	u, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	_, err = svc.FindActive(context.Background(), u.ID)
	require.NoError(t, err)

	u.Status = StatusInactive
	repo.byID[u.ID] = u
	_, err = svc.FindActive(context.Background(), u.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.FindActive(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateProfile_Partial(t *testing.T) {
	svc, _ := newTestService(nil)
	u, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	phone := "111"
	got, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "111", got.Phone)
	assert.Equal(t, "Ana", got.FirstName)

	empty := " "
	_, err = svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{FirstName: &empty})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSetStatus(t *testing.T) {
	svc, _ := newTestService(nil)
	u, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	admin := auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}

	_, err = svc.SetStatus(context.Background(), auth.Claims{UserID: u.ID, Role: "ADOPTER"}, u.ID, StatusSuspended)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.SetStatus(context.Background(), admin, u.ID, Status("BANNED"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.SetStatus(context.Background(), admin, "admin-1", StatusInactive)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := svc.SetStatus(context.Background(), admin, u.ID, StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, got.Status)
}

func TestEnsureAdmin_CreatesThenPromotes(t *testing.T) {
	svc, repo := newTestService(nil)

	admin, err := svc.EnsureAdmin(context.Background(), RegisterInput{Email: "Root@HairyPaws.dev", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.Equal(t, "root@hairypaws.dev", admin.Email)
	assert.Equal(t, RoleAdmin, repo.byID[admin.ID].Role)

	// idempotente
	again, err := svc.EnsureAdmin(context.Background(), RegisterInput{Email: "root@hairypaws.dev", Password: "other-pass"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
	assert.Len(t, repo.byID, 1)

	// una cuenta existente se promueve sin cambiar su password
	u, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	promoted, err := svc.EnsureAdmin(context.Background(), RegisterInput{Email: "ana@example.com", Password: "ignored-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, promoted.ID)
	assert.Equal(t, RoleAdmin, promoted.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(promoted.PasswordHash), []byte("s3cretpass")))
}

func TestAuthenticate_LogsGuardResetFailure(t *testing.T) {
	var buf bytes.Buffer
	guard := &testGuard{limit: 5, failures: map[string]int{}, resetErr: errors.New("redis down")}
	svc, _ := newTestService(guard)
	svc.WithLogger(logger.New(logger.Options{Level: logger.Info, Format: logger.FormatJSON, Output: &buf}))

	_, err := svc.Register(context.Background(), validRegister())
	require.NoError(t, err)

	// El login sigue valiendo aunque no se pueda limpiar el contador.
	_, err = svc.Authenticate(context.Background(), "ana@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "login guard reset failed")
	assert.Contains(t, buf.String(), "redis down")
}
