package memory

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hairy-paws/internal/domain/adoptions"
	"hairy-paws/internal/domain/animals"
	"hairy-paws/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Animals().Create(ctx, animals.Animal{
		ID: "a1", OwnerUserID: "owner", Name: "Fluffy", Type: animals.TypeDog,
		AdoptionStatus: animals.StatusAvailable, CreatedAt: t0,
	}))
	require.NoError(t, s.Animals().Create(ctx, animals.Animal{
		ID: "a2", OwnerUserID: "owner", Name: "Whiskers", Breed: "Siamese", Type: animals.TypeCat,
		AdoptionStatus: animals.StatusAvailable, CreatedAt: t0.Add(time.Minute),
	}))
	require.NoError(t, s.Adoptions().Create(ctx, adoptions.Request{
		ID: "r1", AnimalID: "a1", OwnerUserID: "owner", AdopterUserID: "adopter",
		Type: adoptions.TypeAdoption, Status: adoptions.StatusPending, CreatedAt: t0,
	}))
}

func TestUsers_EmailUniqueCaseInsensitive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Users().Create(ctx, users.User{ID: "u1", Email: "ana@example.com"}))
	err := s.Users().Create(ctx, users.User{ID: "u2", Email: "ANA@example.com"})
	assert.ErrorIs(t, err, users.ErrEmailTaken)

	u, err := s.Users().GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = s.Users().GetByID(ctx, "nope")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestAnimals_ListFiltersAndPaging(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	all, err := s.Animals().List(ctx, animals.ListFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID, "newest first")

	cats, err := s.Animals().List(ctx, animals.ListFilter{Type: animals.TypeCat})
	require.NoError(t, err)
	require.Len(t, cats, 1)

	bySearch, err := s.Animals().List(ctx, animals.ListFilter{Query: "siam"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "a2", bySearch[0].ID)

	page, err := s.Animals().List(ctx, animals.ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a1", page[0].ID)

	empty, err := s.Animals().List(ctx, animals.ListFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAnimals_DeleteCascadesRequests(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Animals().Delete(ctx, "a1"))

	_, err := s.Adoptions().GetByID(ctx, "r1")
	assert.ErrorIs(t, err, adoptions.ErrNotFound)
	assert.ErrorIs(t, s.Animals().Delete(ctx, "a1"), animals.ErrNotFound)
}

func TestAnimals_ImagesAreCopied(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	a, err := s.Animals().GetByID(ctx, "a1")
	require.NoError(t, err)
	a.Images = append(a.Images, "x")

	again, err := s.Animals().GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, again.Images)
}

func TestAdoptions_DuplicatePending(t *testing.T) {
	s := NewStore()
	seed(t, s)

	err := s.Adoptions().Create(context.Background(), adoptions.Request{
		ID: "r2", AnimalID: "a1", OwnerUserID: "owner", AdopterUserID: "adopter",
		Type: adoptions.TypeAdoption, Status: adoptions.StatusPending,
	})
	assert.ErrorIs(t, err, adoptions.ErrDuplicatePending)
}

func TestApplyDecision_CompareAndSet(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	d := adoptions.Decision{
		RequestID: "r1", Status: adoptions.StatusApproved, Notes: "ok",
		DecidedBy: "owner", DecidedAt: t0.Add(time.Hour), AdoptAnimalID: "a1",
	}

	const n = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Adoptions().ApplyDecision(ctx, d)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, adoptions.ErrNotPending)
	}
	assert.Equal(t, 1, ok)

	a, err := s.Animals().GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, animals.StatusAdopted, a.AdoptionStatus)

	r, err := s.Adoptions().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, adoptions.StatusApproved, r.Status)
	require.NotNil(t, r.DecidedAt)
}

func TestApplyDecision_AnimalUnavailableRollsBack(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	a, _ := s.Animals().GetByID(ctx, "a1")
	a.AdoptionStatus = animals.StatusUnavailable
	require.NoError(t, s.Animals().Update(ctx, a))

	_, err := s.Adoptions().ApplyDecision(ctx, adoptions.Decision{
		RequestID: "r1", Status: adoptions.StatusApproved, DecidedAt: t0, AdoptAnimalID: "a1",
	})
	assert.ErrorIs(t, err, adoptions.ErrAnimalUnavailable)

	r, err := s.Adoptions().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, adoptions.StatusPending, r.Status)
}

func TestLoginGuard_LocksAndExpires(t *testing.T) {
	g := NewLoginGuard(2, time.Minute)
	now := t0
	g.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, g.RecordFailure(ctx, "k"))
	locked, _ := g.Locked(ctx, "k")
	assert.False(t, locked)

	require.NoError(t, g.RecordFailure(ctx, "k"))
	locked, _ = g.Locked(ctx, "k")
	assert.True(t, locked)

	now = now.Add(2 * time.Minute)
	locked, _ = g.Locked(ctx, "k")
	assert.False(t, locked)

	require.NoError(t, g.RecordFailure(ctx, "k"))
	require.NoError(t, g.Reset(ctx, "k"))
	locked, _ = g.Locked(ctx, "k")
	assert.False(t, locked)
}

func TestImageStore_PutAndServe(t *testing.T) {
	s := NewImageStore("/uploads/")
	url, err := s.Put(context.Background(), "animals/a1/x.png", strings.NewReader("PNGDATA"), 7, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/animals/a1/x.png", url)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/animals/a1/x.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, bytes.Equal([]byte("PNGDATA"), body))

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
