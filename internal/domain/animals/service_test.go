package animals

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Animal
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Animal{}}
}

func (r *testRepo) Create(_ context.Context, a Animal) error {
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Update(_ context.Context, a Animal) error {
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) AppendImage(_ context.Context, id, url string, at time.Time) (Animal, error) {
	a, ok := r.byID[id]
	if !ok {
		return Animal{}, ErrNotFound
	}
	a.Images = append(a.Images, url)
	a.UpdatedAt = at
	r.byID[id] = a
	return a, nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Animal, error) {
	a, ok := r.byID[id]
	if !ok {
		return Animal{}, ErrNotFound
	}
	return a, nil
}

func (r *testRepo) List(_ context.Context, f ListFilter) ([]Animal, error) {
	out := make([]Animal, 0)
	for _, a := range r.byID {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) ListByOwner(_ context.Context, ownerUserID string) ([]Animal, error) {
	out := make([]Animal, 0)
	for _, a := range r.byID {
		if a.OwnerUserID == ownerUserID {
			out = append(out, a)
		}
	}
	return out, nil
}

type testImages struct {
	keys map[string][]byte
	// onPut corre durante la subida, antes de devolver la URL.
	onPut func()
}

func (s *testImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.keys[key] = b
	if s.onPut != nil {
		s.onPut()
	}
	return "https://img.test/" + key, nil
}

func newTestService() (*Service, *testRepo, *testImages) {
	repo := newTestRepo()
	images := &testImages{keys: map[string][]byte{}}
	svc := NewService(repo, images)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, images
}

func fluffy() CreateInput {
	return CreateInput{
		Name:   "Fluffy",
		Type:   "dog",
		Breed:  "Golden Retriever",
		Gender: "MALE",
		Age:    2,
		Weight: 25.5,
	}
}

var (
	owner    = auth.Claims{UserID: "owner-1", Role: "ADOPTER"}
	stranger = auth.Claims{UserID: "other-1", Role: "ADOPTER"}
	admin    = auth.Claims{UserID: "admin-1", Role: auth.RoleAdmin}
)

func TestCreate_Defaults(t *testing.T) {
	svc, _, _ := newTestService()

	a, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)
	assert.Equal(t, TypeDog, a.Type)
	assert.Equal(t, StatusAvailable, a.AdoptionStatus)
	assert.Equal(t, owner.UserID, a.OwnerUserID)
	assert.Empty(t, a.Images)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	in := fluffy()
	in.Name = " "
	in.Type = "DRAGON"
	in.Age = 99
	in.AdoptionStatus = "ADOPTED"

	_, err := svc.Create(context.Background(), owner.UserID, in)
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	for _, f := range []string{"name", "type", "age", "adoptionStatus"} {
		assert.Contains(t, e.Fields, f)
	}
}

func TestUpdate_Permissions(t *testing.T) {
	svc, _, _ := newTestService()
	a, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)

	name := "Fluffy II"
	_, err = svc.Update(context.Background(), stranger, a.ID, UpdateInput{Name: &name})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := svc.Update(context.Background(), admin, a.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Fluffy II", got.Name)
	assert.Equal(t, "Golden Retriever", got.Breed)

	_, err = svc.Update(context.Background(), owner, "missing", UpdateInput{Name: &name})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdate_AdoptedIsNotManual(t *testing.T) {
	svc, repo, _ := newTestService()
	a, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)

	adopted := string(StatusAdopted)
	_, err = svc.Update(context.Background(), owner, a.ID, UpdateInput{AdoptionStatus: &adopted})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	unavailable := string(StatusUnavailable)
	got, err := svc.Update(context.Background(), owner, a.ID, UpdateInput{AdoptionStatus: &unavailable})
	require.NoError(t, err)
	assert.Equal(t, StatusUnavailable, got.AdoptionStatus)

	// Una vez adoptado, no vuelve a AVAILABLE a mano.
	a = repo.byID[a.ID]
	a.AdoptionStatus = StatusAdopted
	repo.byID[a.ID] = a
	available := string(StatusAvailable)
	_, err = svc.Update(context.Background(), owner, a.ID, UpdateInput{AdoptionStatus: &available})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestService()
	a, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), stranger, a.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, svc.Delete(context.Background(), owner, a.ID))
	assert.Empty(t, repo.byID)
}

func TestList_ValidatesAndDefaultsLimit(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListFilter{Type: "DRAGON", Limit: 1000})
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "type")
	assert.Contains(t, e.Fields, "limit")

	items, err := svc.List(context.Background(), ListFilter{Query: " fluf "})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAddImage(t *testing.T) {
	svc, _, images := newTestService()
	a, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	got, err := svc.AddImage(context.Background(), owner, a.ID, ImageUpload{Body: bytes.NewReader(png), Size: int64(len(png))})
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.True(t, strings.HasPrefix(got.Images[0], "https://img.test/animals/"+a.ID+"/"))
	assert.True(t, strings.HasSuffix(got.Images[0], ".png"))

	// El contenido llega completo al store (incluye los bytes usados para detectar el tipo).
	for _, b := range images.keys {
		assert.Equal(t, png, b)
	}
}

func TestAddImage_Rejects(t *testing.T) {
	svc, _, _ := newTestService()
	svc.WithMaxImageBytes(16)
	a, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)

	text := []byte("hello")
	_, err = svc.AddImage(context.Background(), owner, a.ID, ImageUpload{Body: bytes.NewReader(text), Size: int64(len(text))})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	big := bytes.Repeat([]byte{0xff}, 32)
	_, err = svc.AddImage(context.Background(), owner, a.ID, ImageUpload{Body: bytes.NewReader(big), Size: int64(len(big))})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.AddImage(context.Background(), stranger, a.ID, ImageUpload{Body: bytes.NewReader(text), Size: 5})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestAddImage_KeepsChangesMadeDuringUpload(t *testing.T) {
	svc, repo, images := newTestService()
	a, err := svc.Create(context.Background(), owner.UserID, fluffy())
	require.NoError(t, err)

	unavailable := string(StatusUnavailable)
	images.onPut = func() {
		_, err := svc.Update(context.Background(), owner, a.ID, UpdateInput{AdoptionStatus: &unavailable})
		require.NoError(t, err)
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	got, err := svc.AddImage(context.Background(), owner, a.ID, ImageUpload{Body: bytes.NewReader(png), Size: int64(len(png))})
	require.NoError(t, err)

	assert.Equal(t, StatusUnavailable, got.AdoptionStatus)
	assert.Len(t, got.Images, 1)
	assert.Equal(t, StatusUnavailable, repo.byID[a.ID].AdoptionStatus)
}
