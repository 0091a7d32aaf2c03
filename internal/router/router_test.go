package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"hairy-paws/internal/adapters/auth/jwt"
	"hairy-paws/internal/domain/users"
	"hairy-paws/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@hairypaws.dev"
	adminPassword = "admin-pass-123"
)

func newServer(t *testing.T, mutate func(*router.Options)) *httptest.Server {
	t.Helper()

	tokens, err := jwt.New(jwt.Config{Secret: "test-secret", TTL: time.Hour, Issuer: "hairy-paws-test"})
	require.NoError(t, err)

	opts := router.Options{
		AuthVerifier: tokens,
		TokenIssuer:  tokens,
		Admin: &users.RegisterInput{
			Email:    adminEmail,
			Password: adminPassword,
		},
	}
	if mutate != nil {
		mutate(&opts)
	}

	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

// -------------------------
// Flujos completos
// -------------------------

func TestHTTP_AdoptionFlow(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")

	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")

	st, body := doReq(t, ts.URL, "POST", "/adoptions/request", adopter, map[string]any{
		"animalId": animalID,
		"type":     "ADOPTION",
		"notes":    "I have a big garden",
	})
	require.Equal(t, http.StatusCreated, st, string(body))
	created := decodeRequest(t, body)
	assert.Equal(t, "PENDING", created.Status)
	assert.Nil(t, created.VisitDate)

	st, body = doReq(t, ts.URL, "GET", "/adoptions/received", owner, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	var received []requestView
	require.NoError(t, json.Unmarshal(body, &received))
	require.Len(t, received, 1)
	assert.Equal(t, animalID, received[0].AnimalID)
	assert.Equal(t, "adopter@test.com", received[0].AdopterInfo.Email)

	st, body = doReq(t, ts.URL, "POST", "/adoptions/"+created.ID+"/approve", owner, map[string]any{
		"notes": "Approved, welcome home",
	})
	require.Equal(t, http.StatusOK, st, string(body))
	assert.Equal(t, "APPROVED", decodeRequest(t, body).Status)

	assert.Equal(t, "ADOPTED", animalStatus(t, ts.URL, animalID))

	st, body = doReq(t, ts.URL, "GET", "/adoptions/"+created.ID, adopter, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	got := decodeRequest(t, body)
	assert.Equal(t, "APPROVED", got.Status)
	assert.Contains(t, got.Notes, "Approved")
	assert.Contains(t, got.Notes, "I have a big garden")
	assert.Equal(t, "owner@test.com", got.OwnerInfo.Email)

	// sent del adoptante
	st, body = doReq(t, ts.URL, "GET", "/adoptions/sent", adopter, nil)
	require.Equal(t, http.StatusOK, st)
	var sent []requestView
	require.NoError(t, json.Unmarshal(body, &sent))
	require.Len(t, sent, 1)
	assert.Equal(t, created.ID, sent[0].ID)
}

func TestHTTP_VisitFlow(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")

	animalID := createAnimal(t, ts.URL, owner, "Whiskers", "CAT")
	visitDate := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	st, body := doReq(t, ts.URL, "POST", "/adoptions/request", adopter, map[string]any{
		"animalId":  animalID,
		"type":      "VISIT",
		"visitDate": visitDate.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, st, string(body))
	created := decodeRequest(t, body)
	assert.Equal(t, "PENDING", created.Status)
	require.NotNil(t, created.VisitDate)
	assert.True(t, visitDate.Equal(*created.VisitDate))

	st, body = doReq(t, ts.URL, "POST", "/adoptions/"+created.ID+"/approve", owner, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	assert.Equal(t, "APPROVED", decodeRequest(t, body).Status)

	assert.Equal(t, "AVAILABLE", animalStatus(t, ts.URL, animalID))
}

func TestHTTP_VisitRequiresFutureDate(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Whiskers", "CAT")

	st, body := doReq(t, ts.URL, "POST", "/adoptions/request", adopter, map[string]any{
		"animalId":  animalID,
		"type":      "VISIT",
		"visitDate": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, st, string(body))
	assert.Contains(t, decodeError(t, body).Errors, "visitDate")
}

func TestHTTP_AdoptionIgnoresVisitDate(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Whiskers", "CAT")

	st, body := doReq(t, ts.URL, "POST", "/adoptions/request", adopter, map[string]any{
		"animalId":  animalID,
		"type":      "ADOPTION",
		"visitDate": "next tuesday",
	})
	require.Equal(t, http.StatusCreated, st, string(body))
	v := decodeRequest(t, body)
	assert.Equal(t, "PENDING", v.Status)
	assert.Nil(t, v.VisitDate)
}

func TestHTTP_RejectLeavesAnimalUntouched(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Rex", "DOG")

	_, before := doReq(t, ts.URL, "GET", "/animals/"+animalID, "", nil)

	reqID := requestAdoption(t, ts.URL, adopter, animalID)
	st, body := doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/reject", owner, map[string]any{"notes": "Sorry"})
	require.Equal(t, http.StatusOK, st, string(body))
	assert.Equal(t, "REJECTED", decodeRequest(t, body).Status)

	_, after := doReq(t, ts.URL, "GET", "/animals/"+animalID, "", nil)
	assert.JSONEq(t, string(before), string(after))

	// terminal: ni approve ni reject otra vez
	st, _ = doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/approve", owner, nil)
	assert.Equal(t, http.StatusConflict, st)
	st, _ = doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/reject", owner, nil)
	assert.Equal(t, http.StatusConflict, st)
}

// -------------------------
// Autorización y conflictos
// -------------------------

func TestHTTP_ThirdPartyAndAdopterCannotDecide(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	stranger := signUp(t, ts.URL, "stranger@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")
	reqID := requestAdoption(t, ts.URL, adopter, animalID)

	st, _ := doReq(t, ts.URL, "GET", "/adoptions/"+reqID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, st)

	st, _ = doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/approve", stranger, nil)
	assert.Equal(t, http.StatusForbidden, st)

	st, _ = doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/approve", adopter, nil)
	assert.Equal(t, http.StatusForbidden, st)

	st, _ = doReq(t, ts.URL, "GET", "/adoptions/does-not-exist", owner, nil)
	assert.Equal(t, http.StatusNotFound, st)

	st, _ = doReq(t, ts.URL, "GET", "/adoptions/"+reqID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, st)

	assert.Equal(t, "AVAILABLE", animalStatus(t, ts.URL, animalID))
}

func TestHTTP_AdminCanApprove(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	admin := login(t, ts.URL, adminEmail, adminPassword)

	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")
	reqID := requestAdoption(t, ts.URL, adopter, animalID)

	st, body := doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	assert.Equal(t, "ADOPTED", animalStatus(t, ts.URL, animalID))

	st, _ = doReq(t, ts.URL, "GET", "/users", admin, nil)
	assert.Equal(t, http.StatusOK, st)
	st, _ = doReq(t, ts.URL, "GET", "/users", owner, nil)
	assert.Equal(t, http.StatusForbidden, st)
}

func TestHTTP_SelfRequestAndUnavailableAnimal(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	late := signUp(t, ts.URL, "late@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")

	st, _ := doReq(t, ts.URL, "POST", "/adoptions/request", owner, map[string]any{
		"animalId": animalID,
		"type":     "ADOPTION",
	})
	assert.Equal(t, http.StatusConflict, st)

	reqID := requestAdoption(t, ts.URL, adopter, animalID)

	// segunda solicitud PENDING del mismo adoptante
	st, _ = doReq(t, ts.URL, "POST", "/adoptions/request", adopter, map[string]any{
		"animalId": animalID,
		"type":     "ADOPTION",
	})
	assert.Equal(t, http.StatusConflict, st)

	st, _ = doReq(t, ts.URL, "POST", "/adoptions/"+reqID+"/approve", owner, nil)
	require.Equal(t, http.StatusOK, st)

	st, body := doReq(t, ts.URL, "POST", "/adoptions/request", late, map[string]any{
		"animalId": animalID,
		"type":     "ADOPTION",
	})
	assert.Equal(t, http.StatusConflict, st, string(body))

	st, _ = doReq(t, ts.URL, "POST", "/adoptions/request", late, map[string]any{
		"animalId": "missing-animal",
		"type":     "ADOPTION",
	})
	assert.Equal(t, http.StatusNotFound, st)
}

func TestHTTP_ConcurrentApprove_ExactlyOneWins(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")
	reqID := requestAdoption(t, ts.URL, adopter, animalID)

	const n = 2
	codes := make([]int, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			codes[i], _ = doReqNoFatal(ts.URL, "POST", "/adoptions/"+reqID+"/approve", owner, nil)
		}(i)
	}
	close(start)
	wg.Wait()

	sort.Ints(codes)
	assert.Equal(t, []int{http.StatusOK, http.StatusConflict}, codes)
	assert.Equal(t, "ADOPTED", animalStatus(t, ts.URL, animalID))
}

func TestHTTP_DeleteAnimalCascadesRequests(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")
	reqID := requestAdoption(t, ts.URL, adopter, animalID)

	st, _ := doReq(t, ts.URL, "DELETE", "/animals/"+animalID, adopter, nil)
	assert.Equal(t, http.StatusForbidden, st)

	st, body := doReq(t, ts.URL, "DELETE", "/animals/"+animalID, owner, nil)
	require.Equal(t, http.StatusNoContent, st, string(body))

	st, _ = doReq(t, ts.URL, "GET", "/animals/"+animalID, "", nil)
	assert.Equal(t, http.StatusNotFound, st)
	st, _ = doReq(t, ts.URL, "GET", "/adoptions/"+reqID, adopter, nil)
	assert.Equal(t, http.StatusNotFound, st)

	st, body = doReq(t, ts.URL, "GET", "/adoptions/sent", adopter, nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, "[]", string(body))
}

// -------------------------
// Boundary: validación, auth, headers
// -------------------------

func TestHTTP_ValidationEnvelope(t *testing.T) {
	ts := newServer(t, nil)

	// campo desconocido
	st, body := doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
		"email":     "ana@test.com",
		"password":  "password123",
		"firstName": "Ana",
		"lastName":  "Quispe",
		"isAdmin":   true,
	})
	require.Equal(t, http.StatusBadRequest, st, string(body))
	env := decodeError(t, body)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Equal(t, "Bad Request", env.Error)

	// campos inválidos => mapa por campo
	st, body = doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
		"email":    "not-an-email",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, st)
	env = decodeError(t, body)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
	assert.Contains(t, env.Errors, "firstName")

	signUp(t, ts.URL, "ana@test.com")
	st, body = doReq(t, ts.URL, "POST", "/auth/register", "", registerPayload("ANA@test.com"))
	assert.Equal(t, http.StatusConflict, st, string(body))

	owner := login(t, ts.URL, "ana@test.com", "password123")
	st, body = doReq(t, ts.URL, "POST", "/adoptions/request", owner, map[string]any{
		"animalId": "",
		"type":     "ADOPT",
	})
	require.Equal(t, http.StatusBadRequest, st)
	env = decodeError(t, body)
	assert.Contains(t, env.Errors, "animalId")
	assert.Contains(t, env.Errors, "type")
}

func TestHTTP_AuthRequired(t *testing.T) {
	ts := newServer(t, nil)

	for _, p := range []string{"/adoptions/received", "/adoptions/sent", "/me/animals", "/users/me"} {
		st, body := doReq(t, ts.URL, "GET", p, "", nil)
		assert.Equal(t, http.StatusUnauthorized, st, p)
		assert.Equal(t, http.StatusUnauthorized, decodeError(t, body).StatusCode)
	}

	st, _ := doReq(t, ts.URL, "GET", "/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, st)

	// listado de animales es público
	st, _ = doReq(t, ts.URL, "GET", "/animals", "", nil)
	assert.Equal(t, http.StatusOK, st)
}

func TestHTTP_LoginLockout(t *testing.T) {
	ts := newServer(t, func(o *router.Options) {
		o.LoginFailLimit = 3
		o.LoginFailTTL = time.Minute
	})

	signUp(t, ts.URL, "ana@test.com")

	for i := 0; i < 3; i++ {
		st, _ := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
			"email":    "ana@test.com",
			"password": "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, st)
	}

	st, body := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"email":    "ana@test.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusTooManyRequests, st, string(body))
}

func TestHTTP_LoginRateLimitPerIP(t *testing.T) {
	ts := newServer(t, func(o *router.Options) {
		o.LoginRatePerSec = 0.001
		o.LoginRateBurst = 2
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		st, _ := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
			"email":    "nobody@test.com",
			"password": "whatever1",
		})
		codes = append(codes, st)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestHTTP_SuspendedUserCannotRequest(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	adopter := signUp(t, ts.URL, "adopter@test.com")
	admin := login(t, ts.URL, adminEmail, adminPassword)
	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")

	st, body := doReq(t, ts.URL, "GET", "/users/me", adopter, nil)
	require.Equal(t, http.StatusOK, st)
	var me struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &me))

	st, body = doReq(t, ts.URL, "PATCH", "/users/"+me.ID+"/status", admin, map[string]any{"status": "SUSPENDED"})
	require.Equal(t, http.StatusOK, st, string(body))

	// el token sigue siendo válido, pero la cuenta ya no está activa
	st, _ = doReq(t, ts.URL, "POST", "/adoptions/request", adopter, map[string]any{
		"animalId": animalID,
		"type":     "ADOPTION",
	})
	assert.Equal(t, http.StatusForbidden, st)

	st, _ = doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"email":    "adopter@test.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, st)
}

func TestHTTP_AnimalImageUpload_MemoryStore(t *testing.T) {
	ts := newServer(t, nil)

	owner := signUp(t, ts.URL, "owner@test.com")
	animalID := createAnimal(t, ts.URL, owner, "Fluffy", "DOG")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "fluffy.png")
	require.NoError(t, err)
	_, err = fw.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/animals/"+animalID+"/images", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+owner)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))

	var animal struct {
		Images []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(body, &animal))
	require.Len(t, animal.Images, 1)
	assert.True(t, strings.HasPrefix(animal.Images[0], router.UploadsPath+"/animals/"+animalID+"/"))

	img, err := http.Get(ts.URL + animal.Images[0])
	require.NoError(t, err)
	defer img.Body.Close()
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))
}

func TestHTTP_PrefixDocsHealthMetrics(t *testing.T) {
	ts := newServer(t, func(o *router.Options) {
		o.APIPrefix = "api"
		o.AppName = "HairyPaws"
		o.AppVersion = "2.1"
		o.CORSOrigins = []string{"*"}
	})

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, st)
	assert.Equal(t, "ok", string(body))

	st, _ = doReq(t, ts.URL, "GET", "/animals", "", nil)
	assert.Equal(t, http.StatusNotFound, st)
	st, _ = doReq(t, ts.URL, "GET", "/api/animals", "", nil)
	assert.Equal(t, http.StatusOK, st)

	st, body = doReq(t, ts.URL, "GET", "/api/docs-json", "", nil)
	require.Equal(t, http.StatusOK, st)
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "HairyPaws API", doc.Info.Title)
	assert.Equal(t, "2.1", doc.Info.Version)
	assert.Equal(t, "/api", doc.BasePath)
	assert.Contains(t, doc.Paths, "/adoptions/{adoptionID}/approve")

	st, _ = doReq(t, ts.URL, "GET", "/api/docs/index.html", "", nil)
	assert.Equal(t, http.StatusOK, st)

	st, body = doReq(t, ts.URL, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), "hairy_paws_http_requests_total")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/animals", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://front.example.com")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://front.example.com", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "nosniff", res.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestHTTP_DevModeDebugHeader(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/adoptions/sent", nil)
	require.NoError(t, err)
	req.Header.Set("X-Debug-User-ID", "dev-user")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// -------------------------
// Helpers
// -------------------------

type partyView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type requestView struct {
	ID          string     `json:"id"`
	AnimalID    string     `json:"animalId"`
	Status      string     `json:"status"`
	Type        string     `json:"type"`
	VisitDate   *time.Time `json:"visitDate"`
	Notes       string     `json:"notes"`
	AdopterInfo partyView  `json:"adopterInfo"`
	OwnerInfo   partyView  `json:"ownerInfo"`
}

type errorView struct {
	StatusCode int               `json:"statusCode"`
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors"`
}

func decodeRequest(t *testing.T, body []byte) requestView {
	t.Helper()
	var v requestView
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	require.NotEmpty(t, v.ID, string(body))
	return v
}

func decodeError(t *testing.T, body []byte) errorView {
	t.Helper()
	var v errorView
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func registerPayload(email string) map[string]any {
	return map[string]any{
		"email":     email,
		"password":  "password123",
		"firstName": "Test",
		"lastName":  "User",
		"phone":     "+51 999 000 111",
	}
}

// signUp registra y hace login; devuelve el access token.
func signUp(t *testing.T, baseURL, email string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/auth/register", "", registerPayload(email))
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}
	return login(t, baseURL, email, "password123")
}

func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("login: unexpected body=%s", string(body))
	}
	return resp.AccessToken
}

func createAnimal(t *testing.T, baseURL, token, name, typ string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/animals", token, map[string]any{
		"name":         name,
		"type":         typ,
		"breed":        "Mixed",
		"gender":       "FEMALE",
		"age":          2,
		"weight":       4.5,
		"color":        "White",
		"description":  "Friendly",
		"isVaccinated": true,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create animal, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID             string `json:"id"`
		AdoptionStatus string `json:"adoptionStatus"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" || resp.AdoptionStatus != "AVAILABLE" {
		t.Fatalf("create animal: unexpected body=%s", string(body))
	}
	return resp.ID
}

func requestAdoption(t *testing.T, baseURL, token, animalID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/adoptions/request", token, map[string]any{
		"animalId": animalID,
		"type":     "ADOPTION",
		"notes":    "please",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 adoption request, got %d body=%s", st, string(body))
	}
	return decodeRequest(t, body).ID
}

func animalStatus(t *testing.T, baseURL, animalID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/animals/"+animalID, "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 get animal, got %d body=%s", st, string(body))
	}
	var resp struct {
		AdoptionStatus string `json:"adoptionStatus"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.AdoptionStatus
}

func doReq(t *testing.T, baseURL, method, path, token string, body any) (int, []byte) {
	t.Helper()

	st, respBody, err := send(baseURL, method, path, token, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return st, respBody
}

// doReqNoFatal es para goroutines (t.Fatalf no se puede llamar fuera del test).
func doReqNoFatal(baseURL, method, path, token string, body any) (int, []byte) {
	st, respBody, err := send(baseURL, method, path, token, body)
	if err != nil {
		return 0, nil
	}
	return st, respBody
}

func send(baseURL, method, path, token string, body any) (int, []byte, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	return res.StatusCode, respBody, err
}
