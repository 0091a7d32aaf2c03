package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/animals/{animalID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/animals/{animalID}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/animals/123", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/animals/{animalID}", "418"))
	assert.Equal(t, before+1, after)
}

func TestRecordAdoptionTransition(t *testing.T) {
	c := adoptionTransitions.WithLabelValues("ADOPTION", "APPROVED")
	before := testutil.ToFloat64(c)

	RecordAdoptionTransition("ADOPTION", "APPROVED")

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestHandler_ExposesNamespace(t *testing.T) {
	RecordLogin("success")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hairy_paws_auth_login_attempts_total")
}
