package adoptions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"hairy-paws/internal/middleware"
	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/respond"
	"hairy-paws/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/adoptions", func(ar chi.Router) {
		ar.Post("/request", createRequestHandler(svc, log))
		ar.Get("/received", listReceivedHandler(svc, log))
		ar.Get("/sent", listSentHandler(svc, log))

		ar.Get("/{adoptionID}", getRequestHandler(svc, log))
		ar.Post("/{adoptionID}/approve", decideHandler(log, svc.Approve))
		ar.Post("/{adoptionID}/reject", decideHandler(log, svc.Reject))
	})
}

type createRequest struct {
	AnimalID  string  `json:"animalId" example:"7f7c0a52-3d1e-4b8e-9a55-0b1f5d6c2e11"`
	Type      string  `json:"type" example:"ADOPTION"`
	VisitDate *string `json:"visitDate,omitempty" example:"2030-05-10T15:00:00Z"` // RFC3339, solo VISIT
	Notes     string  `json:"notes,omitempty" example:"Tengo patio grande"`
}

type decisionRequest struct {
	Notes string `json:"notes,omitempty" example:"Approved, coordinate pickup"`
}

// PartyResponse es la info de contacto de adoptante o dueño.
type PartyResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// RequestResponse es la solicitud tal como la ve el cliente.
type RequestResponse struct {
	ID          string        `json:"id"`
	AnimalID    string        `json:"animalId"`
	AnimalName  string        `json:"animalName"`
	Status      Status        `json:"status"`
	Type        Type          `json:"type"`
	VisitDate   *time.Time    `json:"visitDate"`
	Notes       string        `json:"notes"`
	DecidedAt   *time.Time    `json:"decidedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	AdopterInfo PartyResponse `json:"adopterInfo"`
	OwnerInfo   PartyResponse `json:"ownerInfo"`
}

// createRequestHandler godoc
// @Summary Solicitar adopción o visita
// @Description type ADOPTION exige animal AVAILABLE. type VISIT exige visitDate futuro (RFC3339).
// @Tags adoptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body createRequest true "Solicitud"
// @Success 201 {object} RequestResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody "animal no disponible, solicitud propia o duplicada"
// @Router /adoptions/request [post]
func createRequestHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		var req createRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		var visitDate *time.Time
		// visitDate solo cuenta en VISIT; en ADOPTION se ignora.
		if strings.EqualFold(strings.TrimSpace(req.Type), string(TypeVisit)) && req.VisitDate != nil && strings.TrimSpace(*req.VisitDate) != "" {
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.VisitDate))
			if err != nil {
				respond.Error(w, r, log, apperr.ValidationField("visitDate", "visitDate must be an RFC3339 timestamp"))
				return
			}
			visitDate = &t
		}

		v, err := svc.Create(r.Context(), claims, CreateInput{
			AnimalID:  req.AnimalID,
			Type:      req.Type,
			VisitDate: visitDate,
			Notes:     req.Notes,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, ToResponse(v))
	}
}

// listReceivedHandler godoc
// @Summary Solicitudes recibidas
// @Description Solicitudes sobre animales del usuario autenticado, más recientes primero.
// @Tags adoptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RequestResponse
// @Failure 401 {object} respond.ErrorBody
// @Router /adoptions/received [get]
func listReceivedHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		items, err := svc.ListReceived(r.Context(), claims)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponses(items))
	}
}

// listSentHandler godoc
// @Summary Solicitudes enviadas
// @Description Solicitudes hechas por el usuario autenticado, más recientes primero.
// @Tags adoptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RequestResponse
// @Failure 401 {object} respond.ErrorBody
// @Router /adoptions/sent [get]
func listSentHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		items, err := svc.ListSent(r.Context(), claims)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponses(items))
	}
}

// getRequestHandler godoc
// @Summary Detalle de una solicitud
// @Description Solo el adoptante, el dueño del animal o un ADMIN.
// @Tags adoptions
// @Produce json
// @Security BearerAuth
// @Param adoptionID path string true "ID de la solicitud"
// @Success 200 {object} RequestResponse
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /adoptions/{adoptionID} [get]
func getRequestHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		v, err := svc.Get(r.Context(), claims, chi.URLParam(r, "adoptionID"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToResponse(v))
	}
}

type decideFunc func(ctx context.Context, actor auth.Claims, id, notes string) (View, error)

// decideHandler godoc
// @Summary Aprobar o rechazar una solicitud
// @Description Solo el dueño del animal o un ADMIN, y solo si sigue PENDING. Las notas se agregan en una línea nueva.
// @Tags adoptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param adoptionID path string true "ID de la solicitud"
// @Param payload body decisionRequest false "Notas opcionales"
// @Success 200 {object} RequestResponse
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody "ya decidida o animal no disponible"
// @Router /adoptions/{adoptionID}/approve [post]
// @Router /adoptions/{adoptionID}/reject [post]
func decideHandler(log logger.Logger, decide decideFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		var req decisionRequest
		if err := respond.DecodeOptional(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		v, err := decide(r.Context(), claims, chi.URLParam(r, "adoptionID"), req.Notes)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToResponse(v))
	}
}

func toResponses(items []View) []RequestResponse {
	out := make([]RequestResponse, 0, len(items))
	for _, v := range items {
		out = append(out, ToResponse(v))
	}
	return out
}

func ToResponse(v View) RequestResponse {
	return RequestResponse{
		ID:          v.ID,
		AnimalID:    v.AnimalID,
		AnimalName:  v.AnimalName,
		Status:      v.Status,
		Type:        v.Type,
		VisitDate:   v.VisitDate,
		Notes:       v.Notes,
		DecidedAt:   v.DecidedAt,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		AdopterInfo: toPartyResponse(v.Adopter),
		OwnerInfo:   toPartyResponse(v.Owner),
	}
}

func toPartyResponse(p Party) PartyResponse {
	return PartyResponse{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
	}
}
