package users

import (
	"net/http"
	"strings"
	"time"

	"hairy-paws/internal/middleware"
	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/me", getMeHandler(svc, log))
		ur.Patch("/me", updateMeHandler(svc, log))

		// Solo ADMIN
		ur.Get("/", listUsersHandler(svc, log))
		ur.Patch("/{userID}/status", setStatusHandler(svc, log))
	})
}

// UserResponse es la vista pública de la cuenta. Nunca incluye el hash.
type UserResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Phone            string    `json:"phone"`
	Role             Role      `json:"role"`
	Status           Status    `json:"status"`
	Verified         bool      `json:"verified"`
	Address          string    `json:"address"`
	IdentityDocument string    `json:"identityDocument,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type updateMeRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

type setStatusRequest struct {
	Status string `json:"status" example:"SUSPENDED"`
}

// getMeHandler godoc
// @Summary Perfil del usuario autenticado
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /users/me [get]
func getMeHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		u, err := svc.FindByID(r.Context(), claims.UserID)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToResponse(u))
	}
}

// updateMeHandler godoc
// @Summary Actualizar perfil propio
// @Description Actualización parcial: solo se modifican los campos enviados.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body updateMeRequest true "Campos a modificar"
// @Success 200 {object} UserResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Router /users/me [patch]
func updateMeHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		var req updateMeRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), claims.UserID, UpdateProfileInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Address:   req.Address,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToResponse(u))
	}
}

// listUsersHandler godoc
// @Summary Listar usuarios (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Router /users [get]
func listUsersHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}
		if !claims.IsAdmin() {
			respond.Error(w, r, log, apperr.Forbidden("admin role required"))
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		out := make([]UserResponse, 0, len(items))
		for _, u := range items {
			out = append(out, ToResponse(u))
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// setStatusHandler godoc
// @Summary Cambiar estado de una cuenta (admin)
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "ID del usuario"
// @Param payload body setStatusRequest true "Nuevo estado"
// @Success 200 {object} UserResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody
// @Router /users/{userID}/status [patch]
func setStatusHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		var req setStatusRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		status := Status(strings.ToUpper(strings.TrimSpace(req.Status)))
		u, err := svc.SetStatus(r.Context(), claims, chi.URLParam(r, "userID"), status)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToResponse(u))
	}
}

func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            u.Phone,
		Role:             u.Role,
		Status:           u.Status,
		Verified:         u.Verified,
		Address:          u.Address,
		IdentityDocument: u.IdentityDocument,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
