package users

import (
	"net/http"

	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/respond"
	"hairy-paws/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterAuthRoutes monta /auth. loginLimit envuelve solo el login (puede ser nil).
func RegisterAuthRoutes(r chi.Router, svc *Service, issuer auth.TokenIssuer, log logger.Logger, loginLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc, log))

		login := http.Handler(loginHandler(svc, issuer, log))
		if loginLimit != nil {
			login = loginLimit(login)
		}
		ar.Method(http.MethodPost, "/login", login)
	})
}

type registerRequest struct {
	Email            string `json:"email" example:"ana@example.com"`
	Password         string `json:"password" example:"s3cretpass"`
	FirstName        string `json:"firstName" example:"Ana"`
	LastName         string `json:"lastName" example:"Quispe"`
	Phone            string `json:"phone" example:"+51 999 888 777"`
	Address          string `json:"address" example:"Av. Arequipa 123"`
	IdentityDocument string `json:"identityDocument,omitempty" example:"70112233"`
}

type loginRequest struct {
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"s3cretpass"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type" example:"Bearer"`
	ExpiresIn   int64        `json:"expires_in" example:"86400"`
	User        UserResponse `json:"user"`
}

// registerHandler godoc
// @Summary Registrar cuenta
// @Description Crea una cuenta ADOPTER activa.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} UserResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody "email ya registrado"
// @Router /auth/register [post]
func registerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Email:            req.Email,
			Password:         req.Password,
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			Phone:            req.Phone,
			Address:          req.Address,
			IdentityDocument: req.IdentityDocument,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, ToResponse(u))
	}
}

// loginHandler godoc
// @Summary Login
// @Description Devuelve un bearer token. 429 si la IP o el email están temporalmente bloqueados.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody "cuenta no activa"
// @Failure 429 {object} respond.ErrorBody
// @Router /auth/login [post]
func loginHandler(svc *Service, issuer auth.TokenIssuer, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		u, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		token, ttl, err := issuer.Issue(r.Context(), auth.Claims{
			UserID: u.ID,
			Email:  u.Email,
			Role:   string(u.Role),
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		respond.JSON(w, http.StatusOK, loginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(ttl.Seconds()),
			User:        ToResponse(u),
		})
	}
}
