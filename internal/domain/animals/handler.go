package animals

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hairy-paws/internal/middleware"
	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/animals", func(ar chi.Router) {
		// Público
		ar.Get("/", listAnimalsHandler(svc, log))
		ar.Get("/{animalID}", getAnimalHandler(svc, log))

		// Owner (o ADMIN)
		ar.Post("/", createAnimalHandler(svc, log))
		ar.Patch("/{animalID}", updateAnimalHandler(svc, log))
		ar.Delete("/{animalID}", deleteAnimalHandler(svc, log))
		ar.Post("/{animalID}/images", uploadImageHandler(svc, log))
	})

	r.Get("/me/animals", listMyAnimalsHandler(svc, log))
}

type createAnimalRequest struct {
	Name           string  `json:"name" example:"Fluffy"`
	Type           string  `json:"type" example:"DOG"`
	Breed          string  `json:"breed" example:"Golden Retriever"`
	Gender         string  `json:"gender" example:"MALE"`
	Age            int     `json:"age" example:"2"`
	Weight         float64 `json:"weight" example:"25.5"`
	Color          string  `json:"color" example:"Golden"`
	Description    string  `json:"description"`
	HealthDetails  string  `json:"healthDetails"`
	IsVaccinated   bool    `json:"isVaccinated"`
	IsNeutered     bool    `json:"isNeutered"`
	AdoptionStatus string  `json:"adoptionStatus,omitempty" example:"AVAILABLE"`
}

type updateAnimalRequest struct {
	Name           *string  `json:"name"`
	Type           *string  `json:"type"`
	Breed          *string  `json:"breed"`
	Gender         *string  `json:"gender"`
	Age            *int     `json:"age"`
	Weight         *float64 `json:"weight"`
	Color          *string  `json:"color"`
	Description    *string  `json:"description"`
	HealthDetails  *string  `json:"healthDetails"`
	IsVaccinated   *bool    `json:"isVaccinated"`
	IsNeutered     *bool    `json:"isNeutered"`
	AdoptionStatus *string  `json:"adoptionStatus"`
}

// AnimalResponse es la representación pública de un animal.
type AnimalResponse struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"ownerId"`
	Name           string         `json:"name"`
	Type           Type           `json:"type"`
	Breed          string         `json:"breed"`
	Gender         Gender         `json:"gender"`
	Age            int            `json:"age"`
	Weight         float64        `json:"weight,omitempty"`
	Color          string         `json:"color"`
	Description    string         `json:"description"`
	HealthDetails  string         `json:"healthDetails"`
	IsVaccinated   bool           `json:"isVaccinated"`
	IsNeutered     bool           `json:"isNeutered"`
	AdoptionStatus AdoptionStatus `json:"adoptionStatus"`
	Images         []string       `json:"images"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// createAnimalHandler godoc
// @Summary Publicar animal
// @Description El usuario autenticado queda como dueño. adoptionStatus acepta AVAILABLE o UNAVAILABLE.
// @Tags animals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body createAnimalRequest true "Datos del animal"
// @Success 201 {object} AnimalResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Router /animals [post]
func createAnimalHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		var req createAnimalRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		a, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:           req.Name,
			Type:           req.Type,
			Breed:          req.Breed,
			Gender:         req.Gender,
			Age:            req.Age,
			Weight:         req.Weight,
			Color:          req.Color,
			Description:    req.Description,
			HealthDetails:  req.HealthDetails,
			IsVaccinated:   req.IsVaccinated,
			IsNeutered:     req.IsNeutered,
			AdoptionStatus: req.AdoptionStatus,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, ToResponse(a))
	}
}

// listAnimalsHandler godoc
// @Summary Listar animales
// @Description Listado público, más recientes primero.
// @Tags animals
// @Produce json
// @Param type query string false "DOG, CAT, BIRD, RABBIT, OTHER"
// @Param gender query string false "MALE, FEMALE, UNKNOWN"
// @Param status query string false "AVAILABLE, ADOPTED, UNAVAILABLE"
// @Param q query string false "Texto a buscar en nombre o raza"
// @Param limit query int false "Máximo de resultados (1-100, default 20)"
// @Param offset query int false "Desplazamiento"
// @Success 200 {array} AnimalResponse
// @Failure 400 {object} respond.ErrorBody
// @Router /animals [get]
func listAnimalsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseListFilter(r)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponses(items))
	}
}

// getAnimalHandler godoc
// @Summary Detalle de un animal
// @Tags animals
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {object} AnimalResponse
// @Failure 404 {object} respond.ErrorBody
// @Router /animals/{animalID} [get]
func getAnimalHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.FindByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToResponse(a))
	}
}

// listMyAnimalsHandler godoc
// @Summary Mis animales publicados
// @Tags animals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AnimalResponse
// @Failure 401 {object} respond.ErrorBody
// @Router /me/animals [get]
func listMyAnimalsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, toResponses(items))
	}
}

// updateAnimalHandler godoc
// @Summary Actualizar animal
// @Description Actualización parcial, solo dueño o ADMIN. ADOPTED no se asigna a mano.
// @Tags animals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param animalID path string true "ID del animal"
// @Param payload body updateAnimalRequest true "Campos a modificar"
// @Success 200 {object} AnimalResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Failure 409 {object} respond.ErrorBody
// @Router /animals/{animalID} [patch]
func updateAnimalHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		var req updateAnimalRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}

		a, err := svc.Update(r.Context(), claims, chi.URLParam(r, "animalID"), UpdateInput{
			Name:           req.Name,
			Type:           req.Type,
			Breed:          req.Breed,
			Gender:         req.Gender,
			Age:            req.Age,
			Weight:         req.Weight,
			Color:          req.Color,
			Description:    req.Description,
			HealthDetails:  req.HealthDetails,
			IsVaccinated:   req.IsVaccinated,
			IsNeutered:     req.IsNeutered,
			AdoptionStatus: req.AdoptionStatus,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, ToResponse(a))
	}
}

// deleteAnimalHandler godoc
// @Summary Borrar animal
// @Description Solo dueño o ADMIN. Borra también sus solicitudes de adopción.
// @Tags animals
// @Security BearerAuth
// @Param animalID path string true "ID del animal"
// @Success 204
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /animals/{animalID} [delete]
func deleteAnimalHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		if err := svc.Delete(r.Context(), claims, chi.URLParam(r, "animalID")); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// uploadImageHandler godoc
// @Summary Subir imagen de un animal
// @Description multipart/form-data con el campo `image` (jpeg, png o webp).
// @Tags animals
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param animalID path string true "ID del animal"
// @Param image formData file true "Imagen"
// @Success 201 {object} AnimalResponse
// @Failure 400 {object} respond.ErrorBody
// @Failure 401 {object} respond.ErrorBody
// @Failure 403 {object} respond.ErrorBody
// @Failure 404 {object} respond.ErrorBody
// @Router /animals/{animalID}/images [post]
func uploadImageHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			respond.Error(w, r, log, apperr.Unauthenticated("unauthorized"))
			return
		}

		// Margen para los headers del multipart.
		limit := svc.MaxImageBytes()
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
		if err := r.ParseMultipartForm(limit); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respond.Error(w, r, log, apperr.ValidationField("image", "image is too large"))
				return
			}
			respond.Error(w, r, log, apperr.ValidationField("image", "multipart form with an image file is required"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, header, err := r.FormFile("image")
		if err != nil {
			respond.Error(w, r, log, apperr.ValidationField("image", "image file is required"))
			return
		}
		defer file.Close()

		a, err := svc.AddImage(r.Context(), claims, chi.URLParam(r, "animalID"), ImageUpload{
			Body: file,
			Size: header.Size,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, ToResponse(a))
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{
		Type:   Type(strings.ToUpper(strings.TrimSpace(q.Get("type")))),
		Gender: Gender(strings.ToUpper(strings.TrimSpace(q.Get("gender")))),
		Status: AdoptionStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Query:  q.Get("q"),
	}

	fields := map[string]string{}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["limit"] = "limit must be an integer"
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["offset"] = "offset must be an integer"
		}
		f.Offset = n
	}
	if len(fields) > 0 {
		return ListFilter{}, apperr.Validation(fields)
	}
	return f, nil
}

func toResponses(items []Animal) []AnimalResponse {
	out := make([]AnimalResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToResponse(a))
	}
	return out
}

func ToResponse(a Animal) AnimalResponse {
	images := a.Images
	if images == nil {
		images = []string{}
	}
	return AnimalResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerUserID,
		Name:           a.Name,
		Type:           a.Type,
		Breed:          a.Breed,
		Gender:         a.Gender,
		Age:            a.Age,
		Weight:         a.Weight,
		Color:          a.Color,
		Description:    a.Description,
		HealthDetails:  a.HealthDetails,
		IsVaccinated:   a.IsVaccinated,
		IsNeutered:     a.IsNeutered,
		AdoptionStatus: a.AdoptionStatus,
		Images:         images,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
