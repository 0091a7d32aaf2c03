// Package respond concentra la serialización JSON y el mapeo error -> HTTP.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"hairy-paws/internal/platform/apperr"
	"hairy-paws/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrorBody es el sobre estable de error que reciben los clientes.
type ErrorBody struct {
	StatusCode int               `json:"statusCode" example:"409"`
	Error      string            `json:"error" example:"Conflict"`
	Message    string            `json:"message" example:"adoption request already decided"`
	Errors     map[string]string `json:"errors,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindRateLimited:     http.StatusTooManyRequests,
	apperr.KindInternal:        http.StatusInternalServerError,
}

// StatusFor devuelve el status HTTP para un error de servicio.
func StatusFor(err error) int {
	if st, ok := statusByKind[apperr.KindOf(err)]; ok {
		return st
	}
	return http.StatusInternalServerError
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error escribe el sobre de error. Los 500 se loguean y el cliente recibe un mensaje genérico.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := StatusFor(err)
	body := ErrorBody{
		StatusCode: status,
		Error:      http.StatusText(status),
	}

	var e *apperr.Error
	if status == http.StatusInternalServerError || !errors.As(err, &e) {
		if log != nil {
			log.Error("request failed", map[string]any{
				"request_id": chimw.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"err":        err,
			})
		}
		body.StatusCode = http.StatusInternalServerError
		body.Error = http.StatusText(http.StatusInternalServerError)
		body.Message = "internal server error"
		JSON(w, http.StatusInternalServerError, body)
		return
	}

	body.Message = e.Message
	if len(e.Fields) > 0 {
		body.Errors = e.Fields
	}
	JSON(w, status, body)
}

// Decode lee el body como un único valor JSON rechazando campos desconocidos y bodies vacíos.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.ValidationField("body", "request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return apperr.ValidationField("body", "request body is required")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return apperr.ValidationField(field, "property "+field+" should not exist")
		default:
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return apperr.ValidationField(typeErr.Field, "must be of type "+typeErr.Type.String())
			}
			return apperr.ValidationField("body", "invalid json")
		}
	}
	if dec.More() {
		return apperr.ValidationField("body", "request body must contain a single JSON object")
	}
	return nil
}

// DecodeOptional es como Decode pero acepta un body vacío (p.ej. approve sin notas).
func DecodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := Decode(r, v)
	if err != nil && apperr.Is(err, apperr.KindValidation) {
		var e *apperr.Error
		if errors.As(err, &e) && e.Fields["body"] == "request body is required" {
			return nil
		}
	}
	return err
}
