package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"hairy-paws/internal/platform/logger"
	"hairy-paws/internal/platform/respond"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover convierte un panic en 500 con el sobre JSON estándar y lo loguea con stack.
// http.ErrAbortHandler se re-lanza: es la forma de net/http de cortar una respuesta.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
				})
				respond.JSON(w, http.StatusInternalServerError, respond.ErrorBody{
					StatusCode: http.StatusInternalServerError,
					Error:      http.StatusText(http.StatusInternalServerError),
					Message:    "internal server error",
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
