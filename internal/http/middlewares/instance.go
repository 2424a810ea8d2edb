package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/consentd/internal/http/errors"
	"github.com/dropDatabas3/consentd/internal/validation"
)

// instanceHeader identifica el tenant del request.
const instanceHeader = "X-Instance-ID"

// WithInstance resuelve la instancia (tenant) del header X-Instance-ID y la
// inyecta en el contexto. Sin header se usa defaultInstance; un slug
// inválido es un 400.
func WithInstance(defaultInstance string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(instanceHeader)
			if id == "" {
				id = defaultInstance
			}
			if !validation.ValidInstanceID(id) {
				errors.WriteError(w, errors.ErrFormatError.WithDetail("X-Instance-ID inválido"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithInstanceID(r.Context(), id)))
		})
	}
}
