package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/consentd/internal/http/errors"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/security/token"
)

// WithServiceAuth valida el bearer token de servicio (HS256) del caller
// interno. Con disabled=true (entornos de desarrollo) el middleware deja
// pasar todo.
func WithServiceAuth(verifier *token.Verifier, disabled bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if disabled {
				next.ServeHTTP(w, r)
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				logger.From(r.Context()).Debug("service token rejected", logger.Err(err))
				errors.WriteError(w, errors.ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := WithService(r.Context(), claims.Service)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
