// Package router arma el árbol de rutas de la API sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/consentd/internal/http/controllers"
	"github.com/dropDatabas3/consentd/internal/http/middlewares"
	"github.com/dropDatabas3/consentd/internal/security/token"
)

// Deps son las dependencias del router.
type Deps struct {
	Consents       *controllers.ConsentController
	Authorisations *controllers.AuthorisationController
	Payments       *controllers.PaymentController
	Health         *controllers.HealthController

	TokenVerifier *token.Verifier
	AuthDisabled  bool

	// DefaultInstance se usa cuando el request no trae X-Instance-ID.
	DefaultInstance string
}

// New construye el router con el stack de middlewares estándar.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithRequestLogging())

	// Liveness afuera de auth: lo consulta el orquestador de despliegue.
	r.Get("/healthz", deps.Health.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.WithServiceAuth(deps.TokenVerifier, deps.AuthDisabled))
		r.Use(middlewares.WithInstance(deps.DefaultInstance))

		r.Route("/consents", func(r chi.Router) {
			r.Post("/", deps.Consents.Create)

			r.Route("/{consentId}", func(r chi.Router) {
				r.Get("/", deps.Consents.Get)
				r.Delete("/", deps.Consents.Revoke)
				r.Get("/status", deps.Consents.GetStatus)
				r.Put("/status", deps.Consents.UpdateStatus)
				r.Put("/access", deps.Consents.UpdateAccess)
				r.Post("/usages", deps.Consents.RecordUsage)

				r.Route("/authorisations", func(r chi.Router) {
					r.Post("/", deps.Authorisations.StartForConsent)
					r.Get("/{authorisationId}", deps.Authorisations.GetScaStatusForConsent)
					r.Put("/{authorisationId}", deps.Authorisations.UpdateForConsent)
				})
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", deps.Payments.Create)

			r.Route("/{paymentId}", func(r chi.Router) {
				r.Get("/", deps.Payments.Get)
				r.Get("/status", deps.Payments.GetStatus)

				r.Route("/authorisations", func(r chi.Router) {
					r.Post("/", deps.Authorisations.StartForPayment)
					r.Get("/{authorisationId}", deps.Authorisations.GetScaStatusForPayment)
					r.Put("/{authorisationId}", deps.Authorisations.UpdateForPayment)
				})

				r.Route("/cancellation-authorisations", func(r chi.Router) {
					r.Post("/", deps.Authorisations.StartPaymentCancellation)
					r.Get("/{authorisationId}", deps.Authorisations.GetScaStatusForPayment)
					r.Put("/{authorisationId}", deps.Authorisations.UpdateForPayment)
				})
			})
		})
	})

	return r
}
