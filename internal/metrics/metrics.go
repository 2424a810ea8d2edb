// Package metrics define los collectors Prometheus del servicio. Viven en
// un paquete propio para evitar ciclos de import entre services y HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConsentsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consentd_consents_created_total",
		Help: "Consents creados, por tipo",
	}, []string{"type"})

	ConsentStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consentd_consent_status_changes_total",
		Help: "Transiciones de estado de consents, por estado destino",
	}, []string{"status"})

	ConfirmationExpirations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consentd_confirmation_expirations_total",
		Help: "Consents/payments forzados a rechazo por el watchdog de confirmación",
	}, []string{"parent_kind"})

	OneOffExpirations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consentd_oneoff_expirations_total",
		Help: "Consents one-off auto-expirados por agotamiento de lecturas",
	})

	AuthorisationsClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consentd_authorisations_closed_total",
		Help: "Sesiones SCA cerradas por la regla de exclusión (una sesión viva por PSU)",
	})

	ScaStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consentd_sca_status_changes_total",
		Help: "Transiciones de estado SCA, por estado destino",
	}, []string{"status"})

	OldConsentsTerminated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consentd_old_consents_terminated_total",
		Help: "Consents duplicados terminados al crear un consent nuevo",
	})
)

// Register registra los collectors en el registry dado (o el default si es
// nil). Tolera doble registro.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		ConsentsCreated,
		ConsentStatusChanges,
		ConfirmationExpirations,
		OneOffExpirations,
		AuthorisationsClosed,
		ScaStatusChanges,
		OldConsentsTerminated,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
