// Package profile expone la configuración de producto del ASPSP como una
// capability de solo lectura, resuelta por instancia (tenant).
//
// El motor nunca consulta estado global mutable: recibe un Provider
// inyectado y resuelve los settings una vez por llamada.
package profile

import (
	"time"

	"github.com/dropDatabas3/consentd/internal/config"
	"github.com/dropDatabas3/consentd/internal/domain/consent"
)

// Settings son los parámetros de producto que el motor consulta.
type Settings struct {
	// NotConfirmedExpiration es el período máximo que un consent/payment
	// puede permanecer sin confirmar antes de ser forzado a rechazo.
	// Cero o negativo desactiva el watchdog.
	NotConfirmedExpiration time.Duration

	// RedirectURLExpiration es la vida del redirect link de una sesión SCA.
	RedirectURLExpiration time.Duration

	// AuthorisationExpiration es la vida absoluta de una sesión SCA.
	AuthorisationExpiration time.Duration

	// MaxConsentValidityDays limita validUntil de consents AIS.
	// Cero o negativo: sin límite.
	MaxConsentValidityDays int

	// AvailableBookingStatuses son los booking statuses que el banco sirve
	// en consultas de transacciones.
	AvailableBookingStatuses []consent.BookingStatus

	// TrustedBeneficiariesSupported habilita el endpoint de trusted
	// beneficiaries en la contabilidad one-off.
	TrustedBeneficiariesSupported bool

	// MultilevelScaSupported habilita la agregación multi-level SCA.
	MultilevelScaSupported bool
}

// Provider resuelve los settings de producto para una instancia.
type Provider interface {
	Settings(instanceID string) Settings
}

// configProvider implementa Provider sobre el bloque profile del YAML.
type configProvider struct {
	def       config.ProfileSettings
	instances map[string]config.ProfileSettings
}

// FromConfig crea un Provider respaldado por la configuración cargada.
func FromConfig(cfg *config.Config) Provider {
	return &configProvider{
		def:       cfg.Profile.Default,
		instances: cfg.Profile.Instances,
	}
}

func (p *configProvider) Settings(instanceID string) Settings {
	ps := p.def
	if inst, ok := p.instances[instanceID]; ok {
		ps = merge(p.def, inst)
	}
	return toSettings(ps)
}

// merge completa los campos no seteados de la instancia con el default.
func merge(def, inst config.ProfileSettings) config.ProfileSettings {
	if inst.NotConfirmedExpirationMs == 0 {
		inst.NotConfirmedExpirationMs = def.NotConfirmedExpirationMs
	}
	if inst.RedirectURLExpirationMs == 0 {
		inst.RedirectURLExpirationMs = def.RedirectURLExpirationMs
	}
	if inst.AuthorisationExpirationMs == 0 {
		inst.AuthorisationExpirationMs = def.AuthorisationExpirationMs
	}
	if inst.MaxConsentValidityDays == 0 {
		inst.MaxConsentValidityDays = def.MaxConsentValidityDays
	}
	if len(inst.AvailableBookingStatuses) == 0 {
		inst.AvailableBookingStatuses = def.AvailableBookingStatuses
	}
	return inst
}

func toSettings(ps config.ProfileSettings) Settings {
	statuses := make([]consent.BookingStatus, 0, len(ps.AvailableBookingStatuses))
	for _, s := range ps.AvailableBookingStatuses {
		statuses = append(statuses, consent.BookingStatus(s))
	}
	return Settings{
		NotConfirmedExpiration:        time.Duration(ps.NotConfirmedExpirationMs) * time.Millisecond,
		RedirectURLExpiration:         time.Duration(ps.RedirectURLExpirationMs) * time.Millisecond,
		AuthorisationExpiration:       time.Duration(ps.AuthorisationExpirationMs) * time.Millisecond,
		MaxConsentValidityDays:        ps.MaxConsentValidityDays,
		AvailableBookingStatuses:      statuses,
		TrustedBeneficiariesSupported: ps.TrustedBeneficiariesEnable,
		MultilevelScaSupported:        ps.MultilevelScaEnable,
	}
}

// Static es un Provider de settings fijos, útil en tests.
type Static struct{ S Settings }

func (s Static) Settings(string) Settings { return s.S }
