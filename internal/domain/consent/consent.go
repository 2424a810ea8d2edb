// Package consent define el agregado Consent y su scope de acceso.
//
// El estado del consent sigue una máquina permisiva: cualquier escritura es
// aceptada mientras el estado actual no sea terminal (ver status.go). Las
// reglas de producto (clamp de validUntil, supresión de duplicados,
// expiración one-off) viven en internal/service/consent e
// internal/service/usage.
package consent

import (
	"time"

	"github.com/dropDatabas3/consentd/internal/domain/psu"
)

// Type es la clase de consent.
type Type string

const (
	TypeAccountInformation Type = "ais"
	TypePayment            Type = "pis"
	TypeFundsConfirmation  Type = "piis"
)

// Consent es el grant de un PSU a un TPP sobre sus datos de cuenta.
//
// Los IDs internos nunca salen por la API: el gateway opaco los cifra al
// borde (internal/security/opaque).
type Consent struct {
	ID         string
	InstanceID string
	Type       Type
	Status     Status

	CreatedAt      time.Time
	ValidUntil     time.Time // fecha, sin componente horario significativo
	LastActionDate time.Time

	FrequencyPerDay int
	Recurring       bool
	// OneAccessType marca consents de un solo uso (one-off cuando además
	// no es recurrente).
	OneAccessType bool

	Psus psu.IdentityList

	TppAuthorisationNumber string
	TppRedirectURI         string
	TppNokRedirectURI      string

	Access AccountAccess
}

// IsOneOff indica si el consent es de un solo uso: one-access-type y no
// recurrente. Estos consents se auto-expiran cuando agotan sus lecturas.
func (c *Consent) IsOneOff() bool {
	return c.OneAccessType && !c.Recurring
}

// CanBeUsed indica si el consent está en un estado usable por un TPP.
func (c *Consent) CanBeUsed() bool {
	return c.Status == StatusValid
}

// SetStatus sobreescribe el estado y actualiza lastActionDate.
// No valida transiciones: la guarda "no terminal" es responsabilidad del
// service que invoca.
func (c *Consent) SetStatus(s Status, now time.Time) {
	c.Status = s
	c.LastActionDate = now
}
