// Package authorisation define la sesión SCA (authorisation) y su máquina
// de estados.
//
// Una authorisation cuelga de un parent (consent o payment) y registra el
// avance del PSU por el challenge SCA. Una vez finalizada (Finalised o
// Failed) es inmutable.
package authorisation

import (
	"time"

	"github.com/dropDatabas3/consentd/internal/domain/psu"
)

// ScaStatus es el estado de la sesión SCA.
type ScaStatus string

const (
	ScaStatusReceived          ScaStatus = "received"
	ScaStatusPsuIdentified     ScaStatus = "psuIdentified"
	ScaStatusPsuAuthenticated  ScaStatus = "psuAuthenticated"
	ScaStatusScaMethodSelected ScaStatus = "scaMethodSelected"
	ScaStatusStarted           ScaStatus = "started"
	ScaStatusFinalised         ScaStatus = "finalised"
	ScaStatusFailed            ScaStatus = "failed"
)

// IsFinalised indica si el estado SCA es terminal.
func (s ScaStatus) IsFinalised() bool {
	return s == ScaStatusFinalised || s == ScaStatusFailed
}

// IsValid indica si el string corresponde a un estado SCA conocido.
func (s ScaStatus) IsValid() bool {
	switch s {
	case ScaStatusReceived, ScaStatusPsuIdentified, ScaStatusPsuAuthenticated,
		ScaStatusScaMethodSelected, ScaStatusStarted,
		ScaStatusFinalised, ScaStatusFailed:
		return true
	}
	return false
}

// ScaApproach es el enfoque SCA negociado con el TPP.
type ScaApproach string

const (
	ApproachRedirect  ScaApproach = "redirect"
	ApproachEmbedded  ScaApproach = "embedded"
	ApproachDecoupled ScaApproach = "decoupled"
	ApproachOAuth     ScaApproach = "oauth"
)

// ParentKind distingue el agregado padre de la authorisation.
type ParentKind string

const (
	ParentConsent ParentKind = "consent"
	ParentPayment ParentKind = "payment"
)

// Kind distingue sesiones de creación y de cancelación.
// La cancelación solo aplica a payments.
type Kind string

const (
	KindCreation     Kind = "created"
	KindCancellation Kind = "cancelled"
)

// Method es un método de autenticación disponible para el PSU.
type Method struct {
	ID        string `json:"authentication_method_id"`
	Type      string `json:"authentication_type,omitempty"`
	Name      string `json:"name,omitempty"`
	Decoupled bool   `json:"decoupled,omitempty"`
}

// Authorisation es una sesión SCA sobre un consent o payment.
type Authorisation struct {
	ID         string
	InstanceID string

	ParentID   string
	ParentKind ParentKind
	Kind       Kind

	ScaStatus   ScaStatus
	ScaApproach ScaApproach

	// Psu es la identidad vinculada; nil hasta que el PSU se identifica.
	Psu *psu.Identity

	ChosenMethodID   string
	AvailableMethods []Method

	CreatedAt            time.Time
	RedirectURIExpiresAt time.Time
	ExpiresAt            time.Time

	TppRedirectURI    string
	TppNokRedirectURI string
}

// IsFinalised indica si la sesión ya no admite updates.
func (a *Authorisation) IsFinalised() bool {
	return a.ScaStatus.IsFinalised()
}

// IsMethodDecoupled busca el método por id en la lista de métodos
// disponibles y reporta si está marcado decoupled. La ausencia de match
// reporta false, nunca un error.
func (a *Authorisation) IsMethodDecoupled(methodID string) bool {
	for _, m := range a.AvailableMethods {
		if m.ID == methodID {
			return m.Decoupled
		}
	}
	return false
}

// PsuMatches compara la identidad vinculada con una entrante usando la regla
// de compatibilidad (vacía acepta, idéntica acepta, distinta rechaza).
func (a *Authorisation) PsuMatches(incoming psu.Identity) bool {
	return psu.IsRequestCorrect(incoming, a.Psu)
}
