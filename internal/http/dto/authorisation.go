package dto

import (
	"time"

	authdom "github.com/dropDatabas3/consentd/internal/domain/authorisation"
)

// StartAuthorisationRequest abre una sesión SCA sobre un consent o payment.
type StartAuthorisationRequest struct {
	Psu PsuIdentity `json:"psu,omitempty"`

	ScaApproach string `json:"scaApproach,omitempty"`

	TppRedirectURI    string `json:"tppRedirectUri,omitempty"`
	TppNokRedirectURI string `json:"tppNokRedirectUri,omitempty"`
}

// UpdateAuthorisationRequest avanza el estado SCA de la sesión.
type UpdateAuthorisationRequest struct {
	ScaStatus string `json:"scaStatus"`

	Psu PsuIdentity `json:"psu,omitempty"`

	AuthenticationMethodID string `json:"authenticationMethodId,omitempty"`
}

// AuthenticationMethod es un método SCA disponible en el wire.
type AuthenticationMethod struct {
	AuthenticationMethodID string `json:"authenticationMethodId"`
	AuthenticationType     string `json:"authenticationType,omitempty"`
	Name                   string `json:"name,omitempty"`
	Decoupled              bool   `json:"decoupled,omitempty"`
}

// AuthorisationResponse es la vista pública de una sesión SCA.
type AuthorisationResponse struct {
	AuthorisationID string `json:"authorisationId"`
	ScaStatus       string `json:"scaStatus"`
	ScaApproach     string `json:"scaApproach,omitempty"`

	AvailableMethods []AuthenticationMethod `json:"scaMethods,omitempty"`
	ChosenMethodID   string                 `json:"chosenScaMethod,omitempty"`

	RedirectURIExpiresAt string `json:"redirectUriExpiresAt,omitempty"`
	ExpiresAt            string `json:"expiresAt,omitempty"`
}

// ScaStatusResponse reporta solo el estado SCA.
type ScaStatusResponse struct {
	ScaStatus string `json:"scaStatus"`
}

// NewAuthorisationResponse proyecta una sesión con su token opaco.
func NewAuthorisationResponse(token string, a *authdom.Authorisation) AuthorisationResponse {
	resp := AuthorisationResponse{
		AuthorisationID: token,
		ScaStatus:       string(a.ScaStatus),
		ScaApproach:     string(a.ScaApproach),
		ChosenMethodID:  a.ChosenMethodID,
	}
	for _, m := range a.AvailableMethods {
		resp.AvailableMethods = append(resp.AvailableMethods, AuthenticationMethod{
			AuthenticationMethodID: m.ID,
			AuthenticationType:     m.Type,
			Name:                   m.Name,
			Decoupled:              m.Decoupled,
		})
	}
	if !a.RedirectURIExpiresAt.IsZero() {
		resp.RedirectURIExpiresAt = a.RedirectURIExpiresAt.Format(time.RFC3339)
	}
	if !a.ExpiresAt.IsZero() {
		resp.ExpiresAt = a.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}
