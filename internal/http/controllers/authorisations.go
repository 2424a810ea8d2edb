package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authdom "github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/http/dto"
	httperrors "github.com/dropDatabas3/consentd/internal/http/errors"
	"github.com/dropDatabas3/consentd/internal/http/helpers"
	"github.com/dropDatabas3/consentd/internal/http/middlewares"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/service/lifecycle"
)

// AuthorisationController maneja las sesiones SCA de consents y payments.
//
// Un mismo controller sirve ambos parents: la ruta fija parentKind y kind
// (creación o cancelación) y los handlers comparten la plomería.
type AuthorisationController struct {
	lifecycle *lifecycle.Service
}

// NewAuthorisationController crea el controller.
func NewAuthorisationController(lc *lifecycle.Service) *AuthorisationController {
	return &AuthorisationController{lifecycle: lc}
}

// StartForConsent maneja POST /consents/{consentId}/authorisations.
func (c *AuthorisationController) StartForConsent(w http.ResponseWriter, r *http.Request) {
	c.start(w, r, chi.URLParam(r, "consentId"), authdom.ParentConsent, authdom.KindCreation)
}

// StartForPayment maneja POST /payments/{paymentId}/authorisations.
func (c *AuthorisationController) StartForPayment(w http.ResponseWriter, r *http.Request) {
	c.start(w, r, chi.URLParam(r, "paymentId"), authdom.ParentPayment, authdom.KindCreation)
}

// StartPaymentCancellation maneja POST /payments/{paymentId}/cancellation-authorisations.
func (c *AuthorisationController) StartPaymentCancellation(w http.ResponseWriter, r *http.Request) {
	c.start(w, r, chi.URLParam(r, "paymentId"), authdom.ParentPayment, authdom.KindCancellation)
}

func (c *AuthorisationController) start(w http.ResponseWriter, r *http.Request, parentToken string, parentKind authdom.ParentKind, kind authdom.Kind) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorisationController.Start"))

	var req dto.StartAuthorisationRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.lifecycle.StartAuthorisation(ctx, lifecycle.StartAuthorisationRequest{
		InstanceID:        middlewares.InstanceID(ctx),
		ParentToken:       parentToken,
		ParentKind:        parentKind,
		Kind:              kind,
		Psu:               req.Psu.ToDomain(),
		ScaApproach:       authdom.ScaApproach(req.ScaApproach),
		TppRedirectURI:    req.TppRedirectURI,
		TppNokRedirectURI: req.TppNokRedirectURI,
	})
	if err != nil {
		log.Debug("authorisation start rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.NewAuthorisationResponse(result.Token, result.Authorisation))
}

// UpdateForConsent maneja PUT /consents/{consentId}/authorisations/{authorisationId}.
func (c *AuthorisationController) UpdateForConsent(w http.ResponseWriter, r *http.Request) {
	c.update(w, r, chi.URLParam(r, "consentId"), authdom.ParentConsent)
}

// UpdateForPayment maneja PUT /payments/{paymentId}/authorisations/{authorisationId}.
func (c *AuthorisationController) UpdateForPayment(w http.ResponseWriter, r *http.Request) {
	c.update(w, r, chi.URLParam(r, "paymentId"), authdom.ParentPayment)
}

func (c *AuthorisationController) update(w http.ResponseWriter, r *http.Request, parentToken string, parentKind authdom.ParentKind) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthorisationController.Update"))

	var req dto.UpdateAuthorisationRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.lifecycle.UpdateAuthorisation(ctx, lifecycle.UpdateAuthorisationRequest{
		ParentToken:    parentToken,
		ParentKind:     parentKind,
		Token:          chi.URLParam(r, "authorisationId"),
		NewStatus:      authdom.ScaStatus(req.ScaStatus),
		Psu:            req.Psu.ToDomain(),
		ChosenMethodID: req.AuthenticationMethodID,
	})
	if err != nil {
		log.Debug("authorisation update rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.NewAuthorisationResponse(result.Token, result.Authorisation))
}

// GetScaStatusForConsent maneja GET /consents/{consentId}/authorisations/{authorisationId}.
func (c *AuthorisationController) GetScaStatusForConsent(w http.ResponseWriter, r *http.Request) {
	c.getScaStatus(w, r, chi.URLParam(r, "consentId"), authdom.ParentConsent)
}

// GetScaStatusForPayment maneja GET /payments/{paymentId}/authorisations/{authorisationId}.
func (c *AuthorisationController) GetScaStatusForPayment(w http.ResponseWriter, r *http.Request) {
	c.getScaStatus(w, r, chi.URLParam(r, "paymentId"), authdom.ParentPayment)
}

func (c *AuthorisationController) getScaStatus(w http.ResponseWriter, r *http.Request, parentToken string, parentKind authdom.ParentKind) {
	ctx := r.Context()

	status, err := c.lifecycle.GetScaStatus(ctx, parentToken, parentKind, chi.URLParam(r, "authorisationId"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ScaStatusResponse{ScaStatus: string(status)})
}
