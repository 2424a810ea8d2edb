// Package controllers implementa los handlers HTTP de la API. Los
// controllers son plomería: decodifican el wire, delegan en la fachada de
// lifecycle y proyectan la respuesta. Toda regla de negocio vive en los
// services.
package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/http/dto"
	httperrors "github.com/dropDatabas3/consentd/internal/http/errors"
	"github.com/dropDatabas3/consentd/internal/http/helpers"
	"github.com/dropDatabas3/consentd/internal/http/middlewares"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	"github.com/dropDatabas3/consentd/internal/service/lifecycle"
	usagesvc "github.com/dropDatabas3/consentd/internal/service/usage"
	"github.com/dropDatabas3/consentd/internal/validation"
)

// ConsentController maneja el recurso /consents.
type ConsentController struct {
	lifecycle *lifecycle.Service
}

// NewConsentController crea el controller.
func NewConsentController(lc *lifecycle.Service) *ConsentController {
	return &ConsentController{lifecycle: lc}
}

// Create maneja POST /consents.
func (c *ConsentController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConsentController.Create"))

	var req dto.CreateConsentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if req.TppAuthorisationNumber == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("tppAuthorisationNumber es obligatorio"))
		return
	}
	if !validation.ValidTppAuthorisationNumber(req.TppAuthorisationNumber) {
		httperrors.WriteError(w, httperrors.ErrFormatError.WithDetail("tppAuthorisationNumber inválido"))
		return
	}
	if req.Psu.PsuIDType != "" && !validation.ValidPsuIDType(req.Psu.PsuIDType) {
		httperrors.WriteError(w, httperrors.ErrFormatError.WithDetail("psuIdType inválido"))
		return
	}

	validUntil, err := req.ParseValidUntil()
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrFormatError.WithDetail("validUntil debe ser YYYY-MM-DD"))
		return
	}

	consentType := consentdom.Type(req.ConsentType)
	if req.ConsentType == "" {
		consentType = consentdom.TypeAccountInformation
	}

	result, err := c.lifecycle.CreateConsent(ctx, consentsvc.CreateRequest{
		InstanceID:             middlewares.InstanceID(ctx),
		Type:                   consentType,
		FrequencyPerDay:        req.FrequencyPerDay,
		Recurring:              req.RecurringIndicator,
		OneAccessType:          req.OneAccessType,
		ValidUntil:             validUntil,
		Psu:                    req.Psu.ToDomain(),
		TppAuthorisationNumber: req.TppAuthorisationNumber,
		TppRedirectURI:         req.TppRedirectURI,
		TppNokRedirectURI:      req.TppNokRedirectURI,
		Access:                 req.Access.ToDomain(),
	})
	if err != nil {
		log.Debug("consent create rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.NewConsentResponse(result.Token, result.Consent))
}

// Get maneja GET /consents/{consentId}.
func (c *ConsentController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := c.lifecycle.GetConsent(ctx, chi.URLParam(r, "consentId"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewConsentResponse(result.Token, result.Consent))
}

// GetStatus maneja GET /consents/{consentId}/status.
func (c *ConsentController) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := c.lifecycle.GetConsentStatus(ctx, chi.URLParam(r, "consentId"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ConsentStatusResponse{ConsentStatus: string(status)})
}

// UpdateStatus maneja PUT /consents/{consentId}/status.
func (c *ConsentController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConsentController.UpdateStatus"))

	var req dto.UpdateConsentStatusRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.lifecycle.UpdateConsentStatus(ctx, chi.URLParam(r, "consentId"), consentdom.Status(req.ConsentStatus))
	if err != nil {
		log.Debug("status update rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewConsentResponse(result.Token, result.Consent))
}

// Revoke maneja DELETE /consents/{consentId}: revocación del TPP.
func (c *ConsentController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := c.lifecycle.RevokeConsent(ctx, chi.URLParam(r, "consentId"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ConsentStatusResponse{ConsentStatus: string(result.Consent.Status)})
}

// UpdateAccess maneja PUT /consents/{consentId}/access.
func (c *ConsentController) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.UpdateAccessRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.lifecycle.UpdateConsentAccess(ctx, chi.URLParam(r, "consentId"), req.Access.ToDomain())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewConsentResponse(result.Token, result.Consent))
}

// RecordUsage maneja POST /consents/{consentId}/usages.
func (c *ConsentController) RecordUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConsentController.RecordUsage"))

	var req dto.RecordUsageRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.RequestURI == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("requestUri es obligatorio"))
		return
	}

	result, err := c.lifecycle.RecordUsage(ctx, chi.URLParam(r, "consentId"), usagesvc.Input{
		RequestURI:    req.RequestURI,
		ResourceID:    req.ResourceID,
		TransactionID: req.TransactionID,
		BookingStatus: consentdom.BookingStatus(req.BookingStatus),
		TotalPages:    req.TotalPages,
	})
	if err != nil {
		log.Debug("usage rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ConsentStatusResponse{ConsentStatus: string(result.Consent.Status)})
}
