package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/consentd/internal/http/dto"
	httperrors "github.com/dropDatabas3/consentd/internal/http/errors"
	"github.com/dropDatabas3/consentd/internal/http/helpers"
	"github.com/dropDatabas3/consentd/internal/http/middlewares"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/service/lifecycle"
	"github.com/dropDatabas3/consentd/internal/validation"
)

// PaymentController maneja el registro mínimo de payments.
type PaymentController struct {
	lifecycle *lifecycle.Service
}

// NewPaymentController crea el controller.
func NewPaymentController(lc *lifecycle.Service) *PaymentController {
	return &PaymentController{lifecycle: lc}
}

// Create maneja POST /payments.
func (c *PaymentController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PaymentController.Create"))

	var req dto.CreatePaymentRequest
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

	result, err := c.lifecycle.CreatePayment(ctx, lifecycle.CreatePaymentRequest{
		InstanceID:             middlewares.InstanceID(ctx),
		PaymentProduct:         req.PaymentProduct,
		Psu:                    req.Psu.ToDomain(),
		TppAuthorisationNumber: req.TppAuthorisationNumber,
	})
	if err != nil {
		log.Debug("payment create rejected", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.NewPaymentResponse(result.Token, result.Payment))
}

// Get maneja GET /payments/{paymentId}.
func (c *PaymentController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := c.lifecycle.GetPayment(ctx, chi.URLParam(r, "paymentId"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewPaymentResponse(result.Token, result.Payment))
}

// GetStatus maneja GET /payments/{paymentId}/status.
func (c *PaymentController) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := c.lifecycle.GetPaymentStatus(ctx, chi.URLParam(r, "paymentId"))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.PaymentStatusResponse{TransactionStatus: string(status)})
}
