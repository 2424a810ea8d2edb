package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
	authsvc "github.com/dropDatabas3/consentd/internal/service/authorisation"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	usagesvc "github.com/dropDatabas3/consentd/internal/service/usage"
)

// errorResponse controla exactamente qué campos se serializan al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// FromError mapea cualquier error al AppError correspondiente.
//
// El orden importa: primero la familia técnica (opaque), después los
// sentinels lógicos de los services, y lo no reconocido cae en 500
// conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case opaque.IsNotDecryptable(err):
		return ErrTokenNotDecryptable.WithCause(err)
	case errors.Is(err, opaque.ErrEncryptionFailed):
		return ErrEncryptionFailed.WithCause(err)

	case repository.IsNotFound(err):
		return ErrResourceUnknown.WithCause(err)
	case repository.IsInvalidInput(err):
		return ErrFormatError.WithCause(err)

	case errors.Is(err, consentsvc.ErrFrequencyPerDayRequired):
		return ErrMissingFields.WithDetail("frequencyPerDay es obligatorio").WithCause(err)
	case errors.Is(err, consentsvc.ErrStatusFinalised),
		errors.Is(err, authsvc.ErrStatusFinalised),
		errors.Is(err, authsvc.ErrParentFinalised):
		return ErrStatusInvalid.WithCause(err)
	case errors.Is(err, consentsvc.ErrUnknownStatus),
		errors.Is(err, authsvc.ErrUnknownStatus):
		return ErrFormatError.WithCause(err)

	case errors.Is(err, authsvc.ErrPsuMismatch):
		return ErrPsuCredentialsInvalid.WithCause(err)

	case errors.Is(err, usagesvc.ErrUsageLimitExceeded):
		return ErrAccessExceeded.WithCause(err)
	case errors.Is(err, usagesvc.ErrConsentNotUsable):
		return ErrStatusInvalid.WithCause(err)
	}

	return ErrInternalServerError.WithCause(err)
}

// WriteError escribe la respuesta HTTP para el error dado.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
