// Package errors define la taxonomía de errores de la API y su mapeo desde
// los errores de dominio.
//
// Dos familias: técnicos (la pre-condición de que los tokens en vuelo
// siempre descifran se rompió; 5xx) y lógicos (el request es incorrecto o
// llega tarde; 4xx).
package errors

import (
	"fmt"
	"net/http"
)

// AppError es la estructura estándar de error de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa, solo para logs
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail agrega detalle al error. Devuelve una COPIA para no mutar las
// variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause agrega el error original (causa). Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// ---------------------------------------------------------------------------------
// 400 Bad Request
// ---------------------------------------------------------------------------------

var (
	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "El cuerpo de la solicitud no es un JSON válido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrFormatError = &AppError{
		Code:       "FORMAT_ERROR",
		Message:    "El formato de uno o más campos es inválido.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Faltan campos requeridos en la solicitud.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// ---------------------------------------------------------------------------------
// 401 / 403
// ---------------------------------------------------------------------------------

var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "No autorizado. Se requiere autenticación.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrPsuCredentialsInvalid = &AppError{
		Code:       "PSU_CREDENTIALS_INVALID",
		Message:    "La identidad PSU no es compatible con la sesión.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "El token de acceso es inválido o está malformado.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// ---------------------------------------------------------------------------------
// 404 Not Found
// ---------------------------------------------------------------------------------

var (
	ErrConsentUnknown = &AppError{
		Code:       "CONSENT_UNKNOWN",
		Message:    "El consent referido no existe.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrResourceUnknown = &AppError{
		Code:       "RESOURCE_UNKNOWN",
		Message:    "El recurso solicitado no fue encontrado.",
		HTTPStatus: http.StatusNotFound,
	}
)

// ---------------------------------------------------------------------------------
// 409 Conflict
// ---------------------------------------------------------------------------------

var (
	ErrStatusInvalid = &AppError{
		Code:       "STATUS_INVALID",
		Message:    "El recurso está en un estado terminal y no admite cambios.",
		HTTPStatus: http.StatusConflict,
	}
)

// ---------------------------------------------------------------------------------
// 429 Too Many Requests
// ---------------------------------------------------------------------------------

var (
	ErrAccessExceeded = &AppError{
		Code:       "ACCESS_EXCEEDED",
		Message:    "Se excedió la frecuencia diaria permitida para el endpoint.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// ---------------------------------------------------------------------------------
// 5xx — familia técnica
// ---------------------------------------------------------------------------------

var (
	ErrTokenNotDecryptable = &AppError{
		Code:       "TOKEN_NOT_DECRYPTABLE",
		Message:    "El identificador opaco no pudo ser descifrado.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrEncryptionFailed = &AppError{
		Code:       "ENCRYPTION_FAILED",
		Message:    "No se pudo generar el identificador opaco.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Ocurrió un error inesperado en el servidor.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
