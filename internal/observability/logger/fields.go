package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// InstanceID crea un campo para el ID de la instancia (tenant) del banco.
func InstanceID(v string) zap.Field {
	return zap.String("instance_id", v)
}

// ConsentID crea un campo para el ID interno de un consent.
func ConsentID(v string) zap.Field {
	return zap.String("consent_id", v)
}

// AuthorisationID crea un campo para el ID interno de una authorisation.
func AuthorisationID(v string) zap.Field {
	return zap.String("authorisation_id", v)
}

// PaymentID crea un campo para el ID interno de un payment.
func PaymentID(v string) zap.Field {
	return zap.String("payment_id", v)
}

// TppID crea un campo para el authorisation number del TPP.
func TppID(v string) zap.Field {
	return zap.String("tpp_id", v)
}

// PsuID crea un campo para el ID del PSU.
// Usar con cuidado en prod: es dato personal.
func PsuID(v string) zap.Field {
	return zap.String("psu_id", v)
}

// ConsentStatus crea un campo para el estado de un consent.
func ConsentStatus(v string) zap.Field {
	return zap.String("consent_status", v)
}

// ScaStatus crea un campo para el estado SCA de una authorisation.
func ScaStatus(v string) zap.Field {
	return zap.String("sca_status", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// CAMPOS GENÉRICOS
// =================================================================================

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// ID crea un campo genérico para un ID.
func ID(v string) zap.Field {
	return zap.String("id", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
