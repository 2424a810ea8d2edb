package consent

import "time"

// BookingStatus de una consulta de transacciones.
type BookingStatus string

const (
	BookingStatusBooked      BookingStatus = "booked"
	BookingStatusPending     BookingStatus = "pending"
	BookingStatusBoth        BookingStatus = "both"
	BookingStatusInformation BookingStatus = "information"
	BookingStatusAll         BookingStatus = "all"
)

// Usage es el registro de uso de un endpoint por un consent en un día
// calendario: una fila por (consent, día, request-URI). El rollover de día
// resetea implícitamente el contador (día nuevo ⇒ fila nueva).
type Usage struct {
	ConsentID  string
	UsageDate  time.Time // solo fecha
	RequestURI string

	// ResourceID y TransactionID identifican el último recurso consultado
	// por esa URI. Vacíos para endpoints no ligados a un recurso.
	ResourceID    string
	TransactionID string

	// BookingStatus y TotalPages describen la última consulta de
	// transacciones registrada por esa URI (si aplica). TotalPages se usa
	// para computar el máximo de llamadas permitidas en consents one-off.
	BookingStatus BookingStatus
	TotalPages    int

	Counter int
}

// SameDay indica si el registro corresponde al día calendario dado.
func (u Usage) SameDay(day time.Time) bool {
	y1, m1, d1 := u.UsageDate.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
