// Package payment define el agregado mínimo de payment que este servicio
// necesita como parent de authorisations y sujeto del watchdog de
// confirmación. La ejecución del pago en sí queda fuera: este servicio solo
// rastrea el estado de la transacción.
package payment

import (
	"time"

	"github.com/dropDatabas3/consentd/internal/domain/psu"
)

// TransactionStatus es el estado ISO 20022 de la transacción.
type TransactionStatus string

const (
	StatusReceived            TransactionStatus = "RCVD"
	StatusPending             TransactionStatus = "PDNG"
	StatusPartiallyAuthorised TransactionStatus = "PATC"
	StatusAcceptedCustomer    TransactionStatus = "ACCP"
	StatusAcceptedTechnical   TransactionStatus = "ACTC"
	StatusAcceptedSettlement  TransactionStatus = "ACSC"
	StatusRejected            TransactionStatus = "RJCT"
	StatusCancelled           TransactionStatus = "CANC"
)

// IsFinalised indica si el estado es terminal.
func (s TransactionStatus) IsFinalised() bool {
	switch s {
	case StatusAcceptedSettlement, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Payment es el registro mínimo de un pago iniciado por un TPP.
type Payment struct {
	ID         string
	InstanceID string

	TransactionStatus TransactionStatus

	CreatedAt      time.Time
	LastActionDate time.Time

	Psus psu.IdentityList

	TppAuthorisationNumber string
	PaymentProduct         string
}

// SetStatus sobreescribe el estado y actualiza lastActionDate.
func (p *Payment) SetStatus(s TransactionStatus, now time.Time) {
	p.TransactionStatus = s
	p.LastActionDate = now
}
