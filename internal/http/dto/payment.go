package dto

import (
	"time"

	"github.com/dropDatabas3/consentd/internal/domain/payment"
)

// CreatePaymentRequest registra un pago como parent de sesiones SCA.
// La ejecución del pago queda fuera del servicio.
type CreatePaymentRequest struct {
	PaymentProduct string `json:"paymentProduct,omitempty"`

	Psu PsuIdentity `json:"psu,omitempty"`

	TppAuthorisationNumber string `json:"tppAuthorisationNumber"`
}

// PaymentResponse es la vista pública de un payment.
type PaymentResponse struct {
	PaymentID         string `json:"paymentId"`
	TransactionStatus string `json:"transactionStatus"`
	PaymentProduct    string `json:"paymentProduct,omitempty"`
	LastActionDate    string `json:"lastActionDate,omitempty"`

	Psus []PsuIdentity `json:"psus,omitempty"`
}

// PaymentStatusResponse reporta solo el estado de transacción.
type PaymentStatusResponse struct {
	TransactionStatus string `json:"transactionStatus"`
}

// NewPaymentResponse proyecta un payment con su token opaco.
func NewPaymentResponse(token string, p *payment.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:         token,
		TransactionStatus: string(p.TransactionStatus),
		PaymentProduct:    p.PaymentProduct,
	}
	if !p.LastActionDate.IsZero() {
		resp.LastActionDate = p.LastActionDate.Format(time.RFC3339)
	}
	for _, id := range p.Psus {
		resp.Psus = append(resp.Psus, psuFromDomain(id))
	}
	return resp
}
