package repository

import (
	"context"

	"github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/payment"
)

// AuthorisationRepository define operaciones sobre sesiones SCA.
type AuthorisationRepository interface {
	// Create persiste una authorisation nueva.
	Create(ctx context.Context, a *authorisation.Authorisation) error

	// GetByID obtiene una authorisation por su ID interno.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*authorisation.Authorisation, error)

	// Update persiste el estado actual de la authorisation.
	Update(ctx context.Context, a *authorisation.Authorisation) error

	// ListByParent lista las authorisations de un parent y kind dados,
	// ordenadas por fecha de creación.
	ListByParent(ctx context.Context, parentID string, kind authorisation.Kind) ([]*authorisation.Authorisation, error)
}

// PaymentRepository define operaciones sobre el registro mínimo de payments.
type PaymentRepository interface {
	// Create persiste un payment nuevo.
	Create(ctx context.Context, p *payment.Payment) error

	// GetByID obtiene un payment por su ID interno.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*payment.Payment, error)

	// Update persiste el estado actual del payment.
	Update(ctx context.Context, p *payment.Payment) error
}
