package repository

import (
	"context"

	"github.com/dropDatabas3/consentd/internal/domain/consent"
)

// ConsentFilter restringe la búsqueda de consents por PSU/TPP.
// PsuIDs filtra por psu_id (cualquiera de la lista del consent); la
// comparación exacta de sets de identidades la hace el caller.
type ConsentFilter struct {
	InstanceID             string
	PsuIDs                 []string
	TppAuthorisationNumber string
	Statuses               []consent.Status
}

// ConsentRepository define operaciones de persistencia de consents.
type ConsentRepository interface {
	// Create persiste un consent nuevo.
	Create(ctx context.Context, c *consent.Consent) error

	// GetByID obtiene un consent por su ID interno.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*consent.Consent, error)

	// Update persiste el estado actual del consent (status, psus, access).
	Update(ctx context.Context, c *consent.Consent) error

	// FindByPsuAndTpp busca consents que matcheen el filtro.
	// Usado por la supresión de duplicados.
	FindByPsuAndTpp(ctx context.Context, f ConsentFilter) ([]*consent.Consent, error)
}

// UsageRepository define la contabilidad de usos por endpoint y día.
type UsageRepository interface {
	// Record incrementa (o crea) el contador para
	// (consent, día, request-URI) y actualiza los metadatos de la consulta.
	Record(ctx context.Context, u *consent.Usage) error

	// ListByConsent lista todos los registros de uso del consent.
	ListByConsent(ctx context.Context, consentID string) ([]*consent.Usage, error)
}
