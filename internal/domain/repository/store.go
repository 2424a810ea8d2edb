package repository

import "context"

// Store agrupa los repositorios y provee la unidad de trabajo transaccional.
//
// WithinTx ejecuta fn contra un Store cuyas operaciones corren en una única
// transacción: o commitea todo o no commitea nada. Las cascadas del motor
// (consent expirado + authorisations failed, cierre de sesiones
// competidoras) dependen de esta semántica; una aplicación parcial es una
// violación de invariante.
type Store interface {
	Consents() ConsentRepository
	Authorisations() AuthorisationRepository
	Payments() PaymentRepository
	Usages() UsageRepository

	WithinTx(ctx context.Context, fn func(Store) error) error

	Close() error
}
