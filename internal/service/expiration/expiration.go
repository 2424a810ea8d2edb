// Package expiration implementa el watchdog de confirmación: detecta
// consents/payments estancados en un estado no finalizado más allá del
// período configurado y los fuerza a rechazo, cascadeando a sus
// authorisations.
//
// No hay timer: el chequeo es lazy, invocado en cada camino de lectura o
// consulta de estado. Un registro viejo se corrige recién en el próximo
// acceso; ese es el comportamiento documentado, no un bug.
package expiration

import (
	"context"
	"time"

	"github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/payment"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/profile"
)

// Service evalúa y aplica la expiración por confirmación.
type Service struct {
	profile profile.Provider
}

// New crea el watchdog.
func New(p profile.Provider) *Service {
	return &Service{profile: p}
}

// ConsentExpired indica si el consent lleva demasiado tiempo sin confirmar.
// Solo se evalúa mientras el estado no es terminal.
func (s *Service) ConsentExpired(c *consent.Consent, now time.Time) bool {
	if c.Status.IsFinalised() {
		return false
	}
	period := s.profile.Settings(c.InstanceID).NotConfirmedExpiration
	if period <= 0 {
		return false
	}
	return now.Sub(c.CreatedAt) > period
}

// PaymentExpired es el equivalente para payments.
func (s *Service) PaymentExpired(p *payment.Payment, now time.Time) bool {
	if p.TransactionStatus.IsFinalised() {
		return false
	}
	period := s.profile.Settings(p.InstanceID).NotConfirmedExpiration
	if period <= 0 {
		return false
	}
	return now.Sub(p.CreatedAt) > period
}

// ExpireConsent fuerza el consent a Rejected y cascadea todas sus
// authorisations a Failed con redirect expirado "ahora". Corre dentro de una
// única transacción: la cascada commitea completa o no commitea.
func (s *Service) ExpireConsent(ctx context.Context, st repository.Store, c *consent.Consent, now time.Time) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("expiration"),
		logger.ConsentID(c.ID),
	)
	err := st.WithinTx(ctx, func(tx repository.Store) error {
		c.SetStatus(consent.StatusRejected, now)
		if err := tx.Consents().Update(ctx, c); err != nil {
			return err
		}
		return failAuthorisations(ctx, tx, c.ID, now)
	})
	if err != nil {
		log.Error("confirmation expiration failed", logger.Err(err))
		return err
	}
	metrics.ConfirmationExpirations.WithLabelValues("consent").Inc()
	log.Info("consent confirmation-expired", logger.ConsentStatus(string(c.Status)))
	return nil
}

// ExpirePayment fuerza el payment a RJCT y cascadea sus authorisations.
func (s *Service) ExpirePayment(ctx context.Context, st repository.Store, p *payment.Payment, now time.Time) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("expiration"),
		logger.PaymentID(p.ID),
	)
	err := st.WithinTx(ctx, func(tx repository.Store) error {
		p.SetStatus(payment.StatusRejected, now)
		if err := tx.Payments().Update(ctx, p); err != nil {
			return err
		}
		return failAuthorisations(ctx, tx, p.ID, now)
	})
	if err != nil {
		log.Error("confirmation expiration failed", logger.Err(err))
		return err
	}
	metrics.ConfirmationExpirations.WithLabelValues("payment").Inc()
	log.Info("payment confirmation-expired")
	return nil
}

// failAuthorisations pasa a Failed toda authorisation no finalizada del
// parent, con el redirect link expirado en el momento del fallo.
func failAuthorisations(ctx context.Context, tx repository.Store, parentID string, now time.Time) error {
	for _, kind := range []authorisation.Kind{authorisation.KindCreation, authorisation.KindCancellation} {
		auths, err := tx.Authorisations().ListByParent(ctx, parentID, kind)
		if err != nil {
			return err
		}
		for _, a := range auths {
			if a.IsFinalised() {
				continue
			}
			a.ScaStatus = authorisation.ScaStatusFailed
			a.RedirectURIExpiresAt = now
			if err := tx.Authorisations().Update(ctx, a); err != nil {
				return err
			}
		}
	}
	return nil
}
