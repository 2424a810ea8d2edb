package lifecycle

import (
	"context"

	authdom "github.com/dropDatabas3/consentd/internal/domain/authorisation"
	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/payment"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
)

// aggregateParent proyecta una sesión recién Finalised sobre el estado del
// parent.
//
// Consent: Valid cuando todos los PSUs vinculados tienen una sesión de
// creación Finalised (con multi-level SCA deshabilitado en el perfil, la
// primera sesión finalizada alcanza); PartiallyAuthorised mientras falte
// alguno. Payment: ACCP / PATC análogamente; una sesión de cancelación
// finalizada lleva el payment a CANC.
//
// Cuando un consent llega a Valid corre además la supresión de duplicados:
// los consents viejos del mismo PSU y TPP se terminan.
func (s *Service) aggregateParent(ctx context.Context, a *authdom.Authorisation) error {
	if a.ParentKind == authdom.ParentPayment {
		return s.aggregatePayment(ctx, a)
	}
	return s.aggregateConsent(ctx, a)
}

func (s *Service) aggregateConsent(ctx context.Context, a *authdom.Authorisation) error {
	var becameValid bool
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.Consents().GetByID(ctx, a.ParentID)
		if err != nil {
			return err
		}
		if c.Status.IsFinalised() {
			return nil
		}

		complete, err := s.authorisationsComplete(ctx, tx, a, c.InstanceID, c.Psus)
		if err != nil {
			return err
		}

		target := consentdom.StatusPartiallyAuthorised
		if complete {
			target = consentdom.StatusValid
		}
		if c.Status == target {
			return nil
		}
		c.SetStatus(target, s.now())
		if err := tx.Consents().Update(ctx, c); err != nil {
			return err
		}
		metrics.ConsentStatusChanges.WithLabelValues(string(target)).Inc()
		becameValid = complete
		return nil
	})
	if err != nil {
		return err
	}

	if becameValid {
		if _, err := s.consents.FindAndTerminateOldConsents(ctx, a.ParentID); err != nil {
			// La transición a Valid ya commiteó: acá la supresión de
			// duplicados es best effort, incluso ante un consent sin PSUs
			// o sin TPP. El contrato fatal aplica a la invocación directa.
			logger.From(ctx).Warn("old consent termination failed",
				logger.Layer("service"),
				logger.Component("lifecycle"),
				logger.ConsentID(a.ParentID),
				logger.Err(err),
			)
		}
	}
	return nil
}

func (s *Service) aggregatePayment(ctx context.Context, a *authdom.Authorisation) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Payments().GetByID(ctx, a.ParentID)
		if err != nil {
			return err
		}
		if p.TransactionStatus.IsFinalised() {
			return nil
		}

		if a.Kind == authdom.KindCancellation {
			p.SetStatus(payment.StatusCancelled, s.now())
			return tx.Payments().Update(ctx, p)
		}

		complete, err := s.authorisationsComplete(ctx, tx, a, p.InstanceID, p.Psus)
		if err != nil {
			return err
		}
		target := payment.StatusPartiallyAuthorised
		if complete {
			target = payment.StatusAcceptedCustomer
		}
		if p.TransactionStatus == target {
			return nil
		}
		p.SetStatus(target, s.now())
		return tx.Payments().Update(ctx, p)
	})
}

// authorisationsComplete decide si la autorización del parent está completa.
//
// Sin multi-level SCA en el perfil, la sesión recién finalizada alcanza.
// Con multi-level, cada PSU vinculado al parent necesita su propia sesión
// de creación Finalised; una lista de PSUs vacía con al menos una sesión
// finalizada también cuenta como completa.
func (s *Service) authorisationsComplete(ctx context.Context, tx repository.Store, a *authdom.Authorisation, instanceID string, bound psu.IdentityList) (bool, error) {
	if !s.profile.Settings(instanceID).MultilevelScaSupported {
		return true, nil
	}

	auths, err := tx.Authorisations().ListByParent(ctx, a.ParentID, authdom.KindCreation)
	if err != nil {
		return false, err
	}

	if len(bound) == 0 {
		return true, nil
	}
	for _, p := range bound {
		if !hasFinalisedFor(auths, p) {
			return false, nil
		}
	}
	return true, nil
}

func hasFinalisedFor(auths []*authdom.Authorisation, p psu.Identity) bool {
	for _, a := range auths {
		if a.ScaStatus != authdom.ScaStatusFinalised || a.Psu == nil {
			continue
		}
		if a.Psu.Equals(p) {
			return true
		}
	}
	return false
}
