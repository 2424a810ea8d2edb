package authorisation

import (
	"context"
	"fmt"
	"time"

	authdom "github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
)

// ensureParentUsable verifica que el parent exista y no esté terminal,
// aplicando antes la expiración lazy por confirmación.
func (s *Service) ensureParentUsable(ctx context.Context, parent Parent) error {
	now := s.now()
	switch parent.Kind {
	case authdom.ParentConsent:
		c, err := s.store.Consents().GetByID(ctx, parent.ID)
		if err != nil {
			return err
		}
		if s.watchdog.ConsentExpired(c, now) {
			if err := s.watchdog.ExpireConsent(ctx, s.store, c, now); err != nil {
				return err
			}
		}
		if c.Status.IsFinalised() {
			return fmt.Errorf("%w: consent %s is %s", ErrParentFinalised, c.ID, c.Status)
		}
		return nil
	case authdom.ParentPayment:
		p, err := s.store.Payments().GetByID(ctx, parent.ID)
		if err != nil {
			return err
		}
		if s.watchdog.PaymentExpired(p, now) {
			if err := s.watchdog.ExpirePayment(ctx, s.store, p, now); err != nil {
				return err
			}
		}
		if p.TransactionStatus.IsFinalised() {
			return fmt.Errorf("%w: payment %s is %s", ErrParentFinalised, p.ID, p.TransactionStatus)
		}
		return nil
	default:
		return fmt.Errorf("%w: parent kind %q", repository.ErrInvalidInput, parent.Kind)
	}
}

// expireParentIfDue aplica el watchdog al parent y reporta si lo expiró.
func (s *Service) expireParentIfDue(ctx context.Context, parent Parent) (bool, error) {
	now := s.now()
	switch parent.Kind {
	case authdom.ParentConsent:
		c, err := s.store.Consents().GetByID(ctx, parent.ID)
		if err != nil {
			return false, err
		}
		if !s.watchdog.ConsentExpired(c, now) {
			return false, nil
		}
		return true, s.watchdog.ExpireConsent(ctx, s.store, c, now)
	case authdom.ParentPayment:
		p, err := s.store.Payments().GetByID(ctx, parent.ID)
		if err != nil {
			return false, err
		}
		if !s.watchdog.PaymentExpired(p, now) {
			return false, nil
		}
		return true, s.watchdog.ExpirePayment(ctx, s.store, p, now)
	default:
		return false, fmt.Errorf("%w: parent kind %q", repository.ErrInvalidInput, parent.Kind)
	}
}

// reconcileParentPsu reconcilia la identidad entrante contra la lista de
// PSUs del parent, persistiendo el enrichment si la lista creció.
// Retorna la identidad vinculada (si la hay).
func (s *Service) reconcileParentPsu(ctx context.Context, tx repository.Store, parent Parent, incoming psu.Identity) (psu.Identity, bool, error) {
	switch parent.Kind {
	case authdom.ParentConsent:
		c, err := tx.Consents().GetByID(ctx, parent.ID)
		if err != nil {
			return psu.Identity{}, false, err
		}
		bound, ok, list := c.Psus.Reconcile(incoming)
		if !ok {
			return psu.Identity{}, false, nil
		}
		if len(list) != len(c.Psus) {
			c.Psus = list
			if err := tx.Consents().Update(ctx, c); err != nil {
				return psu.Identity{}, false, err
			}
		}
		return bound, true, nil
	case authdom.ParentPayment:
		p, err := tx.Payments().GetByID(ctx, parent.ID)
		if err != nil {
			return psu.Identity{}, false, err
		}
		bound, ok, list := p.Psus.Reconcile(incoming)
		if !ok {
			return psu.Identity{}, false, nil
		}
		if len(list) != len(p.Psus) {
			p.Psus = list
			if err := tx.Payments().Update(ctx, p); err != nil {
				return psu.Identity{}, false, err
			}
		}
		return bound, true, nil
	default:
		return psu.Identity{}, false, fmt.Errorf("%w: parent kind %q", repository.ErrInvalidInput, parent.Kind)
	}
}

// closeCompeting aplica la regla de cierre: toda otra sesión no finalizada
// del mismo (parent, kind) cuyo PSU content-iguala al entrante pasa a Failed
// con el redirect link expirado en este instante.
func (s *Service) closeCompeting(ctx context.Context, tx repository.Store, parentID string, kind authdom.Kind, bound psu.Identity, now time.Time) error {
	auths, err := tx.Authorisations().ListByParent(ctx, parentID, kind)
	if err != nil {
		return err
	}
	for _, other := range auths {
		if other.IsFinalised() || other.Psu == nil || !other.Psu.Equals(bound) {
			continue
		}
		other.ScaStatus = authdom.ScaStatusFailed
		other.RedirectURIExpiresAt = now
		if err := tx.Authorisations().Update(ctx, other); err != nil {
			return err
		}
		metrics.AuthorisationsClosed.Inc()
		logger.From(ctx).Info("competing authorisation closed",
			logger.AuthorisationID(other.ID),
			logger.String("parent_id", parentID),
		)
	}
	return nil
}
