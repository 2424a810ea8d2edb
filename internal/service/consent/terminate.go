package consent

import (
	"context"
	"fmt"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
)

// FindAndTerminateOldConsents suprime grants duplicados: al activarse un
// consent nuevo, todo consent anterior no terminal del mismo set exacto de
// PSUs y el mismo TPP queda terminado.
//
// Reglas:
//   - consent one-access-type: no-op, los duplicados son esperados ahí.
//   - consent malformado (sin PSUs o sin TPP): violación de contrato del
//     caller, error fatal, no un no-op silencioso.
//   - sobreviven solo los consents cuyo set completo de identidades PSU
//     iguala al del nuevo (orden-insensible, match exacto).
//   - Received/PartiallyAuthorised pasan a Rejected; Valid pasa a
//     TerminatedByTpp.
//
// Retorna si algún consent cambió. La terminación corre en una única
// transacción.
func (s *Service) FindAndTerminateOldConsents(ctx context.Context, newConsentID string) (bool, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("consent"),
		logger.Op("FindAndTerminateOldConsents"),
		logger.ConsentID(newConsentID),
	)

	newConsent, err := s.store.Consents().GetByID(ctx, newConsentID)
	if err != nil {
		return false, err
	}

	if newConsent.OneAccessType {
		log.Debug("one-access-type consent, duplicates allowed")
		return false, nil
	}
	if len(newConsent.Psus) == 0 || newConsent.TppAuthorisationNumber == "" {
		// Dato internamente inconsistente: abortar, no degradar.
		return false, fmt.Errorf("%w: consent %s has no psu data or tpp id", repository.ErrInvalidInput, newConsentID)
	}

	psuIDs := make([]string, 0, len(newConsent.Psus))
	for _, p := range newConsent.Psus {
		psuIDs = append(psuIDs, p.ID)
	}

	candidates, err := s.store.Consents().FindByPsuAndTpp(ctx, repository.ConsentFilter{
		InstanceID:             newConsent.InstanceID,
		PsuIDs:                 psuIDs,
		TppAuthorisationNumber: newConsent.TppAuthorisationNumber,
		Statuses:               consentdom.NonFinalisedStatuses(),
	})
	if err != nil {
		return false, err
	}

	changed := false
	now := s.now()
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		for _, old := range candidates {
			if old.ID == newConsent.ID {
				continue
			}
			if !old.Psus.SetEquals(newConsent.Psus) {
				continue
			}
			target := consentdom.StatusTerminatedByTpp
			if old.Status == consentdom.StatusReceived || old.Status == consentdom.StatusPartiallyAuthorised {
				target = consentdom.StatusRejected
			}
			old.SetStatus(target, now)
			if err := tx.Consents().Update(ctx, old); err != nil {
				return err
			}
			metrics.OldConsentsTerminated.Inc()
			log.Info("old consent terminated",
				logger.String("old_consent_id", old.ID),
				logger.ConsentStatus(string(target)),
			)
			changed = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
