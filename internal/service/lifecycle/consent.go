package lifecycle

import (
	"context"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	usagesvc "github.com/dropDatabas3/consentd/internal/service/usage"
)

// ConsentResult es un consent junto con su token opaco.
type ConsentResult struct {
	Token   string
	Consent *consentdom.Consent
}

// CreateConsent crea un consent y devuelve su token opaco. El ID interno no
// sale de esta capa.
func (s *Service) CreateConsent(ctx context.Context, req consentsvc.CreateRequest) (*ConsentResult, error) {
	c, err := s.consents.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	token, err := s.encodeID(opaque.KindConsent, c.ID)
	if err != nil {
		return nil, err
	}
	return &ConsentResult{Token: token, Consent: c}, nil
}

// GetConsent resuelve el token y carga el consent (watchdog lazy incluido).
func (s *Service) GetConsent(ctx context.Context, token string) (*ConsentResult, error) {
	id, err := s.decodeID(ctx, opaque.KindConsent, token)
	if err != nil {
		return nil, err
	}
	c, err := s.consents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConsentResult{Token: token, Consent: c}, nil
}

// GetConsentStatus resuelve el token y retorna solo el estado.
func (s *Service) GetConsentStatus(ctx context.Context, token string) (consentdom.Status, error) {
	id, err := s.decodeID(ctx, opaque.KindConsent, token)
	if err != nil {
		return "", err
	}
	return s.consents.GetStatus(ctx, id)
}

// UpdateConsentStatus aplica un cambio de estado explícito (transiciones
// permisivas con guarda de terminalidad).
func (s *Service) UpdateConsentStatus(ctx context.Context, token string, status consentdom.Status) (*ConsentResult, error) {
	id, err := s.decodeID(ctx, opaque.KindConsent, token)
	if err != nil {
		return nil, err
	}
	c, err := s.consents.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return &ConsentResult{Token: token, Consent: c}, nil
}

// RevokeConsent es la revocación del TPP (DELETE): el consent pasa a
// TerminatedByTpp. Sobre un consent ya terminal es un fallo lógico.
func (s *Service) RevokeConsent(ctx context.Context, token string) (*ConsentResult, error) {
	return s.UpdateConsentStatus(ctx, token, consentdom.StatusTerminatedByTpp)
}

// UpdateConsentAccess mergea el scope de cuentas del consent. El merge nunca
// achica: referencias y flags solo se agregan.
func (s *Service) UpdateConsentAccess(ctx context.Context, token string, access consentdom.AccountAccess) (*ConsentResult, error) {
	id, err := s.decodeID(ctx, opaque.KindConsent, token)
	if err != nil {
		return nil, err
	}
	c, err := s.consents.UpdateAccess(ctx, id, access)
	if err != nil {
		return nil, err
	}
	return &ConsentResult{Token: token, Consent: c}, nil
}

// RecordUsage contabiliza un uso de endpoint contra el consent. Si el
// consent es one-off y con este uso agotó todas sus lecturas, vuelve ya
// expirado.
func (s *Service) RecordUsage(ctx context.Context, token string, in usagesvc.Input) (*ConsentResult, error) {
	id, err := s.decodeID(ctx, opaque.KindConsent, token)
	if err != nil {
		return nil, err
	}
	c, err := s.usages.Record(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if c.Status == consentdom.StatusExpired {
		logger.From(ctx).Info("one-off consent expired on usage",
			logger.Layer("service"),
			logger.Component("lifecycle"),
			logger.ConsentID(id),
		)
	}
	return &ConsentResult{Token: token, Consent: c}, nil
}
