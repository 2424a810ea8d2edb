// Package lifecycle es la fachada de orquestación del motor: la única capa
// que habla en tokens opacos con el exterior.
//
// Todo ID que cruza esta frontera viaja cifrado (ver security/opaque); los
// IDs internos no salen nunca. Los errores se parten en dos familias:
// técnicos (token no descifrable, fallo de cifrado) que el transporte mapea
// a 5xx, y lógicos (not found, estado terminal, PSU incompatible) que
// mapea a 4xx.
package lifecycle

import (
	"context"
	"time"

	"github.com/dropDatabas3/consentd/internal/cache"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/profile"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
	authsvc "github.com/dropDatabas3/consentd/internal/service/authorisation"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	"github.com/dropDatabas3/consentd/internal/service/expiration"
	usagesvc "github.com/dropDatabas3/consentd/internal/service/usage"
)

// Service orquesta los services de dominio detrás de la frontera opaca.
type Service struct {
	store   repository.Store
	codec   *opaque.Codec
	cache   cache.Client
	profile profile.Provider

	consents       *consentsvc.Service
	authorisations *authsvc.Service
	usages         *usagesvc.Service
	watchdog       *expiration.Service

	now func() time.Time
}

// New arma la fachada sobre los services de dominio.
func New(
	store repository.Store,
	codec *opaque.Codec,
	cc cache.Client,
	p profile.Provider,
	consents *consentsvc.Service,
	authorisations *authsvc.Service,
	usages *usagesvc.Service,
	watchdog *expiration.Service,
) *Service {
	return &Service{
		store:          store,
		codec:          codec,
		cache:          cc,
		profile:        p,
		consents:       consents,
		authorisations: authorisations,
		usages:         usages,
		watchdog:       watchdog,
		now:            time.Now,
	}
}

// WithClock reemplaza la fuente de tiempo. Solo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// decodeID resuelve un token opaco a su ID interno.
//
// El descifrado es determinístico por token, así que el resultado se
// cachea: un hit evita la pasada AES-GCM. Un fallo de descifrado es un
// error técnico (opaque.ErrNotDecryptable) y no se cachea.
func (s *Service) decodeID(ctx context.Context, kind opaque.Kind, token string) (string, error) {
	key := "opq:" + string(kind) + ":" + token
	if id, err := s.cache.Get(ctx, key); err == nil {
		return id, nil
	}

	id, err := s.codec.Decrypt(kind, token)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, id, 0); err != nil {
		// El cache es acelerador, no fuente de verdad.
		logger.From(ctx).Debug("opaque cache set failed", logger.Err(err))
	}
	return id, nil
}

// encodeID cifra un ID interno como token opaco para el exterior.
func (s *Service) encodeID(kind opaque.Kind, id string) (string, error) {
	return s.codec.Encrypt(kind, id)
}
