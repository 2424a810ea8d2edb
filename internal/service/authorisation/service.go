// Package authorisation implementa la máquina de estados SCA: creación de
// sesiones con la regla de cierre de sesiones competidoras, updates
// permisivos con guarda de terminalidad y chequeo de compatibilidad de PSU,
// y consulta de estado con expiración lazy del parent.
package authorisation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	authdom "github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/profile"
	"github.com/dropDatabas3/consentd/internal/service/expiration"
)

// Errores lógicos del service.
var (
	// ErrParentFinalised indica que el consent/payment padre ya está en un
	// estado terminal y no admite sesiones nuevas.
	ErrParentFinalised = errors.New("authorisation: parent already finalised")

	// ErrStatusFinalised indica un update contra una sesión terminada.
	ErrStatusFinalised = errors.New("authorisation: sca status already finalised")

	// ErrPsuMismatch indica que la identidad provista no es compatible con
	// la ya vinculada a la sesión.
	ErrPsuMismatch = errors.New("authorisation: psu does not match bound psu")

	// ErrUnknownStatus indica un estado SCA destino no reconocido.
	ErrUnknownStatus = errors.New("authorisation: unknown sca status")
)

// Parent referencia al agregado padre de una sesión.
type Parent struct {
	ID   string
	Kind authdom.ParentKind
}

// Service implementa las operaciones sobre sesiones SCA.
type Service struct {
	store    repository.Store
	profile  profile.Provider
	watchdog *expiration.Service
	now      func() time.Time
}

// New crea el service.
func New(store repository.Store, p profile.Provider, watchdog *expiration.Service) *Service {
	return &Service{store: store, profile: p, watchdog: watchdog, now: time.Now}
}

// WithClock reemplaza la fuente de tiempo. Solo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRequest es la entrada de Create.
type CreateRequest struct {
	InstanceID string
	Parent     Parent
	Kind       authdom.Kind

	Psu         psu.Identity
	ScaApproach authdom.ScaApproach

	TppRedirectURI    string
	TppNokRedirectURI string
}

// Create abre una sesión SCA nueva para el parent.
//
// Orden de la operación (importa):
//  1. el parent debe existir y no estar terminal (la expiración lazy aplica
//     primero);
//  2. la identidad PSU entrante se reconcilia contra la lista del parent
//     (reuso o enrichment; con identidad vinculada el estado inicial es
//     PsuIdentified, si no Received);
//  3. regla de cierre: toda otra sesión no finalizada del mismo
//     (parent, kind) cuyo PSU iguala al entrante pasa a Failed con el
//     redirect expirado "ahora" — a lo sumo una sesión viva por PSU. Con
//     PSU vacío el cierre se saltea (no hay a quién cerrar) y se loguea.
//
// Todo corre en una única transacción.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*authdom.Authorisation, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("authorisation"),
		logger.Op("Create"),
		logger.String("parent_id", req.Parent.ID),
		logger.String("parent_kind", string(req.Parent.Kind)),
	)

	if err := s.ensureParentUsable(ctx, req.Parent); err != nil {
		return nil, err
	}

	now := s.now()
	set := s.profile.Settings(req.InstanceID)

	var created *authdom.Authorisation
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		bound, hasPsu, err := s.reconcileParentPsu(ctx, tx, req.Parent, req.Psu)
		if err != nil {
			return err
		}

		if hasPsu {
			if err := s.closeCompeting(ctx, tx, req.Parent.ID, req.Kind, bound, now); err != nil {
				return err
			}
		} else {
			log.Info("no psu identity on create, skipping session closing")
		}

		status := authdom.ScaStatusReceived
		var psuPtr *psu.Identity
		if hasPsu {
			status = authdom.ScaStatusPsuIdentified
			p := bound
			psuPtr = &p
		}

		created = &authdom.Authorisation{
			ID:                   uuid.NewString(),
			InstanceID:           req.InstanceID,
			ParentID:             req.Parent.ID,
			ParentKind:           req.Parent.Kind,
			Kind:                 req.Kind,
			ScaStatus:            status,
			ScaApproach:          req.ScaApproach,
			Psu:                  psuPtr,
			CreatedAt:            now,
			RedirectURIExpiresAt: now.Add(set.RedirectURLExpiration),
			ExpiresAt:            now.Add(set.AuthorisationExpiration),
			TppRedirectURI:       req.TppRedirectURI,
			TppNokRedirectURI:    req.TppNokRedirectURI,
		}
		return tx.Authorisations().Create(ctx, created)
	})
	if err != nil {
		log.Error("create failed", logger.Err(err))
		return nil, err
	}

	metrics.ScaStatusChanges.WithLabelValues(string(created.ScaStatus)).Inc()
	log.Info("authorisation created",
		logger.AuthorisationID(created.ID),
		logger.ScaStatus(string(created.ScaStatus)),
	)
	return created, nil
}

// UpdateRequest es la entrada de Update. Parent es el dueño esperado de la
// sesión: un mismatch se reporta como not found, sin tocar nada.
type UpdateRequest struct {
	AuthorisationID string
	Parent          Parent
	NewStatus       authdom.ScaStatus
	Psu             psu.Identity
	ChosenMethodID  string
}

// Update avanza el estado SCA de la sesión.
//
// Guardas, todas previas a cualquier mutación: la sesión debe existir,
// pertenecer al parent declarado y no estar finalizada. Si el estado actual
// es Received, la identidad provista debe ser compatible con la ya vinculada
// antes de vincular/enriquecer nada (previene el secuestro de la sesión a
// mitad del flujo). Fuera de eso la transición la decide el caller: no hay
// tabla de adyacencia.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*authdom.Authorisation, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("authorisation"),
		logger.Op("Update"),
		logger.AuthorisationID(req.AuthorisationID),
	)

	if !req.NewStatus.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, req.NewStatus)
	}

	a, err := s.store.Authorisations().GetByID(ctx, req.AuthorisationID)
	if err != nil {
		return nil, err
	}
	if a.ParentID != req.Parent.ID || a.ParentKind != req.Parent.Kind {
		// No se revela la existencia de sesiones ajenas.
		return nil, repository.ErrNotFound
	}
	if a.IsFinalised() {
		// Fallo lógico, sin mutación.
		return nil, fmt.Errorf("%w: %s", ErrStatusFinalised, a.ScaStatus)
	}

	if a.ScaStatus == authdom.ScaStatusReceived {
		if !a.PsuMatches(req.Psu) {
			return nil, ErrPsuMismatch
		}
		if !req.Psu.IsEmpty() {
			p := req.Psu
			a.Psu = &p
		}
	}

	if req.NewStatus == authdom.ScaStatusScaMethodSelected && req.ChosenMethodID != "" {
		a.ChosenMethodID = req.ChosenMethodID
	}

	a.ScaStatus = req.NewStatus
	if err := s.store.Authorisations().Update(ctx, a); err != nil {
		log.Error("update failed", logger.Err(err))
		return nil, err
	}

	metrics.ScaStatusChanges.WithLabelValues(string(req.NewStatus)).Inc()
	log.Info("authorisation updated", logger.ScaStatus(string(req.NewStatus)))
	return a, nil
}

// GetScaStatus retorna el estado SCA de la sesión, aplicando primero la
// expiración por confirmación del parent: si el parent venció, se fuerza el
// rechazo (cascada incluida) y se reporta Failed.
func (s *Service) GetScaStatus(ctx context.Context, parent Parent, authorisationID string) (authdom.ScaStatus, error) {
	a, err := s.store.Authorisations().GetByID(ctx, authorisationID)
	if err != nil {
		return "", err
	}
	if a.ParentID != parent.ID || a.ParentKind != parent.Kind {
		return "", repository.ErrNotFound
	}

	expired, err := s.expireParentIfDue(ctx, parent)
	if err != nil {
		return "", err
	}
	if expired {
		return authdom.ScaStatusFailed, nil
	}
	return a.ScaStatus, nil
}

// IsMethodDecoupled reporta si el método elegido está marcado decoupled.
// La ausencia de match (método o sesión inexistente) reporta false, nunca
// un error: el caller degrada al flujo embedded.
func (s *Service) IsMethodDecoupled(ctx context.Context, authorisationID, methodID string) bool {
	a, err := s.store.Authorisations().GetByID(ctx, authorisationID)
	if err != nil {
		logger.From(ctx).Debug("decoupled lookup on unknown authorisation",
			logger.AuthorisationID(authorisationID))
		return false
	}
	return a.IsMethodDecoupled(methodID)
}

// ReplaceMethods guarda la lista de métodos de autenticación disponibles
// que el banco ofreció para la sesión.
func (s *Service) ReplaceMethods(ctx context.Context, authorisationID string, methods []authdom.Method) error {
	a, err := s.store.Authorisations().GetByID(ctx, authorisationID)
	if err != nil {
		return err
	}
	if a.IsFinalised() {
		return fmt.Errorf("%w: %s", ErrStatusFinalised, a.ScaStatus)
	}
	a.AvailableMethods = methods
	return s.store.Authorisations().Update(ctx, a)
}
