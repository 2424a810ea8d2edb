// Package consent implementa la máquina de estados del consent: creación,
// cambios explícitos de estado, supresión de duplicados y merge del scope de
// acceso.
//
// La máquina es deliberadamente permisiva: cualquier estado nuevo se acepta
// mientras el actual no sea terminal. No hay tabla de adyacencia (ver
// DESIGN.md).
package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/profile"
	"github.com/dropDatabas3/consentd/internal/service/expiration"
)

// Errores lógicos del service. Siempre se retornan como valor, nunca como
// panic: el API layer los distingue para elegir el status HTTP.
var (
	// ErrFrequencyPerDayRequired indica un create sin frequencyPerDay.
	ErrFrequencyPerDayRequired = errors.New("consent: frequencyPerDay is required")

	// ErrStatusFinalised indica un intento de mutar un consent terminal.
	ErrStatusFinalised = errors.New("consent: status already finalised")

	// ErrUnknownStatus indica un estado destino no reconocido.
	ErrUnknownStatus = errors.New("consent: unknown status")
)

// Service implementa las operaciones de ciclo de vida del consent.
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
	Type       consentdom.Type

	// FrequencyPerDay es obligatorio; nil rechaza la creación.
	FrequencyPerDay *int
	Recurring       bool
	OneAccessType   bool
	ValidUntil      time.Time

	Psu psu.Identity

	TppAuthorisationNumber string
	TppRedirectURI         string
	TppNokRedirectURI      string

	Access consentdom.AccountAccess
}

// Create valida y persiste un consent nuevo en estado Received.
//
// Para consents AIS aplica el clamp de producto sobre validUntil: si el
// perfil define un máximo de días de validez, validUntil se acota a
// min(pedido, hoy + (maxDays − 1)); el día de hoy cuenta como día usable.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*consentdom.Consent, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("consent"),
		logger.Op("Create"),
		logger.InstanceID(req.InstanceID),
		logger.TppID(req.TppAuthorisationNumber),
	)

	if req.FrequencyPerDay == nil {
		return nil, ErrFrequencyPerDayRequired
	}

	now := s.now()
	validUntil := req.ValidUntil
	if req.Type == consentdom.TypeAccountInformation {
		if maxDays := s.profile.Settings(req.InstanceID).MaxConsentValidityDays; maxDays > 0 {
			limit := today(now).AddDate(0, 0, maxDays-1)
			if validUntil.After(limit) {
				validUntil = limit
			}
		}
	}

	c := &consentdom.Consent{
		ID:                     uuid.NewString(),
		InstanceID:             req.InstanceID,
		Type:                   req.Type,
		Status:                 consentdom.StatusReceived,
		CreatedAt:              now,
		ValidUntil:             validUntil,
		LastActionDate:         now,
		FrequencyPerDay:        *req.FrequencyPerDay,
		Recurring:              req.Recurring,
		OneAccessType:          req.OneAccessType,
		TppAuthorisationNumber: req.TppAuthorisationNumber,
		TppRedirectURI:         req.TppRedirectURI,
		TppNokRedirectURI:      req.TppNokRedirectURI,
		Access:                 req.Access.Normalize(),
	}
	if !req.Psu.IsEmpty() {
		c.Psus = psu.IdentityList{req.Psu}
	}

	if err := s.store.Consents().Create(ctx, c); err != nil {
		log.Error("create failed", logger.Err(err))
		return nil, err
	}

	metrics.ConsentsCreated.WithLabelValues(string(c.Type)).Inc()
	log.Info("consent created", logger.ConsentID(c.ID))
	return c, nil
}

// Get carga un consent aplicando el watchdog de confirmación: si está
// vencido sin confirmar, primero se fuerza el rechazo (con cascada) y se
// retorna el estado ya corregido.
func (s *Service) Get(ctx context.Context, id string) (*consentdom.Consent, error) {
	c, err := s.store.Consents().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if s.watchdog.ConsentExpired(c, now) {
		if err := s.watchdog.ExpireConsent(ctx, s.store, c, now); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetStatus retorna el estado actual (post-watchdog).
func (s *Service) GetStatus(ctx context.Context, id string) (consentdom.Status, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Status, nil
}

// UpdateStatus sobreescribe el estado del consent.
// La única guarda es "no terminal": las transiciones no se validan contra
// una tabla estricta.
func (s *Service) UpdateStatus(ctx context.Context, id string, status consentdom.Status) (*consentdom.Consent, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("consent"),
		logger.Op("UpdateStatus"),
		logger.ConsentID(id),
	)

	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	c, err := s.store.Consents().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.IsFinalised() {
		return nil, fmt.Errorf("%w: %s", ErrStatusFinalised, c.Status)
	}

	c.SetStatus(status, s.now())
	if err := s.store.Consents().Update(ctx, c); err != nil {
		log.Error("status update failed", logger.Err(err))
		return nil, err
	}

	metrics.ConsentStatusChanges.WithLabelValues(string(status)).Inc()
	log.Info("consent status updated", logger.ConsentStatus(string(status)))
	return c, nil
}

// UpdateAccess mergea un grant enviado por el TPP dentro del scope ya
// otorgado. La lista "accounts" se re-deriva como la unión de accounts,
// balances y transactions antes de persistir, para que una referencia
// otorgada bajo cualquier categoría quede retenida bajo la lista paraguas.
func (s *Service) UpdateAccess(ctx context.Context, id string, access consentdom.AccountAccess) (*consentdom.Consent, error) {
	c, err := s.store.Consents().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.IsFinalised() {
		return nil, fmt.Errorf("%w: %s", ErrStatusFinalised, c.Status)
	}

	merged := consentdom.AccountAccess{
		Accounts:             append(append([]consentdom.AccountReference{}, c.Access.Accounts...), access.Accounts...),
		Balances:             append(append([]consentdom.AccountReference{}, c.Access.Balances...), access.Balances...),
		Transactions:         append(append([]consentdom.AccountReference{}, c.Access.Transactions...), access.Transactions...),
		AllPsd2:              c.Access.AllPsd2 || access.AllPsd2,
		AvailableAccounts:    c.Access.AvailableAccounts || access.AvailableAccounts,
		TrustedBeneficiaries: c.Access.TrustedBeneficiaries || access.TrustedBeneficiaries,
	}
	c.Access = merged.Normalize()
	c.LastActionDate = s.now()

	if err := s.store.Consents().Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// today trunca al día calendario.
func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
