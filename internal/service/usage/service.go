// Package usage implementa la contabilidad de usos por endpoint y la
// auto-expiración de consents one-off.
//
// Los consents multi-uso se limitan a frequencyPerDay llamadas por endpoint
// por día. Los one-off (un solo uso, no recurrentes) además se expiran solos
// cuando agotaron todas las lecturas a las que daban derecho: un contador
// ingenuo por endpoint no puede expresar "una lectura lógica repartida en
// varios sub-recursos de la cuenta".
package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	consentdom "github.com/dropDatabas3/consentd/internal/domain/consent"
	"github.com/dropDatabas3/consentd/internal/domain/repository"
	"github.com/dropDatabas3/consentd/internal/metrics"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/profile"
)

// beneficiariesURIMarker identifica el endpoint de trusted beneficiaries en
// la request-URI registrada.
const beneficiariesURIMarker = "trusted-beneficiaries"

var (
	// ErrUsageLimitExceeded indica que el endpoint agotó las frequencyPerDay
	// llamadas del día.
	ErrUsageLimitExceeded = errors.New("usage: daily frequency exceeded for endpoint")

	// ErrConsentNotUsable indica que el consent no está en un estado usable
	// por el TPP (solo Valid lo es).
	ErrConsentNotUsable = errors.New("usage: consent is not usable")
)

// Service registra usos y evalúa la expiración one-off.
type Service struct {
	store   repository.Store
	profile profile.Provider
	now     func() time.Time
}

// New crea el service.
func New(store repository.Store, p profile.Provider) *Service {
	return &Service{store: store, profile: p, now: time.Now}
}

// WithClock reemplaza la fuente de tiempo. Solo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Input describe un uso de endpoint a registrar.
type Input struct {
	RequestURI    string
	ResourceID    string
	TransactionID string

	// BookingStatus y TotalPages solo aplican a consultas de transacciones.
	BookingStatus consentdom.BookingStatus
	TotalPages    int
}

// Record contabiliza un uso del consent y, si el consent es one-off, evalúa
// el agotamiento y lo expira en la misma transacción.
//
// Retorna el consent (posiblemente ya Expired) tras registrar el uso.
func (s *Service) Record(ctx context.Context, consentID string, in Input) (*consentdom.Consent, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("usage"),
		logger.Op("Record"),
		logger.ConsentID(consentID),
	)

	if in.RequestURI == "" {
		return nil, fmt.Errorf("%w: request uri vacía", repository.ErrInvalidInput)
	}

	var c *consentdom.Consent
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		c, err = tx.Consents().GetByID(ctx, consentID)
		if err != nil {
			return err
		}
		if !c.CanBeUsed() {
			return fmt.Errorf("%w: status %s", ErrConsentNotUsable, c.Status)
		}

		now := s.now()
		day := today(now)

		if err := s.checkDailyLimit(ctx, tx, c, day, in.RequestURI); err != nil {
			return err
		}

		if err := tx.Usages().Record(ctx, &consentdom.Usage{
			ConsentID:     c.ID,
			UsageDate:     day,
			RequestURI:    in.RequestURI,
			ResourceID:    in.ResourceID,
			TransactionID: in.TransactionID,
			BookingStatus: in.BookingStatus,
			TotalPages:    in.TotalPages,
		}); err != nil {
			return err
		}

		if !c.IsOneOff() || c.Status.IsFinalised() {
			return nil
		}

		usages, err := tx.Usages().ListByConsent(ctx, c.ID)
		if err != nil {
			return err
		}
		set := s.profile.Settings(c.InstanceID)
		if !exhausted(c, usages, set) {
			return nil
		}

		c.SetStatus(consentdom.StatusExpired, now)
		if err := tx.Consents().Update(ctx, c); err != nil {
			return err
		}
		metrics.OneOffExpirations.Inc()
		log.Info("one-off consent exhausted, expired",
			logger.ConsentStatus(string(c.Status)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// checkDailyLimit aplica el tope frequencyPerDay por endpoint y día a todo
// consent con frequencyPerDay seteado, one-off incluidos.
func (s *Service) checkDailyLimit(ctx context.Context, tx repository.Store, c *consentdom.Consent, day time.Time, uri string) error {
	if c.FrequencyPerDay <= 0 {
		return nil
	}
	usages, err := tx.Usages().ListByConsent(ctx, c.ID)
	if err != nil {
		return err
	}
	for _, u := range usages {
		if u.RequestURI == uri && u.SameDay(day) && u.Counter >= c.FrequencyPerDay {
			return fmt.Errorf("%w: %s", ErrUsageLimitExceeded, uri)
		}
	}
	return nil
}

// today trunca al día calendario.
func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// isBeneficiariesUsage identifica usos del endpoint de trusted beneficiaries.
func isBeneficiariesUsage(u *consentdom.Usage) bool {
	return strings.Contains(u.RequestURI, beneficiariesURIMarker)
}
