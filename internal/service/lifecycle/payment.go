package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/consentd/internal/domain/payment"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
)

// PaymentResult es un payment junto con su token opaco.
type PaymentResult struct {
	Token   string
	Payment *payment.Payment
}

// CreatePaymentRequest registra un pago iniciado por un TPP. El motor solo
// rastrea su estado como parent de sesiones SCA; la ejecución queda afuera.
type CreatePaymentRequest struct {
	InstanceID     string
	PaymentProduct string

	Psu psu.Identity

	TppAuthorisationNumber string
}

// CreatePayment registra el payment en RCVD y devuelve su token opaco.
func (s *Service) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error) {
	now := s.now()
	p := &payment.Payment{
		ID:                     uuid.NewString(),
		InstanceID:             req.InstanceID,
		TransactionStatus:      payment.StatusReceived,
		CreatedAt:              now,
		LastActionDate:         now,
		TppAuthorisationNumber: req.TppAuthorisationNumber,
		PaymentProduct:         req.PaymentProduct,
	}
	if !req.Psu.IsEmpty() {
		p.Psus = psu.IdentityList{req.Psu}
	}

	if err := s.store.Payments().Create(ctx, p); err != nil {
		return nil, err
	}
	token, err := s.encodeID(opaque.KindPayment, p.ID)
	if err != nil {
		return nil, err
	}

	logger.From(ctx).Info("payment registered",
		logger.Layer("service"),
		logger.Component("lifecycle"),
		logger.PaymentID(p.ID),
		logger.InstanceID(p.InstanceID),
	)
	return &PaymentResult{Token: token, Payment: p}, nil
}

// GetPayment resuelve el token y carga el payment, aplicando el watchdog de
// confirmación: vencido sin confirmar pasa a RJCT con cascada de sesiones.
func (s *Service) GetPayment(ctx context.Context, token string) (*PaymentResult, error) {
	id, err := s.decodeID(ctx, opaque.KindPayment, token)
	if err != nil {
		return nil, err
	}
	p, err := s.store.Payments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.watchdogExpirePayment(ctx, p) {
		p, err = s.store.Payments().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return &PaymentResult{Token: token, Payment: p}, nil
}

// GetPaymentStatus resuelve el token y retorna el estado de transacción.
func (s *Service) GetPaymentStatus(ctx context.Context, token string) (payment.TransactionStatus, error) {
	res, err := s.GetPayment(ctx, token)
	if err != nil {
		return "", err
	}
	return res.Payment.TransactionStatus, nil
}

// watchdogExpirePayment aplica la expiración por confirmación en el acceso.
// Reporta si hubo expiración (el caller recarga).
func (s *Service) watchdogExpirePayment(ctx context.Context, p *payment.Payment) bool {
	set := s.profile.Settings(p.InstanceID)
	if p.TransactionStatus.IsFinalised() || set.NotConfirmedExpiration <= 0 {
		return false
	}
	now := s.now()
	if now.Sub(p.CreatedAt) <= set.NotConfirmedExpiration {
		return false
	}
	if err := s.expirePayment(ctx, p, now); err != nil {
		logger.From(ctx).Error("payment confirmation expiry failed",
			logger.Layer("service"),
			logger.Component("lifecycle"),
			logger.PaymentID(p.ID),
			logger.Err(err),
		)
		return false
	}
	return true
}

func (s *Service) expirePayment(ctx context.Context, p *payment.Payment, now time.Time) error {
	return s.watchdog.ExpirePayment(ctx, s.store, p, now)
}
